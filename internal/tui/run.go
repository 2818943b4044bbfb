package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/parkspot/internal/notify"
)

// Run starts the full-screen client at startPath and blocks until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, deps Deps, startPath string) error {
	model := NewModel(ctx, deps, startPath)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Watchers also fire from inside Update, which must not block on
	// the event loop it is running in.
	stop := deps.Notify.Watch(func([]notify.Notification) {
		go p.Send(notificationsMsg{})
	})
	defer stop()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
