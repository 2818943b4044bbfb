// Package progress draws a spinner on a terminal while a slow request runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Indicator shows a single spinner line with a message and elapsed time
type Indicator struct {
	writer     io.Writer
	message    string
	delay      time.Duration
	interval   time.Duration
	startTime  time.Time
	mu         sync.Mutex
	spinnerIdx int
	drawn      bool
	enabled    bool
	stopChan   chan struct{}
	doneChan   chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once // Stop may run from a defer and an error path
}

// Config holds configuration for progress indicator
type Config struct {
	Writer  io.Writer
	Message string
	// ShowSpinner turns drawing on. Callers usually pass IsTerminal(Writer).
	ShowSpinner bool
	IsCI        bool // Set to true in CI/CD environments to disable fancy output
	// Delay before the first frame. Requests that finish sooner draw nothing.
	Delay time.Duration
	// Interval between frames, 100ms when zero
	Interval time.Duration
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewIndicator creates a new progress indicator
func NewIndicator(cfg Config) *Indicator {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}

	// Auto-detect CI environment
	if !cfg.IsCI {
		cfg.IsCI = os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
	}

	return &Indicator{
		writer:   cfg.Writer,
		message:  cfg.Message,
		delay:    cfg.Delay,
		interval: cfg.Interval,
		enabled:  cfg.ShowSpinner && !cfg.IsCI,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins drawing in the background
func (p *Indicator) Start() {
	p.startOnce.Do(func() {
		p.startTime = time.Now()
		if !p.enabled {
			close(p.doneChan)
			return
		}
		go p.spinnerLoop()
	})
}

// Stop ends drawing, clears the line and returns the elapsed time
func (p *Indicator) Stop() time.Duration {
	p.Start()
	p.stopOnce.Do(func() {
		close(p.stopChan)
		<-p.doneChan

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.drawn {
			fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", p.lineWidth()))
		}
	})
	return time.Since(p.startTime)
}

func (p *Indicator) spinnerLoop() {
	defer close(p.doneChan)

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		select {
		case <-p.stopChan:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.render()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.render()
		}
	}
}

func (p *Indicator) render() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\r%s", p.line())
	p.drawn = true
	p.spinnerIdx = (p.spinnerIdx + 1) % len(spinnerFrames)
}

func (p *Indicator) line() string {
	return fmt.Sprintf("%s %s (%s)", spinnerFrames[p.spinnerIdx], p.message, formatDuration(time.Since(p.startTime)))
}

// lineWidth covers the longest line render can produce
func (p *Indicator) lineWidth() int {
	return len([]rune(p.message)) + 16
}

// Run calls fn with an indicator running around it
func Run(cfg Config, fn func() error) error {
	ind := NewIndicator(cfg)
	ind.Start()
	defer ind.Stop()
	return fn()
}

// IsTerminal reports whether w is a character device such as a TTY
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
