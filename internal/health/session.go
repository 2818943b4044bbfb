package health

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/felixgeelhaar/parkspot/internal/session"
)

// SessionChecker inspects the session file without touching the network.
type SessionChecker struct {
	path string
	now  func() time.Time
}

// NewSessionChecker checks the session file at path.
func NewSessionChecker(path string) *SessionChecker {
	return &SessionChecker{path: path, now: time.Now}
}

// Name returns the name of this health check.
func (c *SessionChecker) Name() string {
	return "session-file"
}

// Check reports unhealthy for an unreadable file, degraded for a
// signed-out, expired or world-readable session, healthy otherwise.
func (c *SessionChecker) Check(ctx context.Context) *Result {
	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Degraded("not signed in").
			WithDetail("path", c.path).
			WithSuggestion("Run 'parkspot auth login'")
	}
	if err != nil {
		return Unhealthy("session file not accessible").
			WithDetail("path", c.path).
			WithError(err)
	}

	store, err := session.NewFileStorage(c.path)
	if err != nil {
		return Unhealthy("session file not accessible").
			WithDetail("path", c.path).
			WithError(err)
	}
	if err := store.Discarded(); err != nil {
		return Unhealthy("session file is corrupt").
			WithDetail("path", c.path).
			WithError(err).
			WithSuggestion("Run 'parkspot auth logout' to reset it")
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return Degraded("session file is readable by other users").
			WithDetail("path", c.path).
			WithDetail("mode", perm.String())
	}

	token, ok := store.Get(session.KeyToken)
	if !ok || token == "" {
		return Degraded("not signed in").WithDetail("path", c.path)
	}

	result := Healthy("signed in").WithDetail("path", c.path)
	if exp, ok := session.TokenExpiry(token); ok {
		result.WithDetail("expires_at", exp.UTC().Format(time.RFC3339))
		if !c.now().Before(exp) {
			result.Status = StatusDegraded
			result.Message = "session token has expired"
		}
	}
	return result
}
