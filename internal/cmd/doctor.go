package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/config"
	"github.com/felixgeelhaar/parkspot/internal/health"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

func (c *cli) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, backend and session",
		Long: `Run diagnostics and report what would stop parkspot from working.

Checks include:
  • Configuration (effective API URL, output format)
  • Backend API reachability
  • Session file (present, readable, private, not expired)

Doctor works even when the session file is damaged, which other commands
refuse to load.

Examples:
  parkspot doctor
  parkspot doctor --format json`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoApp: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := health.NewManager().WithTimeout(c.cfg.Timeout)
			manager.AddChecker(configChecker{cfg: c.cfg, dir: c.configDir()})
			manager.AddChecker(health.NewBackendChecker(c.cfg.APIURL, &http.Client{Timeout: c.cfg.Timeout}))
			manager.AddChecker(health.NewSessionChecker(c.cfg.SessionFile))

			report := manager.Report(cmd.Context())
			if err := c.render(cmd, ux.Result{Data: report, Text: reportTable(report)}); err != nil {
				return err
			}
			if report.Status == health.StatusUnhealthy {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}
}

// configChecker reports the effective configuration. Loading already
// validated it, so it only fails when the config directory is unusable.
type configChecker struct {
	cfg *config.Config
	dir string
}

func (configChecker) Name() string { return "config" }

func (c configChecker) Check(ctx context.Context) *health.Result {
	if info, err := os.Stat(c.dir); err == nil && !info.IsDir() {
		return health.Unhealthy("config path is not a directory").WithDetail("path", c.dir)
	}
	return health.Healthy("configuration valid").
		WithDetail("api_url", c.cfg.APIURL).
		WithDetail("format", c.cfg.Format).
		WithDetail("timeout", c.cfg.Timeout.String())
}

func reportTable(r health.Report) *ux.Table {
	t := &ux.Table{
		Title:   fmt.Sprintf("%s Overall: %s", statusIcon(r.Status), r.Status),
		Headers: []string{"", "Check", "Status", "Message", "Latency"},
	}
	for _, check := range r.Checks {
		msg := check.Message
		if s, ok := check.Details[health.DetailSuggestion].(string); ok {
			msg += " (" + s + ")"
		}
		t.Rows = append(t.Rows, []string{
			statusIcon(check.Status),
			check.Name,
			string(check.Status),
			msg,
			check.Latency.Round(time.Millisecond).String(),
		})
	}
	return t
}

func statusIcon(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return "✓"
	case health.StatusDegraded:
		return "⚠"
	default:
		return "✗"
	}
}
