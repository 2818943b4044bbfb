package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/devproxy"
	"github.com/felixgeelhaar/parkspot/internal/health"
	"github.com/felixgeelhaar/parkspot/internal/metrics"
	"github.com/felixgeelhaar/parkspot/internal/version"
)

func (c *cli) newProxyCmd() *cobra.Command {
	var (
		listen          string
		target          string
		shutdownTimeout time.Duration
	)

	proxyCmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the development reverse proxy",
		Long: `Serve /api/* from a local address and forward it to the backend, the way
the web frontend's development server did. The proxy also exposes:

  /healthz, /health/ready  - readiness (backend reachable, session file sane)
  /health/live             - liveness
  /metrics                 - Prometheus metrics

The proxy drains connections on SIGINT or SIGTERM.

Examples:
  parkspot proxy
  parkspot proxy --listen :9000 --target http://10.0.0.5:5000`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			annotationNoApp: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := devproxy.Config{
				Listen:          c.cfg.Proxy.Listen,
				Target:          c.cfg.Proxy.Target,
				ShutdownTimeout: shutdownTimeout,
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("target") {
				cfg.Target = target
			}

			logger, err := c.cfg.Logger()
			if err != nil {
				return err
			}

			manager := health.NewManager().WithTimeout(5 * time.Second)
			manager.AddChecker(health.NewBackendChecker(cfg.Target, nil))
			manager.AddChecker(health.NewSessionChecker(c.cfg.SessionFile))
			probes := health.NewProbes(manager, version.GetInfo().Version)

			reg, m := metrics.NewProcessRegistry()
			srv, err := devproxy.New(cfg, probes, m, reg, logger.WithGroup("proxy"))
			if err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}

			ready := make(chan string, 1)
			go func() {
				addr, ok := <-ready
				if !ok {
					return
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Proxying http://%s%s/* to %s\n", addr, devproxy.APIPrefix, cfg.Target)
				fmt.Fprintf(out, "  Readiness: http://%s/health/ready\n", addr)
				fmt.Fprintf(out, "  Metrics:   http://%s/metrics\n", addr)
				fmt.Fprintln(out, "Press Ctrl+C to stop the proxy")
			}()

			err = srv.ListenAndServe(cmd.Context(), ready)
			close(ready)
			if err != nil {
				return fmt.Errorf("proxy error: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Proxy stopped gracefully")
			return nil
		},
	}

	proxyCmd.Flags().StringVar(&listen, "listen", ":8081", "address to listen on (default from proxy.listen)")
	proxyCmd.Flags().StringVar(&target, "target", "http://localhost:5000", "backend origin (default from proxy.target)")
	proxyCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "how long connections may drain on shutdown")
	return proxyCmd
}
