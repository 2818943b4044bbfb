// Package cmd implements the parkspot command tree.
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/app"
	"github.com/felixgeelhaar/parkspot/internal/config"
	"github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/exitcode"
	"github.com/felixgeelhaar/parkspot/internal/notify"
	"github.com/felixgeelhaar/parkspot/internal/progress"
	"github.com/felixgeelhaar/parkspot/internal/router"
	"github.com/felixgeelhaar/parkspot/internal/ux"
	"github.com/felixgeelhaar/parkspot/internal/version"
)

// Command annotations that trim the setup a command needs
const (
	annotationNoApp    = "parkspot.no-app"
	annotationNoConfig = "parkspot.no-config"
)

// spinnerDelay keeps fast requests from flashing a spinner
const spinnerDelay = 300 * time.Millisecond

// Option customizes the command tree, mostly for tests
type Option func(*rootOptions)

type rootOptions struct {
	configDir string
	envFiles  []string
	appOpts   []app.Option
}

// WithConfigDir replaces ~/.parkspot as the config directory
func WithConfigDir(dir string) Option {
	return func(o *rootOptions) { o.configDir = dir }
}

// WithEnvFiles sets the dotenv files to load. No arguments loads none.
func WithEnvFiles(files ...string) Option {
	return func(o *rootOptions) { o.envFiles = append([]string{}, files...) }
}

// WithAppOptions passes options through to app.New
func WithAppOptions(opts ...app.Option) Option {
	return func(o *rootOptions) { o.appOpts = append(o.appOpts, opts...) }
}

// cli is the state of one invocation, shared by every command in the tree
type cli struct {
	opts   rootOptions
	cmdCtx *CommandContext
	cfg    *config.Config
	app    *app.App
}

// NewRootCmd builds the parkspot command tree
func NewRootCmd(opts ...Option) *cobra.Command {
	c := &cli{}
	for _, opt := range opts {
		opt(&c.opts)
	}

	def := config.Default()

	root := &cobra.Command{
		Use:   "parkspot",
		Short: "Find, reserve and manage vehicle parking spots",
		Long: `parkspot is a terminal client for the ParkSpot parking reservation service.

Browse parking lots, reserve and release spots and review your reservation
history. Administrators manage parking lot inventory. Run 'parkspot ui' for
the full-screen client.

` + exitcode.Help(),
		Version:           version.GetInfo().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is ~/.parkspot/config.yaml)")
	flags.String("api-url", def.APIURL, "base URL of the parking API")
	flags.StringP("format", "o", def.Format, "output format: text, json or yaml")
	flags.String("log-level", def.Log.Level, "log level: debug, info, warn or error")
	flags.String("log-format", def.Log.Format, "log format: text or json")
	flags.String("session-file", def.SessionFile, "where the signed-in session is kept")
	flags.Duration("timeout", def.Timeout, "HTTP request timeout")
	flags.Bool("no-color", false, "disable colored output")
	flags.Bool("no-input", false, "never prompt; fail when input is missing")

	root.AddCommand(
		c.newAuthCmd(),
		c.newLotsCmd(),
		c.newStatsCmd(),
		c.newReservationsCmd(),
		c.newReserveCmd(),
		c.newReleaseCmd(),
		c.newAdminCmd(),
		c.newRouteCmd(),
		c.newUICmd(),
		c.newProxyCmd(),
		c.newDoctorCmd(),
		c.newConfigCmd(),
		c.newVersionCmd(),
		newCompletionCmd(),
	)

	c.wrapAll(root)
	return root
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// setup loads configuration and builds the application for commands
// that need them.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	c.cmdCtx = cmdCtx

	if cmd.Annotations[annotationNoConfig] == "true" {
		return nil
	}

	cfg, err := config.Load(config.Options{
		ConfigFile: cmdCtx.ConfigFile,
		Dir:        c.opts.configDir,
		EnvFiles:   c.opts.envFiles,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}
	c.cfg = cfg

	if cmd.Annotations[annotationNoApp] == "true" {
		return nil
	}

	a, err := app.New(cfg, c.opts.appOpts...)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// wrapAll makes every command report errors the same way: enhanced with
// codes and suggestions, counted, and followed by pending notifications.
func (c *cli) wrapAll(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			return c.finish(cmd, err)
		}
	}
	for _, sub := range cmd.Commands() {
		c.wrapAll(sub)
	}
}

func (c *cli) finish(cmd *cobra.Command, err error) error {
	if c.app == nil {
		apiURL := ""
		if c.cfg != nil {
			apiURL = c.cfg.APIURL
		}
		return ux.EnhanceError(err, apiURL)
	}

	if err != nil && rejectedSession(err) && c.app.Session.User() != nil {
		if logoutErr := c.app.Logout(); logoutErr != nil {
			c.app.Logger.LogError("failed to clear rejected session", logoutErr)
		}
		c.app.Notify.Warning("The server no longer accepts your session. You have been signed out.", "")
	}

	c.flushNotifications(cmd)
	err = c.app.Explain(componentOf(cmd), err)
	c.app.Close()
	return err
}

// componentOf names cmd without the binary, e.g. "auth login"
func componentOf(cmd *cobra.Command) string {
	path := cmd.CommandPath()
	if i := strings.IndexByte(path, ' '); i >= 0 {
		return path[i+1:]
	}
	return path
}

// render writes data in the configured output format
func (c *cli) render(cmd *cobra.Command, data interface{}) error {
	format := config.FormatText
	if c.cfg != nil {
		format = c.cfg.Format
	} else if f, err := cmd.Flags().GetString("format"); err == nil {
		format = f
	}

	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: c.noColor(),
	})
	if err != nil {
		return err
	}
	return formatter.Format(data)
}

// spin runs fn behind a spinner when stderr is a terminal and the
// output is text.
func (c *cli) spin(cmd *cobra.Command, message string, fn func() error) error {
	w := cmd.ErrOrStderr()
	return progress.Run(progress.Config{
		Writer:      w,
		Message:     message,
		ShowSpinner: progress.IsTerminal(w) && c.cfg != nil && c.cfg.Format == config.FormatText,
		Delay:       spinnerDelay,
	}, fn)
}

func (c *cli) noColor() bool {
	return c.cmdCtx != nil && c.cmdCtx.NoColor
}

func (c *cli) prompting() bool {
	return c.cmdCtx != nil && !c.cmdCtx.NoInput && shouldPrompt()
}

// flushNotifications prints what the command queued on stderr and
// empties the store. Only text output gets them; structured output
// stays machine readable.
func (c *cli) flushNotifications(cmd *cobra.Command) {
	pending := c.app.Notify.List()
	c.app.Notify.Clear()
	if len(pending) == 0 || c.cfg.Format != config.FormatText {
		return
	}

	w := cmd.ErrOrStderr()
	for _, n := range pending {
		mark := severityStyle(n.Severity, c.noColor()).Render(severityMark(n.Severity))
		if n.Title != "" {
			fmt.Fprintf(w, "%s %s: %s\n", mark, n.Title, n.Message)
		} else {
			fmt.Fprintf(w, "%s %s\n", mark, n.Message)
		}
	}
}

func severityMark(s notify.Severity) string {
	switch s {
	case notify.SeveritySuccess:
		return "✓"
	case notify.SeverityDanger:
		return "✗"
	case notify.SeverityWarning:
		return "!"
	default:
		return "i"
	}
}

func severityStyle(s notify.Severity, noColor bool) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if noColor {
		return style
	}
	switch s {
	case notify.SeveritySuccess:
		return style.Foreground(lipgloss.Color("10"))
	case notify.SeverityDanger:
		return style.Foreground(lipgloss.Color("9"))
	case notify.SeverityWarning:
		return style.Foreground(lipgloss.Color("11"))
	default:
		return style.Foreground(lipgloss.Color("12"))
	}
}

// requireRoute runs the navigation guard for path, so a command enforces
// the same access rules as the screen it mirrors.
func (c *cli) requireRoute(path string) error {
	// Navigate ends a session whose token has expired, so look first
	hadUser := c.app.Session.User() != nil

	nav, err := c.app.Router.Navigate(path)
	if err != nil {
		return err
	}
	if !nav.Redirected() {
		return nil
	}
	if nav.Redirects[0] == router.PathLogin {
		if hadUser {
			return errors.NewTokenExpiredError()
		}
		return errors.NewAuthRequiredError()
	}
	return errors.NewForbiddenError(nav.From.Route.Meta.Role)
}

// sessionContext derives the context API calls run under. It ends
// early when the session is logged out.
func (c *cli) sessionContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return c.app.Session.Context(cmd.Context())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02 Jan 2006 15:04")
}
