// Package app wires the stores and the API client into one explicit
// object. Commands and the TUI receive an *App instead of reaching for
// package-level state.
package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/config"
	"github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/log"
	"github.com/felixgeelhaar/parkspot/internal/metrics"
	"github.com/felixgeelhaar/parkspot/internal/notify"
	"github.com/felixgeelhaar/parkspot/internal/parking"
	"github.com/felixgeelhaar/parkspot/internal/router"
	"github.com/felixgeelhaar/parkspot/internal/session"
	"github.com/felixgeelhaar/parkspot/internal/tui"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

// App owns every long-lived object of one parkspot process
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Client   *api.Client
	Session  *session.Store
	Notify   *notify.Store
	Router   *router.Router
	Catalog  *parking.Catalog
}

type options struct {
	logger  *log.Logger
	storage session.Storage
	clock   notify.Clock
	apiOpts []api.Option
}

// Option customizes New
type Option func(*options)

// WithLogger overrides the logger built from the configuration
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStorage replaces the session file, mostly for tests
func WithStorage(s session.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithNotifyClock replaces the notification expiry clock
func WithNotifyClock(c notify.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithAPIOptions passes extra options to the API client
func WithAPIOptions(opts ...api.Option) Option {
	return func(o *options) { o.apiOpts = append(o.apiOpts, opts...) }
}

// New builds the application from cfg. The stored session is restored
// without touching the network.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		l, err := cfg.Logger()
		if err != nil {
			return nil, err
		}
		logger = l
	}

	storage := o.storage
	if storage == nil {
		fs, err := session.NewFileStorage(cfg.SessionFile)
		if err != nil {
			return nil, err
		}
		if err := fs.Discarded(); err != nil {
			logger.Warn("ignoring unreadable session file, starting signed out",
				"path", fs.Path(), "error", err.Error())
		}
		storage = fs
	}

	a := &App{Config: cfg, Logger: logger}
	a.Registry, a.Metrics = metrics.NewRegistry()

	// The client reads the token through the session store, which is
	// created after it.
	tokens := api.TokenFunc(func() string {
		if a.Session == nil {
			return ""
		}
		return a.Session.Token()
	})

	clientOpts := append([]api.Option{
		api.WithTimeout(cfg.Timeout),
		api.WithTokenSource(tokens),
		api.WithLogger(logger.WithGroup("api")),
		api.WithObserver(a.Metrics),
	}, o.apiOpts...)
	a.Client = api.NewClient(cfg.APIURL, clientOpts...)

	a.Session = session.NewStore(storage, a.Client, session.WithLogger(logger.WithGroup("session")))

	notifyOpts := []notify.Option{notify.WithObserver(a.Metrics)}
	if o.clock != nil {
		notifyOpts = append(notifyOpts, notify.WithClock(o.clock))
	}
	a.Notify = notify.New(notifyOpts...)

	a.Router = router.New(router.DefaultRoutes(), a.Session,
		router.WithLogger(logger.WithGroup("router")),
		router.WithObserver(a.Metrics),
	)
	a.Catalog = parking.NewCatalog(a.Client, parking.WithLogger(logger.WithGroup("parking")))

	logger.Debug("application ready",
		"api_url", cfg.APIURL,
		"session_file", cfg.SessionFile,
		"authenticated", a.Session.IsAuthenticated(),
	)
	return a, nil
}

// Logout ends the session and drops per-user cached state
func (a *App) Logout() error {
	err := a.Session.Logout()
	a.Catalog.Reset()
	return err
}

// UIDeps returns the objects the full-screen client drives
func (a *App) UIDeps() tui.Deps {
	return tui.Deps{
		Session: a.Session,
		Catalog: a.Catalog,
		Admin:   a.Client,
		Router:  a.Router,
		Notify:  a.Notify,
		Logger:  a.Logger.WithGroup("tui"),
	}
}

// Explain converts err into the ParkError a user should see and counts
// it under component.
func (a *App) Explain(component string, err error) error {
	if err == nil {
		return nil
	}
	err = ux.EnhanceError(err, a.Config.APIURL)
	a.Metrics.RecordError(string(errors.CodeOf(err)), component)
	a.Logger.Debug("command failed", "component", component, "error", err.Error())
	return err
}

// Close stops pending notification timers
func (a *App) Close() {
	a.Notify.Close()
}
