// Package router resolves application paths to views and applies the
// navigation guard before every transition.
package router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/log"
)

// MaxRedirects bounds how many guard redirects one navigation follows
const MaxRedirects = 5

var (
	// ErrNotFound matches any unknown-path error via errors.Is
	ErrNotFound = errors.New(errors.ErrCodeRouteNotFound, "route not found")
	// ErrRedirectLoop matches navigation that exceeded MaxRedirects
	ErrRedirectLoop = errors.New(errors.ErrCodeRouteRedirectLoop, "too many redirects")
)

// SessionState is what the guard needs to know about the session
type SessionState interface {
	IsAuthenticated() bool
	Role() string
}

// Observer is told about every guard decision
type Observer interface {
	ObserveNavigation(route string, decision Decision)
}

// Match is a resolved path
type Match struct {
	Route  Route             `json:"route" yaml:"route"`
	Path   string            `json:"path" yaml:"path"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Param returns a path parameter such as "id"
func (m Match) Param(key string) string {
	return m.Params[key]
}

// Navigation is the result of a completed Navigate
type Navigation struct {
	From      Match    `json:"from" yaml:"from"`
	To        Match    `json:"to" yaml:"to"`
	Redirects []string `json:"redirects,omitempty" yaml:"redirects,omitempty"`
}

// Redirected reports whether the guard sent the navigation elsewhere
func (n Navigation) Redirected() bool {
	return len(n.Redirects) > 0
}

// Router is immutable after New and safe for concurrent use
type Router struct {
	mux      *chi.Mux
	routes   []Route
	byPath   map[string]Route
	session  SessionState
	logger   *log.Logger
	observer Observer
}

// Option configures a Router
type Option func(*Router)

// WithLogger sets the router's logger
func WithLogger(l *log.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithObserver reports guard decisions to o
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// New builds a router over routes. Route paths use chi patterns.
func New(routes []Route, session SessionState, opts ...Option) *Router {
	r := &Router{
		mux:     chi.NewRouter(),
		routes:  append([]Route(nil), routes...),
		byPath:  make(map[string]Route, len(routes)),
		session: session,
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	// The mux is only used for matching; handlers never run.
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, route := range r.routes {
		r.byPath[route.Path] = route
		r.mux.Get(route.Path, noop)
	}
	return r
}

// Routes returns the route table in declaration order
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Resolve matches path against the table without running the guard
func (r *Router) Resolve(path string) (Match, error) {
	clean := normalize(path)

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, clean) {
		return Match{}, errors.NewRouteNotFoundError(clean)
	}
	route, ok := r.byPath[rctx.RoutePattern()]
	if !ok {
		return Match{}, errors.NewRouteNotFoundError(clean)
	}

	m := Match{Route: route, Path: clean}
	if n := len(rctx.URLParams.Keys); n > 0 {
		m.Params = make(map[string]string, n)
		for i, key := range rctx.URLParams.Keys {
			m.Params[key] = rctx.URLParams.Values[i]
		}
	}
	return m, nil
}

// Navigate resolves path, runs the guard against the current session and
// follows redirects until a route is allowed.
func (r *Router) Navigate(path string) (Navigation, error) {
	from, err := r.Resolve(path)
	if err != nil {
		return Navigation{}, err
	}

	authenticated := r.session.IsAuthenticated()
	role := r.session.Role()

	nav := Navigation{From: from}
	current := from
	for {
		decision := Guard(current.Route, authenticated, role)
		if r.observer != nil {
			r.observer.ObserveNavigation(current.Route.Name, decision)
		}
		if decision.Allow {
			nav.To = current
			break
		}

		if len(nav.Redirects) == MaxRedirects {
			r.logger.Error("navigation redirect loop", "path", from.Path, "redirects", nav.Redirects)
			return Navigation{}, errors.New(errors.ErrCodeRouteRedirectLoop,
				"navigation to "+from.Path+" exceeded the redirect limit").
				WithSuggestion("Check the route table for guards that redirect to each other")
		}

		r.logger.Debug("navigation redirected",
			"from", current.Path,
			"to", decision.Redirect,
			"reason", decision.Reason,
		)
		nav.Redirects = append(nav.Redirects, decision.Redirect)

		next, err := r.Resolve(decision.Redirect)
		if err != nil {
			return Navigation{}, err
		}
		current = next
	}

	return nav, nil
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
