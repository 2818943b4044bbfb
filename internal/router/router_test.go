package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/parkspot/internal/api"
)

type fakeSession struct {
	authenticated bool
	role          string
}

func (f fakeSession) IsAuthenticated() bool { return f.authenticated }
func (f fakeSession) Role() string          { return f.role }

var (
	guest = fakeSession{}
	user  = fakeSession{authenticated: true, role: api.RoleUser}
	admin = fakeSession{authenticated: true, role: api.RoleAdmin}
)

type recordingObserver struct {
	decisions []Decision
}

func (o *recordingObserver) ObserveNavigation(_ string, d Decision) {
	o.decisions = append(o.decisions, d)
}

func TestGuard_Precedence(t *testing.T) {
	contradictory := Route{Path: "/weird", Meta: Meta{RequiresAuth: true, GuestOnly: true}}

	tests := []struct {
		name          string
		route         Route
		authenticated bool
		role          string
		want          Decision
	}{
		{
			name:  "requiresAuth wins over guestOnly when signed out",
			route: contradictory,
			want:  Decision{Redirect: PathLogin, Reason: ReasonAuthRequired},
		},
		{
			name:          "guestOnly applies once signed in",
			route:         contradictory,
			authenticated: true,
			role:          api.RoleUser,
			want:          Decision{Redirect: PathDashboard, Reason: ReasonGuestOnly},
		},
		{
			name:          "guestOnly sends admins to admin dashboard",
			route:         Route{Meta: Meta{GuestOnly: true}},
			authenticated: true,
			role:          api.RoleAdmin,
			want:          Decision{Redirect: PathAdminDashboard, Reason: ReasonGuestOnly},
		},
		{
			name:          "guestOnly sends unknown roles to user dashboard",
			route:         Route{Meta: Meta{GuestOnly: true}},
			authenticated: true,
			role:          "valet",
			want:          Decision{Redirect: PathDashboard, Reason: ReasonGuestOnly},
		},
		{
			name:          "role mismatch for user",
			route:         Route{Meta: Meta{RequiresAuth: true, Role: api.RoleAdmin}},
			authenticated: true,
			role:          api.RoleUser,
			want:          Decision{Redirect: PathDashboard, Reason: ReasonRoleMismatch},
		},
		{
			name:          "role mismatch for unknown role goes home",
			route:         Route{Meta: Meta{RequiresAuth: true, Role: api.RoleUser}},
			authenticated: true,
			role:          "valet",
			want:          Decision{Redirect: PathHome, Reason: ReasonRoleMismatch},
		},
		{
			name:  "open route",
			route: Route{},
			want:  Decision{Allow: true, Reason: ReasonAllowed},
		},
		{
			name:          "matching role",
			route:         Route{Meta: Meta{RequiresAuth: true, Role: api.RoleAdmin}},
			authenticated: true,
			role:          api.RoleAdmin,
			want:          Decision{Allow: true, Reason: ReasonAllowed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.route, tt.authenticated, tt.role))
		})
	}
}

func TestNavigate_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		session       fakeSession
		path          string
		wantTo        string
		wantRedirects []string
	}{
		{"guest to admin goes to login", guest, "/admin", PathLogin, []string{PathLogin}},
		{"user to admin goes to dashboard", user, "/admin", PathDashboard, []string{PathDashboard}},
		{"admin to login goes to admin", admin, "/login", PathAdminDashboard, []string{PathAdminDashboard}},
		{"admin to user reservations", admin, "/reservations", PathAdminDashboard, []string{PathAdminDashboard}},
		{"user to register", user, "/register", PathDashboard, []string{PathDashboard}},
		{"guest browses lots", guest, "/lots", PathLots, nil},
		{"user opens dashboard", user, "/dashboard", PathDashboard, nil},
		{"admin manages lots", admin, "/admin/lots", PathAdminLots, nil},
		{"unknown role chains home", fakeSession{authenticated: true, role: "valet"}, "/login", PathHome, []string{PathDashboard, PathHome}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(DefaultRoutes(), tt.session)

			nav, err := r.Navigate(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.path, nav.From.Path)
			assert.Equal(t, tt.wantTo, nav.To.Path)
			assert.Equal(t, tt.wantRedirects, nav.Redirects)
			assert.Equal(t, len(tt.wantRedirects) > 0, nav.Redirected())
		})
	}
}

func TestResolve_Params(t *testing.T) {
	r := New(DefaultRoutes(), guest)

	m, err := r.Resolve("/lots/42")
	require.NoError(t, err)
	assert.Equal(t, "lot", m.Route.Name)
	assert.Equal(t, "42", m.Param("id"))

	m, err = r.Resolve("/lots/marine-drive?tab=spots")
	require.NoError(t, err)
	assert.Equal(t, "marine-drive", m.Param("id"))
	assert.Equal(t, "/lots/marine-drive", m.Path)
}

func TestResolve_Normalizes(t *testing.T) {
	r := New(DefaultRoutes(), guest)

	for _, in := range []string{"", "/", "  /  "} {
		m, err := r.Resolve(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, "home", m.Route.Name)
	}

	m, err := r.Resolve("admin/lots/")
	require.NoError(t, err)
	assert.Equal(t, "admin-lots", m.Route.Name)
}

func TestNavigate_UnknownPath(t *testing.T) {
	r := New(DefaultRoutes(), admin)

	_, err := r.Navigate("/nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "/nowhere")
}

func TestNavigate_RedirectLoop(t *testing.T) {
	// A login page that itself requires auth can never be reached.
	routes := []Route{
		{Path: "/", Name: "home"},
		{Path: "/login", Name: "login", Meta: Meta{RequiresAuth: true}},
	}
	obs := &recordingObserver{}
	r := New(routes, guest, WithObserver(obs))

	_, err := r.Navigate("/login")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRedirectLoop))
	assert.Len(t, obs.decisions, MaxRedirects+1)
}

func TestNavigate_ReportsDecisions(t *testing.T) {
	obs := &recordingObserver{}
	r := New(DefaultRoutes(), guest, WithObserver(obs))

	_, err := r.Navigate("/reservations")
	require.NoError(t, err)

	require.Len(t, obs.decisions, 2)
	assert.Equal(t, ReasonAuthRequired, obs.decisions[0].Reason)
	assert.True(t, obs.decisions[1].Allow)
}

func TestRoutes_ReturnsCopy(t *testing.T) {
	r := New(DefaultRoutes(), guest)
	routes := r.Routes()
	require.Len(t, routes, len(DefaultRoutes()))

	routes[0].Path = "/mutated"
	assert.Equal(t, PathHome, r.Routes()[0].Path)
}
