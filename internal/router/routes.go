package router

import "github.com/felixgeelhaar/parkspot/internal/api"

// Meta holds the access rules attached to a route
type Meta struct {
	RequiresAuth bool   `json:"requires_auth,omitempty" yaml:"requires_auth,omitempty"`
	GuestOnly    bool   `json:"guest_only,omitempty" yaml:"guest_only,omitempty"`
	Role         string `json:"role,omitempty" yaml:"role,omitempty"`
}

// Route maps a path pattern to a view
type Route struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
	View string `json:"view" yaml:"view"`
	Meta Meta   `json:"meta" yaml:"meta"`
}

// Well-known paths the guard redirects to
const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathAdminLogin     = "/admin/login"
	PathRegister       = "/register"
	PathLots           = "/lots"
	PathDashboard      = "/dashboard"
	PathReservations   = "/reservations"
	PathAdminDashboard = "/admin"
	PathAdminLots      = "/admin/lots"
)

// DefaultRoutes returns the application's route table
func DefaultRoutes() []Route {
	return []Route{
		{Path: PathHome, Name: "home", View: "home"},
		{Path: PathLogin, Name: "login", View: "login", Meta: Meta{GuestOnly: true}},
		{Path: PathAdminLogin, Name: "admin-login", View: "admin-login", Meta: Meta{GuestOnly: true}},
		{Path: PathRegister, Name: "register", View: "register", Meta: Meta{GuestOnly: true}},
		{Path: PathLots, Name: "lots", View: "lots"},
		{Path: "/lots/{id}", Name: "lot", View: "lot"},
		{Path: PathDashboard, Name: "dashboard", View: "dashboard", Meta: Meta{RequiresAuth: true, Role: api.RoleUser}},
		{Path: PathReservations, Name: "reservations", View: "reservations", Meta: Meta{RequiresAuth: true, Role: api.RoleUser}},
		{Path: PathAdminDashboard, Name: "admin", View: "admin", Meta: Meta{RequiresAuth: true, Role: api.RoleAdmin}},
		{Path: PathAdminLots, Name: "admin-lots", View: "admin-lots", Meta: Meta{RequiresAuth: true, Role: api.RoleAdmin}},
	}
}
