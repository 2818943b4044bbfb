package router

import "github.com/felixgeelhaar/parkspot/internal/api"

// Reasons a Decision carries
const (
	ReasonAllowed      = "allowed"
	ReasonAuthRequired = "auth_required"
	ReasonGuestOnly    = "guest_only"
	ReasonRoleMismatch = "role_mismatch"
)

// Decision is the outcome of running the guard on one route
type Decision struct {
	Allow    bool   `json:"allow" yaml:"allow"`
	Redirect string `json:"redirect,omitempty" yaml:"redirect,omitempty"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Guard decides whether the current session may enter route.
//
// The checks run in a fixed order and the first that fires wins:
// requiresAuth, then guestOnly, then role. Guard never does I/O.
func Guard(route Route, authenticated bool, role string) Decision {
	meta := route.Meta

	if meta.RequiresAuth && !authenticated {
		return Decision{Redirect: PathLogin, Reason: ReasonAuthRequired}
	}

	if meta.GuestOnly && authenticated {
		target := PathDashboard
		if role == api.RoleAdmin {
			target = PathAdminDashboard
		}
		return Decision{Redirect: target, Reason: ReasonGuestOnly}
	}

	if meta.Role != "" && meta.Role != role {
		return Decision{Redirect: RoleHome(role), Reason: ReasonRoleMismatch}
	}

	return Decision{Allow: true, Reason: ReasonAllowed}
}

// RoleHome is the landing page for role; unknown roles land on home.
func RoleHome(role string) string {
	switch role {
	case api.RoleAdmin:
		return PathAdminDashboard
	case api.RoleUser:
		return PathDashboard
	default:
		return PathHome
	}
}
