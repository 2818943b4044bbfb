package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/router"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

func (c *cli) newRouteCmd() *cobra.Command {
	var list bool

	routeCmd := &cobra.Command{
		Use:   "route [path]",
		Short: "Show where a path leads for the current session",
		Long: `Run the navigation guard of the full-screen client for a path and show
where it ends up. This explains why 'parkspot ui /admin' opens the login
screen when you are signed out.

The guard checks, in order: the route needs a session, the route is for
guests only, the route is for another role.

Examples:
  # Where does the admin dashboard lead right now?
  parkspot route /admin

  # Every route with its access rules
  parkspot route --list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return c.render(cmd, routesResult(c.app.Router.Routes()))
			}

			nav, err := c.app.Router.Navigate(args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, ux.Result{Data: nav, Text: navigationDetails(nav)})
		},
	}

	routeCmd.Flags().BoolVar(&list, "list", false, "list every route and its access rules")
	return routeCmd
}

func navigationDetails(nav router.Navigation) *ux.Details {
	title := fmt.Sprintf("%s is open", nav.From.Path)
	if nav.Redirected() {
		title = fmt.Sprintf("%s redirects to %s", nav.From.Path, nav.To.Path)
	}

	fields := []ux.Field{
		{Label: "Requested", Value: fmt.Sprintf("%s (%s)", nav.From.Path, nav.From.Route.Name)},
		{Label: "Access", Value: accessRule(nav.From.Route.Meta)},
	}
	if nav.Redirected() {
		chain := append([]string{nav.From.Path}, nav.Redirects...)
		fields = append(fields, ux.Field{Label: "Redirects", Value: strings.Join(chain, " → ")})
	}
	fields = append(fields, ux.Field{Label: "Shows", Value: nav.To.Route.View})

	if len(nav.To.Params) > 0 {
		keys := make([]string, 0, len(nav.To.Params))
		for k := range nav.To.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		params := make([]string, 0, len(keys))
		for _, k := range keys {
			params = append(params, k+"="+nav.To.Params[k])
		}
		fields = append(fields, ux.Field{Label: "Params", Value: strings.Join(params, ", ")})
	}
	return &ux.Details{Title: title, Fields: fields}
}

func routesResult(routes []router.Route) ux.Result {
	t := &ux.Table{Headers: []string{"Path", "Name", "View", "Access"}}
	for _, r := range routes {
		t.Rows = append(t.Rows, []string{r.Path, r.Name, r.View, accessRule(r.Meta)})
	}
	return ux.Result{Data: routes, Text: t}
}

func accessRule(m router.Meta) string {
	switch {
	case m.RequiresAuth && m.Role != "":
		return "signed in as " + m.Role
	case m.RequiresAuth:
		return "signed in"
	case m.GuestOnly:
		return "guests only"
	case m.Role != "":
		return m.Role + " only"
	default:
		return "public"
	}
}
