package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/router"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

func (c *cli) newAdminCmd() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer parking lots (admin role)",
		Long: `Administrative commands. They require a session signed in with
'parkspot auth login --admin'.

Examples:
  # Service overview
  parkspot admin dashboard

  # Revenue and occupancy figures as JSON
  parkspot admin analytics -o json

  # Add a lot with 20 spots at ₹40 per hour
  parkspot admin lots create --name "City Centre Plaza" --address "MG Road" \
    --pin-code 560001 --price 40 --spots 20

  # Raise the price of lot 3
  parkspot admin lots update 3 --price 50`,
	}

	lotsCmd := &cobra.Command{
		Use:   "lots",
		Short: "Manage parking lots",
	}
	lotsCmd.AddCommand(
		c.newAdminLotsListCmd(),
		c.newAdminLotsCreateCmd(),
		c.newAdminLotsUpdateCmd(),
		c.newAdminLotsDeleteCmd(),
	)

	adminCmd.AddCommand(c.newAdminDashboardCmd(), c.newAdminUsersCmd(), c.newAdminAnalyticsCmd(), lotsCmd)
	guarded := append([]*cobra.Command{}, adminCmd.Commands()...)
	guarded = append(guarded, lotsCmd.Commands()...)
	for _, cmd := range guarded {
		if cmd.RunE != nil {
			cmd.RunE = c.adminOnly(cmd.RunE)
		}
	}
	return adminCmd
}

// adminOnly runs the /admin route guard before run
func (c *cli) adminOnly(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := c.requireRoute(router.PathAdminDashboard); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

// dashboardView prints the free-form dashboard as sorted label/value lines
type dashboardView struct {
	dashboard api.Dashboard
}

func (d dashboardView) RenderText(w io.Writer, opts *ux.FormatterOptions) error {
	names := make([]string, 0, len(d.dashboard))
	for k := range d.dashboard {
		if k != "message" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	details := &ux.Details{Title: "Admin dashboard"}
	if msg := d.dashboard.Message(); msg != "" {
		details.Title = msg
	}
	for _, k := range names {
		details.Fields = append(details.Fields, ux.Field{
			Label: strings.ReplaceAll(k, "_", " "),
			Value: fmt.Sprint(d.dashboard[k]),
		})
	}
	return details.RenderText(w, opts)
}

func (c *cli) newAdminDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			var dash api.Dashboard
			err := c.spin(cmd, "Loading dashboard", func() (err error) {
				dash, err = c.app.Client.AdminDashboard(ctx)
				return err
			})
			if err != nil {
				return err
			}
			return c.render(cmd, ux.Result{Data: dash, Text: dashboardView{dashboard: dash}})
		},
	}
}

func (c *cli) newAdminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			var users []api.User
			err := c.spin(cmd, "Loading users", func() (err error) {
				users, err = c.app.Client.AdminUsers(ctx)
				return err
			})
			if err != nil {
				return err
			}
			if users == nil {
				users = []api.User{}
			}
			return c.render(cmd, ux.Result{Data: users, Text: usersTable(users)})
		},
	}
}

func (c *cli) newAdminAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show occupancy and revenue figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			var a *api.Analytics
			err := c.spin(cmd, "Loading analytics", func() (err error) {
				a, err = c.app.Client.AdminAnalytics(ctx)
				return err
			})
			if err != nil {
				return err
			}
			return c.render(cmd, ux.Result{Data: a, Text: analyticsView(*a)})
		},
	}
}

func (c *cli) newAdminLotsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every parking lot, including inactive ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			lots, err := c.app.Client.AdminParkingLots(ctx)
			if err != nil {
				return err
			}
			if lots == nil {
				lots = []api.ParkingLot{}
			}
			return c.render(cmd, ux.Result{
				Data: lots,
				Text: lotsTable("Manage parking lots", lots, "No parking lots yet. Create one with 'parkspot admin lots create'."),
			})
		},
	}
}

// lotFlags binds the LotInput fields. Pointer fields are only set when
// the flag was given, so updates leave the rest alone.
type lotFlags struct {
	input api.LotInput
	price float64
	spots int
}

func (f *lotFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.input.Name, "name", "", "lot name")
	fs.StringVar(&f.input.Address, "address", "", "street address")
	fs.StringVar(&f.input.PinCode, "pin-code", "", "postal PIN code")
	fs.StringVar(&f.input.Description, "description", "", "free-form description")
	fs.Float64Var(&f.price, "price", 0, "price per hour in rupees")
	fs.IntVar(&f.spots, "spots", 0, "number of spots")
}

func (f *lotFlags) resolve(fs *pflag.FlagSet) api.LotInput {
	in := f.input
	if fs.Changed("price") {
		price := f.price
		in.Price = &price
	}
	if fs.Changed("spots") {
		spots := f.spots
		in.NumberOfSpots = &spots
	}
	return in
}

func (c *cli) newAdminLotsCreateCmd() *cobra.Command {
	var flags lotFlags

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a parking lot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := flags.resolve(cmd.Flags())
			if err := in.ValidateCreate(); err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			lot, err := c.app.Client.CreateParkingLot(ctx, in)
			if err != nil {
				return err
			}
			c.app.Notify.Success(fmt.Sprintf("Parking lot %q created", lot.Name), "")
			return c.render(cmd, ux.Result{Data: lot, Text: lotDetails(*lot)})
		},
	}

	flags.register(createCmd.Flags())
	return createCmd
}

func (c *cli) newAdminLotsUpdateCmd() *cobra.Command {
	var flags lotFlags

	updateCmd := &cobra.Command{
		Use:   "update <lot-id>",
		Short: "Update a parking lot",
		Long:  `Update a parking lot. Only the flags you pass are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("lot id", args[0])
			if err != nil {
				return err
			}
			in := flags.resolve(cmd.Flags())
			if err := in.ValidateUpdate(); err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			lot, err := c.app.Client.UpdateParkingLot(ctx, id, in)
			if err != nil {
				return err
			}
			c.app.Notify.Success(fmt.Sprintf("Parking lot %q updated", lot.Name), "")
			return c.render(cmd, ux.Result{Data: lot, Text: lotDetails(*lot)})
		},
	}

	flags.register(updateCmd.Flags())
	return updateCmd
}

func (c *cli) newAdminLotsDeleteCmd() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete <lot-id>",
		Short: "Delete a parking lot",
		Long: `Delete a parking lot. The backend refuses lots with occupied spots.
You are asked to confirm unless --yes is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("lot id", args[0])
			if err != nil {
				return err
			}

			if !c.cmdCtx.Yes {
				if !c.prompting() {
					return missingInputError("confirmation", "yes")
				}
				ok, err := promptConfirmation(fmt.Sprintf("Delete parking lot %d?", id), false)
				if err != nil {
					return err
				}
				if !ok {
					return c.render(cmd, ux.Message{Text: "Nothing deleted."})
				}
			}

			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			if err := c.app.Client.DeleteParkingLot(ctx, id); err != nil {
				return err
			}
			c.app.Notify.Success(fmt.Sprintf("Parking lot %d deleted", id), "")
			return c.render(cmd, ux.Message{Text: fmt.Sprintf("Parking lot %d deleted.", id)})
		},
	}

	deleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return deleteCmd
}
