package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/router"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

func (c *cli) newReservationsCmd() *cobra.Command {
	reservationsCmd := &cobra.Command{
		Use:     "reservations",
		Aliases: []string{"res"},
		Short:   "List and create your reservations",
		Long: `List and create reservations for the signed-in user.

Examples:
  # Reservation history, newest last
  parkspot reservations list

  # Only vehicles that are still parked
  parkspot reservations list --active

  # Let the backend pick a free spot in a lot
  parkspot reservations create --lot city-centre-plaza --vehicle KA01AB1234`,
	}

	reservationsCmd.AddCommand(c.newReservationsListCmd(), c.newReservationsCreateCmd())
	return reservationsCmd
}

func (c *cli) newReservationsListCmd() *cobra.Command {
	var active bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireRoute(router.PathReservations); err != nil {
				return err
			}
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			var rs []api.Reservation
			err := c.spin(cmd, "Loading reservations", func() (err error) {
				rs, err = c.app.Catalog.FetchReservations(ctx)
				return err
			})
			if err != nil {
				return err
			}

			title := "My reservations"
			if active {
				title = "Active reservations"
				kept := []api.Reservation{}
				for _, r := range rs {
					if r.Active() {
						kept = append(kept, r)
					}
				}
				rs = kept
			}
			if rs == nil {
				rs = []api.Reservation{}
			}
			return c.render(cmd, ux.Result{Data: rs, Text: reservationsTable(title, rs)})
		},
	}

	listCmd.Flags().BoolVar(&active, "active", false, "only reservations that have not been released")
	return listCmd
}

func (c *cli) newReservationsCreateCmd() *cobra.Command {
	var (
		spotID  int64
		lotRef  string
		vehicle string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a reservation",
		Long: `Create a reservation for a spot, or for any free spot of a lot.
With only --lot the backend chooses the spot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if spotID == 0 && lotRef == "" {
				return fmt.Errorf("required flag(s) \"spot\" or \"lot\" not set")
			}
			if spotID < 0 {
				return fmt.Errorf("invalid argument %d for --spot: must be positive", spotID)
			}
			if err := c.requireRoute(router.PathReservations); err != nil {
				return err
			}
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			req := api.ReservationRequest{SpotID: spotID, VehicleNumber: vehicle}
			if lotRef != "" {
				if _, err := c.app.Catalog.FetchLots(ctx); err != nil {
					return err
				}
				lot, ok := c.app.Catalog.FindLot(lotRef)
				if !ok {
					return lotNotFoundError(lotRef)
				}
				if spotID == 0 && !lot.HasAvailableSpot() {
					return fmt.Errorf("%s has no free spots", lot.Name)
				}
				req.LotID = lot.ID
			}

			res, err := c.app.Client.CreateReservation(ctx, req)
			if err != nil {
				return err
			}
			c.app.Notify.Success(fmt.Sprintf("Spot %s is yours (reservation #%d)",
				spotLabel(api.ParkingSpot{ID: res.SpotID, SpotNumber: res.SpotNumber}), res.ID), "Reserved")
			return c.render(cmd, ux.Result{Data: res, Text: reservationDetails("Reservation created", *res)})
		},
	}

	createCmd.Flags().Int64Var(&spotID, "spot", 0, "spot id to reserve")
	createCmd.Flags().StringVar(&lotRef, "lot", "", "lot id or slug")
	createCmd.Flags().StringVar(&vehicle, "vehicle", "", "vehicle registration number")
	return createCmd
}

func (c *cli) newReserveCmd() *cobra.Command {
	var lotRef string

	reserveCmd := &cobra.Command{
		Use:   "reserve <spot-id>",
		Short: "Reserve a parking spot",
		Long: `Reserve a parking spot by id. Find spot ids with 'parkspot lots spots <lot>'.

With --lot the spot is checked against the lot's current spot map first,
so an occupied spot is refused without a round trip to the reservation API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spotID, err := parseID("spot id", args[0])
			if err != nil {
				return err
			}
			if err := c.requireRoute(router.PathReservations); err != nil {
				return err
			}
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			if lotRef != "" {
				view, err := c.loadLot(ctx, lotRef)
				if err != nil {
					return err
				}
				spot, found := findSpot(view.Spots, spotID)
				if !found {
					return fmt.Errorf("invalid argument %q: spot is not part of %s", args[0], view.Lot.Name)
				}
				if spot.Status == api.SpotOccupied {
					return spotTakenError(spot)
				}
			}

			res, err := c.app.Catalog.Reserve(ctx, spotID)
			if err != nil {
				return err
			}
			c.app.Notify.Success(fmt.Sprintf("Spot %s is yours (reservation #%d)",
				spotLabel(api.ParkingSpot{ID: res.SpotID, SpotNumber: res.SpotNumber}), res.ID), "Reserved")
			return c.render(cmd, ux.Result{Data: res, Text: reservationDetails("Spot reserved", *res)})
		},
	}

	reserveCmd.Flags().StringVar(&lotRef, "lot", "", "lot id or slug to check the spot against")
	return reserveCmd
}

func (c *cli) newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <reservation-id>",
		Short: "Release a reservation and free its spot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reservation id", args[0])
			if err != nil {
				return err
			}
			if err := c.requireRoute(router.PathReservations); err != nil {
				return err
			}
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			if err := c.app.Catalog.Release(ctx, id); err != nil {
				return err
			}
			c.app.Notify.Success(fmt.Sprintf("Reservation #%d released", id), "Released")
			return c.render(cmd, ux.Message{Text: fmt.Sprintf("Reservation #%d released.", id)})
		},
	}
}

func findSpot(spots []api.ParkingSpot, id int64) (api.ParkingSpot, bool) {
	for _, s := range spots {
		if s.ID == id {
			return s, true
		}
	}
	return api.ParkingSpot{}, false
}
