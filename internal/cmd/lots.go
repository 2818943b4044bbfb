package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

func (c *cli) newLotsCmd() *cobra.Command {
	lotsCmd := &cobra.Command{
		Use:     "lots",
		Aliases: []string{"lot"},
		Short:   "Browse parking lots",
		Long: `Browse parking lots and their spots. No sign-in is needed.

A lot can be referenced by its numeric id or by the slug of its name.

Examples:
  # Lots with at least one free spot
  parkspot lots list --available

  # Details and spot map of one lot
  parkspot lots show city-centre-plaza`,
	}

	lotsCmd.AddCommand(c.newLotsListCmd(), c.newLotsShowCmd(), c.newLotsSpotsCmd())
	return lotsCmd
}

func (c *cli) newLotsListCmd() *cobra.Command {
	var available bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List parking lots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var lots []api.ParkingLot
			err := c.spin(cmd, "Loading parking lots", func() (err error) {
				lots, err = c.app.Catalog.FetchLots(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}

			title, empty := "Parking lots", "No parking lots yet."
			if available {
				lots = c.app.Catalog.AvailableLots()
				title, empty = "Parking lots with free spots", "Every lot is full right now."
			}
			if lots == nil {
				lots = []api.ParkingLot{}
			}
			return c.render(cmd, ux.Result{Data: lots, Text: lotsTable(title, lots, empty)})
		},
	}

	listCmd.Flags().BoolVar(&available, "available", false, "only lots with at least one free spot")
	return listCmd
}

type lotView struct {
	Lot   api.ParkingLot    `json:"lot" yaml:"lot"`
	Spots []api.ParkingSpot `json:"spots" yaml:"spots"`
}

func (c *cli) newLotsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Show a parking lot and its spots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.loadLotSpinning(cmd, args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, ux.Result{
				Data: view,
				Text: sections{lotDetails(view.Lot), spotsTable(view.Spots)},
			})
		},
	}
}

func (c *cli) newLotsSpotsCmd() *cobra.Command {
	var free bool

	spotsCmd := &cobra.Command{
		Use:   "spots <id|slug>",
		Short: "List the spots of a parking lot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.loadLotSpinning(cmd, args[0])
			if err != nil {
				return err
			}

			spots := view.Spots
			if free {
				spots = spots[:0:0]
				for _, s := range view.Spots {
					if s.Status == api.SpotAvailable {
						spots = append(spots, s)
					}
				}
			}
			table := spotsTable(spots)
			table.Title = view.Lot.Name
			return c.render(cmd, ux.Result{Data: spots, Text: table})
		},
	}

	spotsCmd.Flags().BoolVar(&free, "free", false, "only free spots")
	return spotsCmd
}

func (c *cli) loadLotSpinning(cmd *cobra.Command, ref string) (view lotView, err error) {
	err = c.spin(cmd, "Loading "+ref, func() error {
		view, err = c.loadLot(cmd.Context(), ref)
		return err
	})
	return view, err
}

// loadLot resolves ref against a fresh listing and loads its spots
func (c *cli) loadLot(ctx context.Context, ref string) (lotView, error) {
	if _, err := c.app.Catalog.FetchLots(ctx); err != nil {
		return lotView{}, err
	}
	lot, ok := c.app.Catalog.FindLot(ref)
	if !ok {
		return lotView{}, lotNotFoundError(ref)
	}

	spots, err := c.app.Catalog.FetchSpots(ctx, lot.ID)
	if err != nil {
		return lotView{}, err
	}
	// FetchSpots refreshed the cached counters
	if refreshed, ok := c.app.Catalog.FindLot(ref); ok {
		lot = refreshed
	}
	lot.Spots = nil
	if spots == nil {
		spots = []api.ParkingSpot{}
	}
	return lotView{Lot: lot, Spots: spots}, nil
}
