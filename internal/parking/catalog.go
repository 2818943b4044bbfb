// Package parking caches parking lots and the signed-in user's
// reservations, and applies reserve and release results to the cache.
package parking

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/log"
)

// Backend is the part of the API client the catalog uses
type Backend interface {
	ParkingLots(ctx context.Context) ([]api.ParkingLot, error)
	LegacyParkingLots(ctx context.Context) ([]api.ParkingLot, error)
	LotSpots(ctx context.Context, lotID int64) ([]api.ParkingSpot, error)
	Reservations(ctx context.Context) ([]api.Reservation, error)
	ReserveSpot(ctx context.Context, spotID int64) (*api.Reservation, error)
	ReleaseSpot(ctx context.Context, reservationID int64) error
}

// Catalog is the single owner of lot and reservation state
type Catalog struct {
	backend Backend
	logger  *log.Logger
	now     func() time.Time

	mu           sync.RWMutex
	lots         []api.ParkingLot
	reservations []api.Reservation
	lotsFetched  time.Time
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the catalog's logger
func WithLogger(l *log.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// NewCatalog creates an empty catalog
func NewCatalog(backend Backend, opts ...Option) *Catalog {
	c := &Catalog{
		backend: backend,
		logger:  log.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchLots reloads lots from the public listing. Backends that predate
// it answer 404 there, in which case the legacy listing is used.
func (c *Catalog) FetchLots(ctx context.Context) ([]api.ParkingLot, error) {
	lots, err := c.backend.ParkingLots(ctx)
	if api.IsKind(err, api.KindNotFound) {
		c.logger.Debug("public lot listing missing, using legacy endpoint")
		lots, err = c.backend.LegacyParkingLots(ctx)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lots = append([]api.ParkingLot(nil), lots...)
	c.lotsFetched = c.now()
	c.mu.Unlock()

	c.logger.Debug("lots loaded", "count", len(lots))
	return c.Lots(), nil
}

// FetchSpots loads the spots of one lot and merges them into the cache
func (c *Catalog) FetchSpots(ctx context.Context, lotID int64) ([]api.ParkingSpot, error) {
	spots, err := c.backend.LotSpots(ctx, lotID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if i := c.lotIndexLocked(lotID); i >= 0 {
		lot := &c.lots[i]
		lot.Spots = append([]api.ParkingSpot(nil), spots...)
		lot.AvailableSpots, lot.OccupiedSpots = countSpots(spots)
	}
	c.mu.Unlock()

	return append([]api.ParkingSpot(nil), spots...), nil
}

// Lots returns the cached lots
func (c *Catalog) Lots() []api.ParkingLot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneLots(c.lots)
}

// LotsFetchedAt is when FetchLots last succeeded, zero if never
func (c *Catalog) LotsFetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lotsFetched
}

// AvailableLots returns the cached lots that have at least one free spot
func (c *Catalog) AvailableLots() []api.ParkingLot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []api.ParkingLot
	for _, lot := range c.lots {
		if lot.HasAvailableSpot() {
			out = append(out, cloneLot(lot))
		}
	}
	return out
}

// FindLot looks a cached lot up by numeric id or by the slug of its name
func (c *Catalog) FindLot(ref string) (api.ParkingLot, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return api.ParkingLot{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if i := c.lotIndexLocked(id); i >= 0 {
			return cloneLot(c.lots[i]), true
		}
		return api.ParkingLot{}, false
	}

	want := slug.Make(ref)
	for _, lot := range c.lots {
		if Slug(lot) == want {
			return cloneLot(lot), true
		}
	}
	return api.ParkingLot{}, false
}

// Slug is the URL-safe name used to address a lot
func Slug(lot api.ParkingLot) string {
	return slug.Make(lot.Name)
}

// FetchReservations reloads the signed-in user's reservations
func (c *Catalog) FetchReservations(ctx context.Context) ([]api.Reservation, error) {
	res, err := c.backend.Reservations(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.reservations = append([]api.Reservation(nil), res...)
	c.mu.Unlock()

	return c.Reservations(), nil
}

// Reservations returns the cached reservations
func (c *Catalog) Reservations() []api.Reservation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Reservation(nil), c.reservations...)
}

// Reserve books spotID and records the reservation. The spot is marked
// occupied in the cached lot.
func (c *Catalog) Reserve(ctx context.Context, spotID int64) (*api.Reservation, error) {
	res, err := c.backend.ReserveSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if res.SpotID == 0 {
		res.SpotID = spotID
	}

	c.mu.Lock()
	c.reservations = append(c.reservations, *res)
	c.setSpotStatusLocked(spotID, api.SpotOccupied)
	c.mu.Unlock()

	c.logger.Info("spot reserved", "spot_id", spotID, "reservation_id", res.ID)
	out := *res
	return &out, nil
}

// Release ends reservationID and removes it from the cache. The spot it
// held is marked available again.
func (c *Catalog) Release(ctx context.Context, reservationID int64) error {
	if err := c.backend.ReleaseSpot(ctx, reservationID); err != nil {
		return err
	}

	c.mu.Lock()
	for i, r := range c.reservations {
		if r.ID == reservationID {
			c.reservations = append(c.reservations[:i], c.reservations[i+1:]...)
			c.setSpotStatusLocked(r.SpotID, api.SpotAvailable)
			break
		}
	}
	c.mu.Unlock()

	c.logger.Info("reservation released", "reservation_id", reservationID)
	return nil
}

// Reset drops user-specific state. Lots are public and stay cached.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.reservations = nil
	c.mu.Unlock()
}

func (c *Catalog) lotIndexLocked(id int64) int {
	for i := range c.lots {
		if c.lots[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) setSpotStatusLocked(spotID int64, status string) {
	for i := range c.lots {
		lot := &c.lots[i]
		for j := range lot.Spots {
			if lot.Spots[j].ID != spotID {
				continue
			}
			if lot.Spots[j].Status == status {
				return
			}
			lot.Spots[j].Status = status
			lot.AvailableSpots, lot.OccupiedSpots = countSpots(lot.Spots)
			return
		}
	}
}

func countSpots(spots []api.ParkingSpot) (available, occupied int) {
	for _, s := range spots {
		switch s.Status {
		case api.SpotAvailable:
			available++
		case api.SpotOccupied:
			occupied++
		}
	}
	return available, occupied
}

func cloneLot(lot api.ParkingLot) api.ParkingLot {
	lot.Spots = append([]api.ParkingSpot(nil), lot.Spots...)
	return lot
}

func cloneLots(lots []api.ParkingLot) []api.ParkingLot {
	out := make([]api.ParkingLot, len(lots))
	for i, lot := range lots {
		out[i] = cloneLot(lot)
	}
	return out
}
