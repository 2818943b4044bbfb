package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/currency"
)

// sessionScoped runs fn with a context that ends on logout
func (m Model) sessionScoped(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	parent, session := m.ctx, m.deps.Session
	return func() tea.Msg {
		ctx, cancel := session.Context(parent)
		defer cancel()
		return fn(ctx)
	}
}

func (m Model) fetchLots() tea.Cmd {
	ctx, catalog, seq := m.ctx, m.deps.Catalog, m.seq
	return func() tea.Msg {
		lots, err := catalog.FetchLots(ctx)
		return lotsMsg{seq: seq, lots: lots, err: err}
	}
}

// fetchLot loads a lot's spots. ref is an id or a slug; lots are loaded
// first when the catalog has not seen ref yet.
func (m Model) fetchLot(ref string) tea.Cmd {
	ctx, catalog, seq := m.ctx, m.deps.Catalog, m.seq
	return func() tea.Msg {
		lot, ok := catalog.FindLot(ref)
		if !ok {
			if _, err := catalog.FetchLots(ctx); err != nil {
				return spotsMsg{seq: seq, err: err}
			}
			if lot, ok = catalog.FindLot(ref); !ok {
				return spotsMsg{seq: seq, err: fmt.Errorf("parking lot %q not found", ref)}
			}
		}
		spots, err := catalog.FetchSpots(ctx, lot.ID)
		if err != nil {
			return spotsMsg{seq: seq, err: err}
		}
		if fresh, ok := catalog.FindLot(strconv.FormatInt(lot.ID, 10)); ok {
			lot = fresh
		}
		return spotsMsg{seq: seq, lot: lot, spots: spots}
	}
}

func (m Model) fetchReservations() tea.Cmd {
	catalog, seq := m.deps.Catalog, m.seq
	return m.sessionScoped(func(ctx context.Context) tea.Msg {
		rs, err := catalog.FetchReservations(ctx)
		return reservationsMsg{seq: seq, reservations: rs, err: err}
	})
}

func (m Model) fetchDashboard() tea.Cmd {
	admin, seq := m.deps.Admin, m.seq
	return m.sessionScoped(func(ctx context.Context) tea.Msg {
		d, err := admin.AdminDashboard(ctx)
		return dashboardMsg{seq: seq, dashboard: d, err: err}
	})
}

func (m Model) fetchAdminLots() tea.Cmd {
	admin, seq := m.deps.Admin, m.seq
	return m.sessionScoped(func(ctx context.Context) tea.Msg {
		lots, err := admin.AdminParkingLots(ctx)
		return adminLotsMsg{seq: seq, lots: lots, err: err}
	})
}

func (m Model) reserve(spotID int64) tea.Cmd {
	catalog, seq := m.deps.Catalog, m.seq
	return m.sessionScoped(func(ctx context.Context) tea.Msg {
		r, err := catalog.Reserve(ctx, spotID)
		if err != nil {
			return actionMsg{seq: seq, title: "Reservation failed", err: err}
		}
		return actionMsg{seq: seq, title: "Reserved", message: fmt.Sprintf("Spot %s is yours (reservation #%d)", spotLabel(r.SpotNumber, r.SpotID), r.ID)}
	})
}

func (m Model) release(reservationID int64) tea.Cmd {
	catalog, seq := m.deps.Catalog, m.seq
	return m.sessionScoped(func(ctx context.Context) tea.Msg {
		if err := catalog.Release(ctx, reservationID); err != nil {
			return actionMsg{seq: seq, title: "Release failed", err: err}
		}
		return actionMsg{seq: seq, title: "Released", message: fmt.Sprintf("Reservation #%d released", reservationID)}
	})
}

func (m Model) deleteLot(id int64) tea.Cmd {
	admin, seq := m.deps.Admin, m.seq
	return m.sessionScoped(func(ctx context.Context) tea.Msg {
		if err := admin.DeleteParkingLot(ctx, id); err != nil {
			return actionMsg{seq: seq, title: "Delete failed", err: err}
		}
		return actionMsg{seq: seq, title: "Deleted", message: fmt.Sprintf("Parking lot #%d deleted", id)}
	})
}

// Table contents

func (m *Model) setRows(cols []table.Column, rows []table.Row, ids []int64) {
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetCursor(0)
	m.rowIDs = ids
}

func (m *Model) setLotRows(lots []api.ParkingLot) {
	cols := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Name", Width: 24},
		{Title: "Address", Width: 28},
		{Title: "Price/hr", Width: 10},
		{Title: "Free", Width: 6},
	}
	rows := make([]table.Row, 0, len(lots))
	ids := make([]int64, 0, len(lots))
	for _, lot := range lots {
		rows = append(rows, table.Row{
			strconv.FormatInt(lot.ID, 10),
			lot.Name,
			lot.Address,
			currency.FormatINR(float64(lot.Price)),
			fmt.Sprintf("%d/%d", lot.AvailableSpots, lot.NumberOfSpots),
		})
		ids = append(ids, lot.ID)
	}
	m.setRows(cols, rows, ids)
}

func (m *Model) setSpotRows(spots []api.ParkingSpot) {
	cols := []table.Column{
		{Title: "Spot", Width: 8},
		{Title: "Status", Width: 12},
	}
	rows := make([]table.Row, 0, len(spots))
	ids := make([]int64, 0, len(spots))
	for _, s := range spots {
		status := "available"
		if s.Status == api.SpotOccupied {
			status = "occupied"
		}
		rows = append(rows, table.Row{spotLabel(s.SpotNumber, s.ID), status})
		ids = append(ids, s.ID)
	}
	m.setRows(cols, rows, ids)
}

func (m *Model) setReservationRows(rs []api.Reservation) {
	cols := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Lot", Width: 20},
		{Title: "Spot", Width: 6},
		{Title: "Vehicle", Width: 12},
		{Title: "Parked", Width: 16},
		{Title: "Left", Width: 16},
		{Title: "Cost", Width: 10},
	}
	rows := make([]table.Row, 0, len(rs))
	ids := make([]int64, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, table.Row{
			strconv.FormatInt(r.ID, 10),
			r.LotName,
			spotLabel(r.SpotNumber, r.SpotID),
			r.VehicleNumber,
			formatTime(r.ParkingTimestamp),
			formatTime(r.LeavingTimestamp),
			currency.FormatINR(float64(r.ParkingCost)),
		})
		ids = append(ids, r.ID)
	}
	m.setRows(cols, rows, ids)
}

func spotLabel(number string, id int64) string {
	if number != "" {
		return number
	}
	return "#" + strconv.FormatInt(id, 10)
}

func formatTime(ts *api.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("02 Jan 15:04")
}
