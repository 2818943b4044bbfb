package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/currency"
	"github.com/felixgeelhaar/parkspot/internal/parking"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

// sections renders several text blocks separated by a blank line
type sections []ux.TextRenderer

func (s sections) RenderText(w io.Writer, opts *ux.FormatterOptions) error {
	for i, part := range s {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := part.RenderText(w, opts); err != nil {
			return err
		}
	}
	return nil
}

func lotsTable(title string, lots []api.ParkingLot, empty string) *ux.Table {
	t := &ux.Table{
		Title:   title,
		Headers: []string{"ID", "Name", "Slug", "Address", "Price/hr", "Free"},
		Empty:   empty,
	}
	for _, lot := range lots {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(lot.ID, 10),
			lot.Name,
			parking.Slug(lot),
			lotAddress(lot),
			currency.FormatINR(float64(lot.Price)),
			fmt.Sprintf("%d/%d", lot.AvailableSpots, lot.NumberOfSpots),
		})
	}
	return t
}

func lotDetails(lot api.ParkingLot) *ux.Details {
	fields := []ux.Field{
		{Label: "ID", Value: strconv.FormatInt(lot.ID, 10)},
		{Label: "Slug", Value: parking.Slug(lot)},
		{Label: "Address", Value: lotAddress(lot)},
		{Label: "Price", Value: currency.FormatINR(float64(lot.Price)) + " per hour"},
		{Label: "Spots", Value: fmt.Sprintf("%d free, %d occupied, %d total", lot.AvailableSpots, lot.OccupiedSpots, lot.NumberOfSpots)},
	}
	if lot.Description != "" {
		fields = append(fields, ux.Field{Label: "About", Value: lot.Description})
	}
	if !lot.IsActive {
		fields = append(fields, ux.Field{Label: "Status", Value: "inactive"})
	}
	return &ux.Details{Title: lot.Name, Fields: fields}
}

func spotsTable(spots []api.ParkingSpot) *ux.Table {
	t := &ux.Table{
		Headers: []string{"ID", "Spot", "Status"},
		Empty:   "This lot has no spots.",
	}
	for _, s := range spots {
		status := "free"
		if s.Status == api.SpotOccupied {
			status = "occupied"
		}
		t.Rows = append(t.Rows, []string{strconv.FormatInt(s.ID, 10), spotLabel(s), status})
	}
	return t
}

func reservationsTable(title string, rs []api.Reservation) *ux.Table {
	t := &ux.Table{
		Title:   title,
		Headers: []string{"ID", "Lot", "Spot", "Parked", "Left", "Cost"},
		Empty:   "You have no reservations. Reserve one with 'parkspot reserve <spot-id>'.",
	}
	for _, r := range rs {
		left := "active"
		if !r.Active() {
			left = formatTimestamp(r.LeavingTimestamp)
		}
		lot := r.LotName
		if lot == "" && r.LotID != 0 {
			lot = "#" + strconv.FormatInt(r.LotID, 10)
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			orDash(lot),
			spotLabel(api.ParkingSpot{ID: r.SpotID, SpotNumber: r.SpotNumber}),
			formatTimestamp(r.ParkingTimestamp),
			left,
			currency.FormatINR(float64(r.ParkingCost)),
		})
	}
	return t
}

func reservationDetails(title string, r api.Reservation) *ux.Details {
	fields := []ux.Field{
		{Label: "Reservation", Value: "#" + strconv.FormatInt(r.ID, 10)},
		{Label: "Spot", Value: spotLabel(api.ParkingSpot{ID: r.SpotID, SpotNumber: r.SpotNumber})},
		{Label: "Parked", Value: formatTimestamp(r.ParkingTimestamp)},
	}
	if r.LotName != "" {
		fields = append(fields, ux.Field{Label: "Lot", Value: r.LotName})
	}
	if r.VehicleNumber != "" {
		fields = append(fields, ux.Field{Label: "Vehicle", Value: r.VehicleNumber})
	}
	return &ux.Details{Title: title, Fields: fields}
}

func spotLabel(s api.ParkingSpot) string {
	if s.SpotNumber != "" {
		return s.SpotNumber
	}
	return "#" + strconv.FormatInt(s.ID, 10)
}

func lotAddress(lot api.ParkingLot) string {
	if lot.PinCode == "" {
		return lot.Address
	}
	return lot.Address + " " + lot.PinCode
}

func formatTimestamp(ts *api.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return formatTime(ts.Time)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func usersTable(users []api.User) *ux.Table {
	t := &ux.Table{
		Title:   "Registered users",
		Headers: []string{"ID", "Username", "Email", "Role", "Active", "Last login"},
		Empty:   "No users registered yet.",
	}
	for _, u := range users {
		active := "yes"
		if !u.IsActive {
			active = "no"
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.Username,
			orDash(u.Email),
			u.Role,
			active,
			formatTimestamp(u.LastLogin),
		})
	}
	return t
}

func revenueTable(title, period string, s api.RevenueSeries) *ux.Table {
	t := &ux.Table{Title: title, Headers: []string{period, "Revenue"}, Empty: "No revenue recorded."}
	for i, label := range s.Labels {
		if i >= len(s.Amounts) {
			break
		}
		t.Rows = append(t.Rows, []string{label, currency.FormatINR(float64(s.Amounts[i]))})
	}
	return t
}

func analyticsView(a api.Analytics) sections {
	status := &ux.Details{Title: "Spots", Fields: []ux.Field{
		{Label: "Available", Value: strconv.Itoa(a.ParkingStatus.Available)},
		{Label: "Occupied", Value: strconv.Itoa(a.ParkingStatus.Occupied)},
		{Label: "Reserved", Value: strconv.Itoa(a.ParkingStatus.Reserved)},
	}}
	totals := &ux.Details{Title: "All time", Fields: []ux.Field{
		{Label: "Completed reservations", Value: strconv.Itoa(a.Summary.CompletedReservations)},
		{Label: "Revenue", Value: currency.FormatINR(float64(a.Summary.Revenue))},
		{Label: "Average stay", Value: fmt.Sprintf("%.1f hours", a.Summary.AverageDurationHours)},
	}}

	utilization := &ux.Table{Title: "Lot utilization", Headers: []string{"Lot", "Utilization"}, Empty: "No lots."}
	for i, name := range a.LotUtilization.LotNames {
		if i >= len(a.LotUtilization.Rates) {
			break
		}
		utilization.Rows = append(utilization.Rows, []string{name, fmt.Sprintf("%.0f%%", a.LotUtilization.Rates[i])})
	}

	return sections{
		status,
		totals,
		utilization,
		revenueTable("Daily revenue", "Day", a.DailyRevenue),
		revenueTable("Weekly revenue", "Week", a.WeeklyRevenue),
	}
}

func statsView(st api.PublicStats) *ux.Details {
	return &ux.Details{Title: "ParkSpot at a glance", Fields: []ux.Field{
		{Label: "Parking lots", Value: strconv.Itoa(st.TotalLots)},
		{Label: "Spots", Value: fmt.Sprintf("%d free of %d", st.AvailableSpots, st.TotalSpots)},
		{Label: "Utilization", Value: fmt.Sprintf("%.1f%%", st.UtilizationRate)},
		{Label: "Reservations", Value: strconv.Itoa(st.TotalReservations)},
	}}
}
