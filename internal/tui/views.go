package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/currency"
)

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.form != nil {
		b.WriteString(m.form.View())
	} else {
		b.WriteString(m.renderBody())
	}

	if toasts := m.renderToasts(); toasts != "" {
		b.WriteString("\n\n")
		b.WriteString(toasts)
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(keys)))
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("🅿 ParkSpot")

	who := m.styles.Muted.Render("not signed in")
	if u := m.deps.Session.User(); u != nil && m.deps.Session.IsAuthenticated() {
		who = m.styles.Subtitle.Render(fmt.Sprintf("%s (%s)", u.Username, u.Role))
	}

	path := m.styles.Muted.Render(m.current.Path)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", who, "  ", path)
}

func (m Model) renderBody() string {
	if m.loading {
		return m.spinner.View() + " Loading..."
	}

	switch m.current.Route.View {
	case viewHome:
		return m.renderHome()
	case viewLots:
		return m.renderTable("Parking lots", "No parking lots yet.")
	case viewAdminLots:
		return m.renderTable("Manage parking lots", "No parking lots yet. Create one with 'parkspot admin lots create'.")
	case viewLot:
		return m.renderLot()
	case viewDashboard:
		return m.renderDashboard()
	case viewReservations:
		return m.renderTable("My reservations", "You have no reservations.")
	case viewAdmin:
		return m.renderAdmin()
	default:
		return ""
	}
}

func (m Model) renderHome() string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Find and reserve a parking spot."))
	b.WriteString("\n\n")
	for i, item := range m.menu {
		if i == m.cursor {
			b.WriteString(m.styles.Highlighted.Render("▸ " + item.label))
		} else {
			b.WriteString(m.styles.Item.Render(item.label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTable(title, empty string) string {
	var b strings.Builder
	b.WriteString(m.styles.Label.Render(title))
	b.WriteString("\n\n")
	if len(m.rowIDs) == 0 {
		b.WriteString(m.styles.Muted.Render(empty))
		return b.String()
	}
	b.WriteString(m.table.View())
	return b.String()
}

func (m Model) renderLot() string {
	var b strings.Builder
	b.WriteString(m.styles.Label.Render(m.lot.Name))
	b.WriteString("\n")

	fields := [][2]string{
		{"Address", strings.TrimSpace(m.lot.Address + " " + m.lot.PinCode)},
		{"Price", currency.FormatINR(float64(m.lot.Price)) + " per hour"},
		{"Free", fmt.Sprintf("%d of %d", m.lot.AvailableSpots, m.lot.NumberOfSpots)},
	}
	if m.lot.Description != "" {
		fields = append(fields, [2]string{"About", m.lot.Description})
	}
	for _, f := range fields {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%-8s", f[0])))
		b.WriteString(m.styles.Value.Render(f[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.spots) == 0 {
		b.WriteString(m.styles.Muted.Render("This lot has no spots."))
		return b.String()
	}
	b.WriteString(m.renderSpotGrid())
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("enter reserves the selected spot"))
	return b.String()
}

// renderSpotGrid draws one cell per spot, green when free
func (m Model) renderSpotGrid() string {
	const perRow = 10

	var rows []string
	var cells []string
	for i, s := range m.spots {
		style := m.styles.Available
		if s.Status == api.SpotOccupied {
			style = m.styles.Occupied
		}
		cells = append(cells, style.Render("■"))
		if (i+1)%perRow == 0 {
			rows = append(rows, strings.Join(cells, " "))
			cells = nil
		}
	}
	if len(cells) > 0 {
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderDashboard() string {
	var b strings.Builder
	if u := m.deps.Session.User(); u != nil {
		b.WriteString(m.styles.Label.Render("Welcome, " + u.Username))
		b.WriteString("\n\n")
	}

	active, spent := 0, 0.0
	for _, r := range m.reservations {
		if r.Active() {
			active++
		}
		spent += float64(r.ParkingCost)
	}
	b.WriteString(fmt.Sprintf("%s %d   %s %d   %s %s\n\n",
		m.styles.Muted.Render("Reservations:"), len(m.reservations),
		m.styles.Muted.Render("Active:"), active,
		m.styles.Muted.Render("Spent:"), currency.FormatINR(spent),
	))

	if len(m.rowIDs) == 0 {
		b.WriteString(m.styles.Muted.Render("No reservations yet. Browse lots to park."))
		return b.String()
	}
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("x releases the selected reservation"))
	return b.String()
}

func (m Model) renderAdmin() string {
	var b strings.Builder
	b.WriteString(m.styles.Label.Render("Admin dashboard"))
	b.WriteString("\n\n")

	if msg := m.dashboard.Message(); msg != "" {
		b.WriteString(m.styles.Subtitle.Render(msg))
		b.WriteString("\n\n")
	}

	names := make([]string, 0, len(m.dashboard))
	for k := range m.dashboard {
		if k != "message" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, k := range names {
		label := strings.ReplaceAll(k, "_", " ")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%-24s", label)))
		b.WriteString(m.styles.Value.Render(fmt.Sprint(m.dashboard[k])))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}

	boxes := make([]string, 0, len(m.toasts))
	for _, n := range m.toasts {
		text := n.Message
		if n.Title != "" {
			text = lipgloss.NewStyle().Bold(true).Render(n.Title) + "\n" + n.Message
		}
		boxes = append(boxes, m.styles.toast(n.Severity).Render(text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}
