package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/notify"
	"github.com/felixgeelhaar/parkspot/internal/router"
)

type fakeSession struct {
	mu        sync.Mutex
	user      *api.User
	loginErr  error
	loginUser *api.User
	logouts   int
}

func (s *fakeSession) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

func (s *fakeSession) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

func (s *fakeSession) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *fakeSession) Login(_ context.Context, creds api.Credentials, isAdmin bool) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	u := s.loginUser
	if u == nil {
		role := api.RoleUser
		if isAdmin {
			role = api.RoleAdmin
		}
		u = &api.User{ID: 1, Username: creds.Username, Role: role}
	}
	s.user = u
	return u, nil
}

func (s *fakeSession) Register(_ context.Context, reg api.Registration) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &api.User{ID: 2, Username: reg.Username, Role: api.RoleUser}
	return s.user, nil
}

func (s *fakeSession) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.logouts++
	return nil
}

func (s *fakeSession) Context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(parent)
}

type fakeCatalog struct {
	lots         []api.ParkingLot
	spots        map[int64][]api.ParkingSpot
	reservations []api.Reservation
	loaded       bool
	reserved     []int64
	released     []int64
	resets       int
	reserveErr   error
	listErr      error
}

func (c *fakeCatalog) FetchLots(context.Context) ([]api.ParkingLot, error) {
	c.loaded = true
	return c.lots, nil
}

func (c *fakeCatalog) FetchSpots(_ context.Context, lotID int64) ([]api.ParkingSpot, error) {
	return c.spots[lotID], nil
}

func (c *fakeCatalog) FindLot(ref string) (api.ParkingLot, bool) {
	if !c.loaded {
		return api.ParkingLot{}, false
	}
	for _, lot := range c.lots {
		slug := strings.ReplaceAll(strings.ToLower(lot.Name), " ", "-")
		if strconv.FormatInt(lot.ID, 10) == ref || slug == ref {
			return lot, true
		}
	}
	return api.ParkingLot{}, false
}

func (c *fakeCatalog) FetchReservations(context.Context) ([]api.Reservation, error) {
	return c.reservations, c.listErr
}

func (c *fakeCatalog) Reserve(_ context.Context, spotID int64) (*api.Reservation, error) {
	if c.reserveErr != nil {
		return nil, c.reserveErr
	}
	c.reserved = append(c.reserved, spotID)
	return &api.Reservation{ID: 99, SpotID: spotID, SpotNumber: "A1"}, nil
}

func (c *fakeCatalog) Release(_ context.Context, id int64) error {
	c.released = append(c.released, id)
	return nil
}

func (c *fakeCatalog) Reset() { c.resets++ }

type fakeAdmin struct {
	dashboard api.Dashboard
	deleted   []int64
}

func (a *fakeAdmin) AdminDashboard(context.Context) (api.Dashboard, error) {
	return a.dashboard, nil
}

func (a *fakeAdmin) AdminParkingLots(context.Context) ([]api.ParkingLot, error) {
	return []api.ParkingLot{{ID: 1, Name: "Central Plaza"}}, nil
}

func (a *fakeAdmin) DeleteParkingLot(_ context.Context, id int64) error {
	a.deleted = append(a.deleted, id)
	return nil
}

type harness struct {
	session *fakeSession
	catalog *fakeCatalog
	admin   *fakeAdmin
	notify  *notify.Store
}

func newHarness(t *testing.T, user *api.User) *harness {
	t.Helper()
	h := &harness{
		session: &fakeSession{user: user},
		catalog: &fakeCatalog{
			lots: []api.ParkingLot{
				{ID: 1, Name: "Central Plaza", Price: 40, NumberOfSpots: 2, AvailableSpots: 1},
				{ID: 2, Name: "Lake View", Price: 25.5, NumberOfSpots: 1, AvailableSpots: 1},
			},
			spots: map[int64][]api.ParkingSpot{
				1: {
					{ID: 10, SpotNumber: "A1", LotID: 1, Status: api.SpotOccupied},
					{ID: 11, SpotNumber: "A2", LotID: 1, Status: api.SpotAvailable},
				},
			},
			reservations: []api.Reservation{
				{ID: 5, SpotID: 10, LotName: "Central Plaza", ParkingCost: 80},
			},
		},
		admin:  &fakeAdmin{dashboard: api.Dashboard{"message": "Welcome admin", "total_lots": 2}},
		notify: notify.New(),
	}
	t.Cleanup(h.notify.Close)
	return h
}

func (h *harness) start(t *testing.T, path string) Model {
	t.Helper()
	deps := Deps{
		Session: h.session,
		Catalog: h.catalog,
		Admin:   h.admin,
		Router:  router.New(router.DefaultRoutes(), h.session),
		Notify:  h.notify,
	}
	m := NewModel(context.Background(), deps, path)
	return drain(m, m.Init())
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drain runs cmd and feeds the messages it produces back into the model
// until nothing is left. Form and spinner commands are not run.
func drain(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg:
		case navigateMsg, lotsMsg, adminLotsMsg, spotsMsg, reservationsMsg, dashboardMsg, authMsg, actionMsg:
			var next tea.Cmd
			m, next = update(m, msg)
			if m.form == nil {
				queue = append(queue, next)
			}
		}
	}
	return m
}

func press(m Model, k string) Model {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := update(m, msg)
	return drain(m, cmd)
}

func hasNotification(s *notify.Store, sev notify.Severity, contains string) bool {
	for _, n := range s.List() {
		if n.Severity == sev && strings.Contains(n.Message, contains) {
			return true
		}
	}
	return false
}

func TestModel_GuestIsSentToLogin(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/admin")

	if m.current.Route.View != viewLogin {
		t.Fatalf("expected login view, got %q", m.current.Route.View)
	}
	if m.form == nil {
		t.Error("expected the login form to be active")
	}
	if m.pendingPath != "/admin" {
		t.Errorf("expected pending path /admin, got %q", m.pendingPath)
	}
	if !hasNotification(h.notify, notify.SeverityWarning, "sign in") {
		t.Errorf("expected a sign-in warning, got %+v", h.notify.List())
	}
}

func TestModel_LoginReturnsToPendingPath(t *testing.T) {
	h := newHarness(t, nil)
	h.session.loginUser = &api.User{ID: 1, Username: "root", Role: api.RoleAdmin}
	m := h.start(t, "/admin")

	m.creds.Username = "root"
	m.creds.Password = "secret"
	m = drain(m, m.submit())

	if m.current.Route.View != viewAdmin {
		t.Fatalf("expected admin view after login, got %q", m.current.Route.View)
	}
	if m.pendingPath != "" {
		t.Errorf("pending path should be consumed, got %q", m.pendingPath)
	}
	if m.dashboard.Message() != "Welcome admin" {
		t.Errorf("expected dashboard to load, got %v", m.dashboard)
	}
	if !hasNotification(h.notify, notify.SeveritySuccess, "Welcome back, root") {
		t.Errorf("expected a welcome notification, got %+v", h.notify.List())
	}
	if !strings.Contains(m.View(), "total lots") {
		t.Errorf("admin view should list dashboard values:\n%s", m.View())
	}
}

func TestModel_LoginWithoutPendingPathGoesToRoleHome(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/login")

	m.creds.Username = "asha"
	m = drain(m, m.submit())

	if m.current.Path != router.PathDashboard {
		t.Errorf("expected %s, got %s", router.PathDashboard, m.current.Path)
	}
}

func TestModel_FailedLoginShowsErrorAndNewForm(t *testing.T) {
	h := newHarness(t, nil)
	h.session.loginErr = &api.APIError{Kind: api.KindAuth, Status: 401, Message: "Invalid credentials"}
	m := h.start(t, "/login")

	m = drain(m, m.submit())

	if m.current.Route.View != viewLogin {
		t.Errorf("should stay on login, got %q", m.current.Route.View)
	}
	if m.form == nil {
		t.Error("expected a fresh login form")
	}
	if !hasNotification(h.notify, notify.SeverityDanger, "Invalid username or password") {
		t.Errorf("expected an error notification, got %+v", h.notify.List())
	}
}

func TestModel_RegisterSignsIn(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/register")

	m.reg.Username = "newbie"
	m.reg.Email = "n@example.com"
	m.reg.Password = "pw"
	m = drain(m, m.submit())

	if !h.session.IsAuthenticated() {
		t.Fatal("expected to be signed in")
	}
	if m.current.Path != router.PathDashboard {
		t.Errorf("expected dashboard, got %s", m.current.Path)
	}
	if !hasNotification(h.notify, notify.SeveritySuccess, "Account created") {
		t.Errorf("expected account notification, got %+v", h.notify.List())
	}
}

func TestModel_LotsListAndOpen(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/lots")

	if len(m.rowIDs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.rowIDs))
	}
	view := m.View()
	if !strings.Contains(view, "Central Plaza") || !strings.Contains(view, "₹25.50") {
		t.Errorf("lots view missing content:\n%s", view)
	}

	m = press(m, "enter")
	if m.current.Path != "/lots/1" {
		t.Fatalf("expected /lots/1, got %s", m.current.Path)
	}
	if len(m.spots) != 2 {
		t.Errorf("expected spots to load, got %d", len(m.spots))
	}

	m = press(m, "esc")
	if m.current.Path != router.PathLots {
		t.Errorf("back should return to lots, got %s", m.current.Path)
	}
}

func TestModel_LotBySlugLoadsCatalogFirst(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/lots/central-plaza")

	if m.lot.ID != 1 {
		t.Fatalf("expected lot 1, got %+v", m.lot)
	}
	if !h.catalog.loaded {
		t.Error("lots should have been fetched to resolve the slug")
	}
}

func TestModel_ReserveSpot(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	m := h.start(t, "/lots/1")

	// First spot is occupied.
	m = press(m, "enter")
	if len(h.catalog.reserved) != 0 {
		t.Fatalf("occupied spot must not be reserved")
	}
	if !hasNotification(h.notify, notify.SeverityWarning, "already taken") {
		t.Errorf("expected a warning, got %+v", h.notify.List())
	}

	m = press(m, "down")
	m = press(m, "enter")
	if len(h.catalog.reserved) != 1 || h.catalog.reserved[0] != 11 {
		t.Fatalf("expected spot 11 reserved, got %v", h.catalog.reserved)
	}
	if !hasNotification(h.notify, notify.SeveritySuccess, "Spot A1 is yours") {
		t.Errorf("expected success notification, got %+v", h.notify.List())
	}
	if m.loading {
		t.Error("lot should have reloaded")
	}
}

func TestModel_ReserveFailureIsNotified(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	h.catalog.reserveErr = &api.APIError{Kind: api.KindValidation, Status: 400, Message: "Spot already reserved"}
	m := h.start(t, "/lots/1")

	m = press(m, "down")
	press(m, "enter")

	if !hasNotification(h.notify, notify.SeverityDanger, "Spot already reserved") {
		t.Errorf("expected the API message as an error, got %+v", h.notify.List())
	}
}

func TestModel_GuestReserveGoesToLogin(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/lots/1")

	m = press(m, "down")
	m = press(m, "enter")

	if m.current.Route.View != viewLogin {
		t.Fatalf("expected login, got %q", m.current.Route.View)
	}
	if m.pendingPath != "/lots/1" {
		t.Errorf("expected to come back to the lot, got %q", m.pendingPath)
	}
}

func TestModel_ReleaseReservation(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	m := h.start(t, "/reservations")

	if len(m.rowIDs) != 1 {
		t.Fatalf("expected one reservation row, got %d", len(m.rowIDs))
	}
	press(m, "x")

	if len(h.catalog.released) != 1 || h.catalog.released[0] != 5 {
		t.Errorf("expected reservation 5 released, got %v", h.catalog.released)
	}
}

func TestModel_LateLotsResponseIsDropped(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	m := h.start(t, "/lots")
	lotsSeq := m.seq

	m = drain(m, navigateTo(router.PathReservations, true))
	if m.current.Route.View != viewReservations {
		t.Fatalf("expected reservations, got %q", m.current.Route.View)
	}

	// The lots request issued on the previous screen answers late.
	m, _ = update(m, lotsMsg{seq: lotsSeq, lots: []api.ParkingLot{{ID: 42, Name: "Old"}}})
	if len(m.rowIDs) != 1 || m.rowIDs[0] != 5 {
		t.Fatalf("late lots must not replace reservation rows, got %v", m.rowIDs)
	}

	press(m, "x")
	if len(h.catalog.released) != 1 || h.catalog.released[0] != 5 {
		t.Errorf("expected reservation 5 released, got %v", h.catalog.released)
	}
}

func TestModel_LateResponsesAfterLeavingAreDropped(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "root", Role: api.RoleAdmin})
	m := h.start(t, "/admin/lots")
	adminSeq := m.seq

	m = press(m, "esc")
	if m.current.Path != router.PathHome {
		t.Fatalf("expected home, got %s", m.current.Path)
	}
	rows := append([]int64(nil), m.rowIDs...)

	for _, msg := range []tea.Msg{
		adminLotsMsg{seq: adminSeq, lots: []api.ParkingLot{{ID: 7}}},
		dashboardMsg{seq: adminSeq, dashboard: api.Dashboard{"message": "stale"}},
		spotsMsg{seq: adminSeq, spots: []api.ParkingSpot{{ID: 3}}},
		reservationsMsg{seq: adminSeq, reservations: []api.Reservation{{ID: 9}}},
	} {
		m, _ = update(m, msg)
	}
	if len(m.rowIDs) != len(rows) || (len(rows) > 0 && m.rowIDs[0] != rows[0]) {
		t.Errorf("late admin lots replaced rows: %v", m.rowIDs)
	}
	if m.dashboard.Message() != "" || len(m.spots) != 0 || len(m.reservations) != 0 {
		t.Errorf("late responses leaked into the model: %+v %+v %+v", m.dashboard, m.spots, m.reservations)
	}
}

func TestModel_LateActionStillNotifies(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	m := h.start(t, "/reservations")
	staleSeq := m.seq

	m = drain(m, navigateTo(router.PathLots, true))
	seq := m.seq
	m, cmd := update(m, actionMsg{seq: staleSeq, title: "Released", message: "Reservation #5 released"})

	if cmd != nil || m.seq != seq {
		t.Error("a late action must not reload the current screen")
	}
	if m.current.Path != router.PathLots || len(m.rowIDs) != 2 {
		t.Errorf("lots screen changed: %s %v", m.current.Path, m.rowIDs)
	}
	if !hasNotification(h.notify, notify.SeveritySuccess, "Reservation #5 released") {
		t.Errorf("expected the success notification, got %+v", h.notify.List())
	}
}

func TestModel_UserOnAdminIsRedirected(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	m := h.start(t, "/admin")

	if m.current.Path != router.PathDashboard {
		t.Errorf("expected dashboard, got %s", m.current.Path)
	}
	if m.pendingPath != "" {
		t.Errorf("role redirects should not set a pending path, got %q", m.pendingPath)
	}
	if !strings.Contains(m.View(), "Welcome, asha") {
		t.Errorf("dashboard should greet the user:\n%s", m.View())
	}
}

func TestModel_AdminDeletesLot(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "root", Role: api.RoleAdmin})
	m := h.start(t, "/admin/lots")

	press(m, "d")

	if len(h.admin.deleted) != 1 || h.admin.deleted[0] != 1 {
		t.Errorf("expected lot 1 deleted, got %v", h.admin.deleted)
	}
}

func TestModel_Logout(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	m := h.start(t, "/dashboard")

	m = press(m, "L")

	if h.session.IsAuthenticated() {
		t.Error("expected session to end")
	}
	if h.catalog.resets != 1 {
		t.Errorf("expected catalog reset, got %d", h.catalog.resets)
	}
	if m.current.Path != router.PathHome {
		t.Errorf("expected home, got %s", m.current.Path)
	}
	if len(m.menu) == 0 || m.menu[0].path != router.PathLots {
		t.Errorf("expected guest menu, got %+v", m.menu)
	}
}

func TestModel_RejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t, &api.User{ID: 1, Username: "asha", Role: api.RoleUser})
	h.catalog.listErr = &api.APIError{Kind: api.KindAuth, Status: 401, Message: "Token has expired"}

	m := h.start(t, "/reservations")

	if h.session.logouts != 1 {
		t.Errorf("expected one logout, got %d", h.session.logouts)
	}
	if m.current.Path != router.PathHome {
		t.Errorf("expected home, got %s", m.current.Path)
	}
	if !hasNotification(h.notify, notify.SeverityDanger, "Token has expired") {
		t.Errorf("expected the API message, got %+v", h.notify.List())
	}
}

func TestModel_UnknownPath(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/")

	m = drain(m, navigateTo("/nowhere", true))

	if m.current.Path != router.PathHome {
		t.Errorf("should stay home, got %s", m.current.Path)
	}
	if !hasNotification(h.notify, notify.SeverityDanger, "/nowhere") {
		t.Errorf("expected a not-found notification, got %+v", h.notify.List())
	}
}

func TestModel_HomeMenu(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/")

	m = press(m, "down")
	if m.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.cursor)
	}
	m = press(m, "enter")
	if m.current.Path != router.PathLogin {
		t.Errorf("expected login, got %s", m.current.Path)
	}
	if len(m.history) != 1 || m.history[0] != router.PathHome {
		t.Errorf("expected home in history, got %v", m.history)
	}
}

func TestModel_ToastsFollowNotifications(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/")

	h.notify.Info("Lots refreshed", "Heads up")
	m, _ = update(m, notificationsMsg{})

	if len(m.toasts) != 1 {
		t.Fatalf("expected one toast, got %d", len(m.toasts))
	}
	view := m.View()
	if !strings.Contains(view, "Lots refreshed") || !strings.Contains(view, "Heads up") {
		t.Errorf("toast not rendered:\n%s", view)
	}
}

func TestModel_CtrlCQuits(t *testing.T) {
	h := newHarness(t, nil)
	m := h.start(t, "/login")

	next, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !next.quitting {
		t.Error("expected quitting")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDescribe(t *testing.T) {
	apiErr := fmt.Errorf("wrapped: %w", &api.APIError{Kind: api.KindServer, Message: "boom"})
	if got := describe(apiErr); got != "boom" {
		t.Errorf("expected API message, got %q", got)
	}
	if got := describe(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("expected plain message, got %q", got)
	}
}
