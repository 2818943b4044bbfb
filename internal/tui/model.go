// Package tui is the full-screen parking client. Every screen change goes
// through the router, so the navigation guard applies exactly as it does
// for `parkspot route`.
package tui

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/log"
	"github.com/felixgeelhaar/parkspot/internal/notify"
	"github.com/felixgeelhaar/parkspot/internal/router"
)

// View names from the route table
const (
	viewHome         = "home"
	viewLogin        = "login"
	viewAdminLogin   = "admin-login"
	viewRegister     = "register"
	viewLots         = "lots"
	viewLot          = "lot"
	viewDashboard    = "dashboard"
	viewReservations = "reservations"
	viewAdmin        = "admin"
	viewAdminLots    = "admin-lots"
)

// Session is the part of the session store the UI drives
type Session interface {
	router.SessionState
	User() *api.User
	Login(ctx context.Context, creds api.Credentials, isAdmin bool) (*api.User, error)
	Register(ctx context.Context, reg api.Registration) (*api.User, error)
	Logout() error
	Context(parent context.Context) (context.Context, context.CancelFunc)
}

// Catalog is the parking state the user screens read and mutate
type Catalog interface {
	FetchLots(ctx context.Context) ([]api.ParkingLot, error)
	FetchSpots(ctx context.Context, lotID int64) ([]api.ParkingSpot, error)
	FindLot(ref string) (api.ParkingLot, bool)
	FetchReservations(ctx context.Context) ([]api.Reservation, error)
	Reserve(ctx context.Context, spotID int64) (*api.Reservation, error)
	Release(ctx context.Context, reservationID int64) error
	Reset()
}

// Admin is the administrator API surface
type Admin interface {
	AdminDashboard(ctx context.Context) (api.Dashboard, error)
	AdminParkingLots(ctx context.Context) ([]api.ParkingLot, error)
	DeleteParkingLot(ctx context.Context, id int64) error
}

// Deps are the application objects the UI works with
type Deps struct {
	Session Session
	Catalog Catalog
	Admin   Admin
	Router  *router.Router
	Notify  *notify.Store
	Logger  *log.Logger
}

// Model represents the TUI application state
type Model struct {
	ctx    context.Context
	deps   Deps
	styles Styles

	// Navigation state
	current router.Match
	history []string
	// pendingPath is where a guest was headed before being sent to sign in
	pendingPath string

	// Screen state. seq counts screen entries; a load or action result
	// carrying an older seq belongs to a screen the user has left.
	seq          uint64
	loading      bool
	menu         []link
	cursor       int
	table        table.Model
	rowIDs       []int64
	form         *huh.Form
	creds        *api.Credentials
	reg          *api.Registration
	lot          api.ParkingLot
	spots        []api.ParkingSpot
	reservations []api.Reservation
	dashboard    api.Dashboard

	toasts   []notify.Notification
	spinner  spinner.Model
	help     help.Model
	fullHelp bool

	width    int
	height   int
	quitting bool
}

type link struct {
	label string
	path  string
}

// Messages

type navigateMsg struct {
	path string
	push bool
}

// notificationsMsg says the notification queue changed
type notificationsMsg struct{}

type lotsMsg struct {
	seq  uint64
	lots []api.ParkingLot
	err  error
}

type adminLotsMsg struct {
	seq  uint64
	lots []api.ParkingLot
	err  error
}

type spotsMsg struct {
	seq   uint64
	lot   api.ParkingLot
	spots []api.ParkingSpot
	err   error
}

type reservationsMsg struct {
	seq          uint64
	reservations []api.Reservation
	err          error
}

type dashboardMsg struct {
	seq       uint64
	dashboard api.Dashboard
	err       error
}

type authMsg struct {
	user *api.User
	err  error
}

type actionMsg struct {
	seq     uint64
	title   string
	message string
	err     error
}

// NewModel creates a model that starts at startPath
func NewModel(ctx context.Context, deps Deps, startPath string) Model {
	if deps.Logger == nil {
		deps.Logger = log.Nop()
	}
	if startPath == "" {
		startPath = router.PathHome
	}

	t := table.New(table.WithFocused(true), table.WithHeight(10))

	return Model{
		ctx:     ctx,
		deps:    deps,
		styles:  DefaultStyles(),
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		current: router.Match{Path: startPath},
	}
}

// Init navigates to the start path (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return navigateTo(m.current.Path, false)
}

func navigateTo(path string, push bool) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{path: path, push: push}
	}
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case notificationsMsg:
		m.toasts = m.deps.Notify.List()
		return m, nil

	case navigateMsg:
		return m.navigate(msg.path, msg.push)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case lotsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err, "Could not load parking lots")
		}
		m.setLotRows(msg.lots)
		return m, nil

	case adminLotsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err, "Could not load parking lots")
		}
		m.setLotRows(msg.lots)
		return m, nil

	case spotsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err, "Could not load spots")
		}
		m.lot = msg.lot
		m.spots = msg.spots
		m.setSpotRows(msg.spots)
		return m, nil

	case reservationsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err, "Could not load reservations")
		}
		m.reservations = msg.reservations
		m.setReservationRows(msg.reservations)
		return m, nil

	case dashboardMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err, "Could not load dashboard")
		}
		m.dashboard = msg.dashboard
		return m, nil

	case authMsg:
		return m.authenticated(msg)

	case actionMsg:
		// The action happened even when the user has moved on; only the
		// screen that started it is reloaded.
		stale := msg.seq != m.seq
		if !stale {
			m.loading = false
		}
		if msg.err != nil {
			return m.fail(msg.err, msg.title)
		}
		m.deps.Notify.Success(msg.message, msg.title)
		if stale {
			return m, nil
		}
		return m.enter()
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeyPress(msg)
	}
	return m, nil
}

// navigate runs the guard and switches to the screen it allows
func (m Model) navigate(path string, push bool) (tea.Model, tea.Cmd) {
	wasAuthenticated := m.deps.Session.IsAuthenticated()

	nav, err := m.deps.Router.Navigate(path)
	if err != nil {
		m.deps.Notify.Error(describe(err), "Navigation failed")
		return m, nil
	}

	if nav.Redirected() {
		m.deps.Logger.Debug("ui navigation redirected", "from", nav.From.Path, "to", nav.To.Path)
		if nav.From.Route.Meta.RequiresAuth && !wasAuthenticated {
			m.pendingPath = nav.From.Path
			m.deps.Notify.Warning("Please sign in to continue", "")
		}
	}

	if push && m.current.Route.Name != "" && m.current.Path != nav.To.Path {
		m.history = append(m.history, m.current.Path)
	}
	m.current = nav.To
	return m.enter()
}

// enter prepares the current screen and starts its data load
func (m Model) enter() (tea.Model, tea.Cmd) {
	m.seq++
	m.form = nil
	m.loading = false
	m.cursor = 0

	var load tea.Cmd
	switch m.current.Route.View {
	case viewHome:
		m.menu = m.homeMenu()
		return m, nil

	case viewLogin, viewAdminLogin:
		m.creds = &api.Credentials{}
		m.form = loginForm(m.current.Route.View == viewAdminLogin, m.creds)
		return m, m.form.Init()

	case viewRegister:
		m.reg = &api.Registration{}
		m.form = registerForm(m.reg)
		return m, m.form.Init()

	case viewLots:
		load = m.fetchLots()
	case viewLot:
		load = m.fetchLot(m.current.Param("id"))
	case viewDashboard, viewReservations:
		load = m.fetchReservations()
	case viewAdmin:
		load = m.fetchDashboard()
	case viewAdminLots:
		load = m.fetchAdminLots()
	default:
		return m, nil
	}

	m.loading = true
	return m, tea.Batch(m.spinner.Tick, load)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.form = nil
		return m.back()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.submit())
	case huh.StateAborted:
		m.form = nil
		return m.back()
	}
	return m, cmd
}

// submit sends the completed sign-in or registration form
func (m Model) submit() tea.Cmd {
	ctx := m.ctx
	session := m.deps.Session

	switch m.current.Route.View {
	case viewRegister:
		reg := *m.reg
		return func() tea.Msg {
			user, err := session.Register(ctx, reg)
			return authMsg{user: user, err: err}
		}
	default:
		creds := *m.creds
		admin := m.current.Route.View == viewAdminLogin
		return func() tea.Msg {
			user, err := session.Login(ctx, creds, admin)
			return authMsg{user: user, err: err}
		}
	}
}

func (m Model) authenticated(msg authMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		if api.IsKind(msg.err, api.KindAuth) {
			m.deps.Notify.Error("Invalid username or password", "Sign in failed")
		} else {
			m.deps.Notify.Error(describe(msg.err), "Sign in failed")
		}
		return m.enter()
	}

	name := msg.user.Username
	if m.current.Route.View == viewRegister {
		m.deps.Notify.Success("Account created. Welcome, "+name+"!", "")
	} else {
		m.deps.Notify.Success("Welcome back, "+name+"!", "")
	}

	target := router.RoleHome(msg.user.Role)
	if m.pendingPath != "" {
		target, m.pendingPath = m.pendingPath, ""
	}
	m.history = nil
	return m.navigate(target, false)
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.deps.Session.Logout(); err != nil {
		m.deps.Notify.Error(describe(err), "Sign out failed")
	} else {
		m.deps.Notify.Success("You have been signed out", "")
	}
	m.deps.Catalog.Reset()
	m.history = nil
	m.pendingPath = ""
	return m.navigate(router.PathHome, false)
}

func (m Model) back() (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		if m.current.Path == router.PathHome {
			return m, nil
		}
		return m.navigate(router.PathHome, false)
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m.navigate(prev, false)
}

// fail surfaces an error through the notification store. A rejected
// token ends the local session.
func (m Model) fail(err error, title string) (tea.Model, tea.Cmd) {
	if stderrors.Is(err, context.Canceled) {
		return m, nil
	}
	m.deps.Notify.Error(describe(err), title)
	m.deps.Logger.LogError(title, err)

	if api.IsKind(err, api.KindAuth) && m.deps.Session.IsAuthenticated() {
		return m.logout()
	}
	return m, nil
}

// handleKeyPress handles keyboard input outside of forms
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.fullHelp = !m.fullHelp
		m.help.ShowAll = m.fullHelp
		return m, nil
	case key.Matches(msg, keys.Back):
		return m.back()
	case key.Matches(msg, keys.Home):
		return m.navigate(router.PathHome, true)
	case key.Matches(msg, keys.Refresh):
		return m.enter()
	case key.Matches(msg, keys.Logout):
		if m.deps.Session.IsAuthenticated() {
			return m.logout()
		}
		return m, nil
	}

	if m.loading {
		return m, nil
	}

	switch m.current.Route.View {
	case viewHome:
		return m.handleMenuKey(msg)
	case viewLots, viewAdminLots:
		if key.Matches(msg, keys.Open) {
			if id, ok := m.selectedID(); ok {
				return m.navigate("/lots/"+strconv.FormatInt(id, 10), true)
			}
			return m, nil
		}
		if m.current.Route.View == viewAdminLots && key.Matches(msg, keys.Delete) {
			if id, ok := m.selectedID(); ok {
				m.loading = true
				return m, tea.Batch(m.spinner.Tick, m.deleteLot(id))
			}
			return m, nil
		}
	case viewLot:
		if key.Matches(msg, keys.Open) {
			return m.reserveSelected()
		}
	case viewDashboard, viewReservations:
		if key.Matches(msg, keys.Release) {
			return m.releaseSelected()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.menu)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Open):
		if m.cursor < len(m.menu) {
			return m.navigate(m.menu[m.cursor].path, true)
		}
	}
	return m, nil
}

func (m Model) homeMenu() []link {
	if !m.deps.Session.IsAuthenticated() {
		return []link{
			{label: "Browse parking lots", path: router.PathLots},
			{label: "Sign in", path: router.PathLogin},
			{label: "Create an account", path: router.PathRegister},
			{label: "Administrator sign in", path: router.PathAdminLogin},
		}
	}
	if m.deps.Session.Role() == api.RoleAdmin {
		return []link{
			{label: "Admin dashboard", path: router.PathAdminDashboard},
			{label: "Manage parking lots", path: router.PathAdminLots},
			{label: "Browse parking lots", path: router.PathLots},
		}
	}
	return []link{
		{label: "My dashboard", path: router.PathDashboard},
		{label: "Browse parking lots", path: router.PathLots},
		{label: "My reservations", path: router.PathReservations},
	}
}

func (m Model) selectedID() (int64, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rowIDs) {
		return 0, false
	}
	return m.rowIDs[i], true
}

func (m Model) reserveSelected() (tea.Model, tea.Cmd) {
	id, ok := m.selectedID()
	if !ok {
		return m, nil
	}
	if !m.deps.Session.IsAuthenticated() {
		m.pendingPath = m.current.Path
		m.deps.Notify.Info("Sign in to reserve a spot", "")
		return m.navigate(router.PathLogin, true)
	}
	for _, s := range m.spots {
		if s.ID == id && s.Status == api.SpotOccupied {
			m.deps.Notify.Warning("That spot is already taken", "")
			return m, nil
		}
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.reserve(id))
}

func (m Model) releaseSelected() (tea.Model, tea.Cmd) {
	id, ok := m.selectedID()
	if !ok {
		return m, nil
	}
	for _, r := range m.reservations {
		if r.ID == id && !r.Active() {
			m.deps.Notify.Info("That reservation has already ended", "")
			return m, nil
		}
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.release(id))
}

// describe picks the message a user should see for err
func describe(err error) string {
	var apiErr *api.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Message
	}
	var pe *errors.ParkError
	if stderrors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
