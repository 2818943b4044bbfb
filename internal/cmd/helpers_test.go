package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/parkspot/internal/app"
	"github.com/felixgeelhaar/parkspot/internal/log"
)

const (
	userToken  = "user-tok"
	adminToken = "admin-tok"
)

// fakeBackend is a parking API with two lots. Lot 1 has spot 11 free and
// spot 12 occupied; lot 2 is full.
type fakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	reserved []int64
	released []int64
	deleted  []int64
	lotInput map[string]any
}

func newBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", b.login("secret", userToken, "user"))
	mux.HandleFunc("POST /api/auth/admin-login", b.login("admin", adminToken, "admin"))
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] == "taken" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Username already exists"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"token": userToken,
			"user":  map[string]any{"id": 8, "username": body["username"], "email": body["email"], "role": "user"},
		})
	})
	mux.HandleFunc("GET /api/user/profile", b.authorized(userToken, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "username": "asha", "email": "asha@example.com", "role": "user"})
	}))

	mux.HandleFunc("GET /api/parking/lots", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"lots": []map[string]any{
			{"id": 1, "name": "Central Plaza", "price": 40, "address": "MG Road", "pin_code": "560001",
				"number_of_spots": 2, "available_spots": 1, "occupied_spots": 1, "is_active": true},
			{"id": 2, "name": "Lake View", "price": "25.5", "address": "Lake Road",
				"number_of_spots": 1, "available_spots": 0, "occupied_spots": 1, "is_active": true},
		}})
	})
	mux.HandleFunc("GET /api/parking/spots/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			writeJSON(w, http.StatusOK, map[string]any{"spots": []map[string]any{
				{"id": 11, "spot_number": "A1", "lot_id": 1, "status": "A"},
				{"id": 12, "spot_number": "A2", "lot_id": 1, "status": "O"},
			}})
		case "2":
			writeJSON(w, http.StatusOK, map[string]any{"spots": []map[string]any{
				{"id": 21, "spot_number": "B1", "lot_id": 2, "status": "O"},
			}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Parking lot not found"})
		}
	})

	mux.HandleFunc("GET /api/user/reservations", b.authorized(userToken, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"reservations": []map[string]any{
			{"id": 4, "spot_id": 21, "user_id": 7, "lot_name": "Lake View",
				"parking_timestamp": "2025-06-01T09:00:00", "leaving_timestamp": "2025-06-01T11:00:00", "parking_cost": "51.00"},
			{"id": 5, "spot_id": 12, "user_id": 7, "lot_name": "Central Plaza",
				"parking_timestamp": "2025-06-02T09:00:00", "parking_cost": 0},
		}})
	}))
	mux.HandleFunc("POST /api/user/reserve", b.authorized(userToken, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.reserved = append(b.reserved, body["spot_id"])
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 6, "spot_id": body["spot_id"], "user_id": 7, "parking_timestamp": "2025-06-03T09:00:00",
		})
	}))
	mux.HandleFunc("POST /api/user/release/{id}", b.authorized(userToken, func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		b.mu.Lock()
		b.released = append(b.released, id)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "released"})
	}))
	mux.HandleFunc("POST /api/user/reservations", b.authorized(userToken, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 9, "spot_id": 11, "spot_number": "A1", "lot_id": body["lot_id"], "user_id": 7,
			"vehicle_number": body["vehicle_number"],
		})
	}))

	mux.HandleFunc("GET /api/admin/dashboard", b.authorized(adminToken, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Welcome, admin", "total_lots": 2, "occupied_spots": 2})
	}))
	mux.HandleFunc("GET /api/admin/parking-lots", b.authorized(adminToken, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "prime_location_name": "Central Plaza", "price_per_hour": 40, "number_of_spots": 2},
		})
	}))
	mux.HandleFunc("POST /api/admin/parking-lots", b.authorized(adminToken, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.lotInput = body
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 3, "prime_location_name": body["prime_location_name"], "price": body["price"],
			"number_of_spots": body["number_of_spots"], "available_spots": body["number_of_spots"], "is_active": true,
		})
	}))
	mux.HandleFunc("DELETE /api/admin/parking-lots/{id}", b.authorized(adminToken, func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if id == 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cannot delete a lot with occupied spots"})
			return
		}
		b.mu.Lock()
		b.deleted = append(b.deleted, id)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	}))

	mux.HandleFunc("GET /api/admin/users", b.authorized(adminToken, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "username": "root", "role": "admin", "is_active": true},
			{"id": 7, "username": "asha", "email": "asha@example.com", "role": "user", "is_active": false,
				"last_login": "2025-06-02T08:30:00"},
		})
	}))
	mux.HandleFunc("GET /api/admin/analytics", b.authorized(adminToken, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"parking_status":  map[string]int{"available": 1, "occupied": 2, "reserved": 0},
			"daily_revenue":   map[string]any{"dates": []string{"06/01", "06/02"}, "amounts": []float64{51, 80}},
			"weekly_revenue":  map[string]any{"weeks": []string{"Week 22"}, "amounts": []float64{131}},
			"lot_utilization": map[string]any{"lot_names": []string{"Central Plaza", "Lake View"}, "utilization_rates": []float64{50, 100}},
			"peak_hours":      map[string]any{"hours": []string{"09:00"}, "occupancy": []int{2}},
			"summary_stats":   map[string]any{"total_completed_reservations": 1, "total_revenue": 51, "average_parking_duration": 2},
		})
	}))
	mux.HandleFunc("GET /api/public/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total_parking_lots": 2, "total_parking_spots": 3, "available_spots": 1,
			"utilization_rate": 66.7, "total_reservations": 2,
		})
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// recorded returns copies of what mutating endpoints received
func (b *fakeBackend) recorded() (reserved, released, deleted []int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.reserved...), append([]int64(nil), b.released...), append([]int64(nil), b.deleted...)
}

func (b *fakeBackend) lastLotInput() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lotInput
}

func (b *fakeBackend) login(password, token, role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != password {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  map[string]any{"id": 7, "username": creds["username"], "role": role},
		})
	}
}

func (b *fakeBackend) authorized(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer " + token:
			next(w, r)
		case "Bearer " + userToken, "Bearer " + adminToken:
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
		case "":
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing token"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token has been revoked"})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// harness runs parkspot commands against a backend with an isolated
// config directory and session file.
type harness struct {
	t           *testing.T
	backend     *fakeBackend
	configDir   string
	sessionFile string
	stdin       string
	interactive bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		t:           t,
		backend:     newBackend(t),
		configDir:   filepath.Join(dir, "config"),
		sessionFile: filepath.Join(dir, "session.json"),
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

func (h *harness) run(args ...string) result {
	h.t.Helper()

	root := NewRootCmd(
		WithConfigDir(h.configDir),
		WithEnvFiles(),
		WithAppOptions(app.WithLogger(log.Nop())),
	)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(h.stdin))

	full := append([]string{}, args...)
	full = append(full,
		"--api-url", h.backend.URL+"/api",
		"--session-file", h.sessionFile,
		"--no-color",
	)
	if !h.interactive {
		full = append(full, "--no-input")
	}
	root.SetArgs(full)

	err := root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (h *harness) mustRun(args ...string) result {
	h.t.Helper()
	res := h.run(args...)
	require.NoError(h.t, res.err, "parkspot %s\nstderr: %s", strings.Join(args, " "), res.stderr)
	return res
}

func (h *harness) loginUser() {
	h.t.Helper()
	h.mustRun("auth", "login", "-u", "asha", "-p", "secret")
}

func (h *harness) loginAdmin() {
	h.t.Helper()
	h.mustRun("auth", "login", "--admin", "-u", "root", "-p", "admin")
}

func decodeJSON[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v), "output: %s", raw)
	return v
}

// stubPrompts replaces the interactive hooks for one test
func stubPrompts(t *testing.T, interactive bool) {
	t.Helper()
	prevShould, prevCreds, prevReg, prevConfirm := shouldPrompt, promptCredentials, promptRegistration, promptConfirmation
	t.Cleanup(func() {
		shouldPrompt, promptCredentials, promptRegistration, promptConfirmation = prevShould, prevCreds, prevReg, prevConfirm
	})
	shouldPrompt = func() bool { return interactive }
}
