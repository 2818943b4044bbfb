//go:build e2e
// +build e2e

package e2e

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// backend answers the handful of endpoints the workflow below touches
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		w.Header().Set("Content-Type", "application/json")
		if creds["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"e2e-token","user":{"id":1,"username":"asha","role":"user"}}`))
	})
	mux.HandleFunc("GET /api/parking/lots", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"lots":[{"id":1,"name":"Central Plaza","price":40,"number_of_spots":2,"available_spots":2}]}`))
	})
	mux.HandleFunc("GET /api/user/reservations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer e2e-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Missing token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"reservations":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestCompleteWorkflow drives the built binary through sign-in, browsing
// and the exit codes scripts depend on.
func TestCompleteWorkflow(t *testing.T) {
	// Get project root directory (two levels up from test/e2e)
	projectRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}

	binDir := t.TempDir()
	parkspotBin := filepath.Join(binDir, "parkspot")

	// Build the parkspot binary first
	buildCmd := exec.Command("go", "build", "-o", parkspotBin, "./cmd/parkspot")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build parkspot: %v\n%s", err, output)
	}

	srv := backend(t)

	// The working directory's .env points the client at the test backend
	workDir := t.TempDir()
	home := t.TempDir()
	env := "PARKSPOT_API_URL=" + srv.URL + "/api\nPARKSPOT_SESSION_FILE=" + filepath.Join(home, "session.json") + "\n"
	if err := os.WriteFile(filepath.Join(workDir, ".env"), []byte(env), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	run := func(args ...string) (string, int) {
		t.Helper()
		cmd := exec.Command(parkspotBin, append(args, "--no-input")...)
		cmd.Dir = workDir
		cmd.Env = append(os.Environ(), "HOME="+home, "NO_COLOR=1")
		out, err := cmd.CombinedOutput()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			return string(out), 0
		case errors.As(err, &exitErr):
			return string(out), exitErr.ExitCode()
		default:
			t.Fatalf("Failed to run parkspot %v: %v", args, err)
			return "", -1
		}
	}

	t.Run("version", func(t *testing.T) {
		out, code := run("version", "--short")
		if code != 0 || !strings.HasPrefix(out, "parkspot ") {
			t.Errorf("version --short = %q (exit %d)", out, code)
		}
	})

	t.Run("lots", func(t *testing.T) {
		out, code := run("lots", "list", "--format", "json")
		if code != 0 {
			t.Fatalf("lots list failed (exit %d): %s", code, out)
		}
		var lots []map[string]interface{}
		if err := json.Unmarshal([]byte(out), &lots); err != nil {
			t.Fatalf("lots list is not JSON: %v\n%s", err, out)
		}
		if len(lots) != 1 || lots[0]["name"] != "Central Plaza" {
			t.Errorf("unexpected lots: %v", lots)
		}
	})

	t.Run("signed out", func(t *testing.T) {
		out, code := run("reservations", "list")
		if code != 5 {
			t.Errorf("expected exit 5 without a session, got %d: %s", code, out)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		out, code := run("auth", "login", "-u", "asha", "-p", "nope")
		if code != 5 {
			t.Errorf("expected exit 5, got %d: %s", code, out)
		}
		if !strings.Contains(out, "AUTH-001") {
			t.Errorf("expected error code in output: %s", out)
		}
	})

	t.Run("session survives restarts", func(t *testing.T) {
		if out, code := run("auth", "login", "-u", "asha", "-p", "secret"); code != 0 {
			t.Fatalf("login failed (exit %d): %s", code, out)
		}
		out, code := run("reservations", "list")
		if code != 0 {
			t.Fatalf("reservations list failed (exit %d): %s", code, out)
		}
		if !strings.Contains(out, "You have no reservations") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("usage errors", func(t *testing.T) {
		if out, code := run("route", "/nowhere"); code != 2 {
			t.Errorf("expected exit 2 for an unknown route, got %d: %s", code, out)
		}
		if out, code := run("release", "abc"); code != 2 {
			t.Errorf("expected exit 2 for a bad id, got %d: %s", code, out)
		}
	})
}
