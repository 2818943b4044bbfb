package version

import (
	"runtime"
	"strings"
	"testing"
)

func withBuild(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = v, commit, date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})
}

func TestGetInfo(t *testing.T) {
	withBuild(t, "1.2.0", "abc123def456", "2025-06-01T12:00:00Z")

	info := GetInfo()

	if info.Version != "1.2.0" {
		t.Errorf("GetInfo().Version = %v, want 1.2.0", info.Version)
	}
	if info.Commit != "abc123def456" {
		t.Errorf("GetInfo().Commit = %v, want abc123def456", info.Commit)
	}
	if info.Date != "2025-06-01T12:00:00Z" {
		t.Errorf("GetInfo().Date = %v", info.Date)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GetInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("GetInfo().Platform = %v, want %v", info.Platform, want)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "1.2.0",
		Commit:    "abc123def456",
		Date:      "2025-06-01",
		GoVersion: "go1.24.0",
		Platform:  "linux/amd64",
	}

	got := info.String()
	for _, want := range []string{"Parkspot", "1.2.0", "(abc123de)", "2025-06-01", "go1.24.0", "linux/amd64"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "abc123def456") {
		t.Errorf("String() should shorten the commit, got %q", got)
	}
}

func TestShortCommit(t *testing.T) {
	tests := map[string]string{
		"abc123def456": "abc123de",
		"abc":          "abc",
		"":             "",
	}
	for commit, want := range tests {
		if got := (Info{Commit: commit}).ShortCommit(); got != want {
			t.Errorf("ShortCommit(%q) = %q, want %q", commit, got, want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "1.2.0", "x", "y")

	if got := UserAgent(); !strings.HasPrefix(got, "parkspot/1.2.0 (") {
		t.Errorf("UserAgent() = %q", got)
	}
}
