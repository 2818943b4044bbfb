package tui

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/parkspot/internal/api"
)

func TestShouldPrompt_DisabledInCI(t *testing.T) {
	for _, env := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "true")
			if ShouldPrompt() {
				t.Errorf("ShouldPrompt() should be false when %s is set", env)
			}
		})
	}
}

func TestPromptCredentials_CompleteInputSkipsPrompt(t *testing.T) {
	in := api.Credentials{Username: "asha", Password: "pw"}
	got, err := PromptCredentials(in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != in {
		t.Errorf("expected %+v, got %+v", in, got)
	}
}

func TestPromptRegistration_CompleteInputSkipsPrompt(t *testing.T) {
	in := api.Registration{Username: "asha", Email: "a@example.com", Password: "pw"}
	got, err := PromptRegistration(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != in {
		t.Errorf("expected %+v, got %+v", in, got)
	}
}

func TestFieldValidation(t *testing.T) {
	if err := required("username")("  "); err == nil || !strings.Contains(err.Error(), "username") {
		t.Errorf("blank username should be rejected, got %v", err)
	}
	if err := required("username")("asha"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []struct {
		email   string
		wantErr bool
	}{
		{"a@example.com", false},
		{"", true},
		{"not-an-email", true},
	}
	for _, tt := range tests {
		if err := validEmail(tt.email); (err != nil) != tt.wantErr {
			t.Errorf("validEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
		}
	}
}
