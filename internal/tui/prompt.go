package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/progress"
)

// ciMarkers are environment variables set by common CI runners
var ciMarkers = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"}

// ShouldPrompt reports whether the one-shot commands may open a form:
// stdin must be a terminal and no CI runner may be detected.
func ShouldPrompt() bool {
	for _, name := range ciMarkers {
		if os.Getenv(name) != "" {
			return false
		}
	}
	return progress.IsTerminal(os.Stdin)
}

// runForm runs f and turns Ctrl+C into context.Canceled so the
// binary exits as interrupted.
func runForm(f *huh.Form) error {
	err := f.WithTheme(huh.ThemeCharm()).Run()
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, huh.ErrUserAborted):
		return fmt.Errorf("prompt aborted: %w", context.Canceled)
	default:
		return fmt.Errorf("prompt failed: %w", err)
	}
}

// PromptCredentials asks for the username and password when either is
// missing. Values already in creds are prefilled.
func PromptCredentials(creds api.Credentials, admin bool) (api.Credentials, error) {
	if creds.Username != "" && creds.Password != "" {
		return creds, nil
	}
	if err := runForm(loginForm(admin, &creds)); err != nil {
		return api.Credentials{}, err
	}
	return creds, nil
}

// PromptRegistration asks for the account fields that are missing
func PromptRegistration(reg api.Registration) (api.Registration, error) {
	if reg.Username != "" && reg.Email != "" && reg.Password != "" {
		return reg, nil
	}
	if err := runForm(registerForm(&reg)); err != nil {
		return api.Registration{}, err
	}
	return reg, nil
}

// PromptForConfirmation asks a yes/no question, e.g. before deleting a lot
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	answer := defaultValue
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Affirmative("Yes").
			Negative("No").
			Value(&answer),
	))
	if err := runForm(form); err != nil {
		return false, err
	}
	return answer, nil
}
