package tui

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/parkspot/internal/api"
)

// Form field keys
const (
	fieldUsername = "username"
	fieldPassword = "password"
	fieldEmail    = "email"
	fieldPhone    = "phone"
)

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validEmail(s string) error {
	if err := required("email")(s); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// loginForm asks for credentials. Values are bound to creds so the form
// can be run standalone or embedded in the program.
func loginForm(admin bool, creds *api.Credentials) *huh.Form {
	title := "Sign in"
	if admin {
		title = "Administrator sign in"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key(fieldUsername).
				Title("Username").
				Value(&creds.Username).
				Validate(required("username")),
			huh.NewInput().
				Key(fieldPassword).
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(required("password")),
		).Title(title),
	)
}

// registerForm asks for the fields of a new account
func registerForm(reg *api.Registration) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key(fieldUsername).
				Title("Username").
				Value(&reg.Username).
				Validate(required("username")),
			huh.NewInput().
				Key(fieldEmail).
				Title("Email").
				Value(&reg.Email).
				Validate(validEmail),
			huh.NewInput().
				Key(fieldPhone).
				Title("Phone number").
				Description("Optional").
				Value(&reg.PhoneNumber),
			huh.NewInput().
				Key(fieldPassword).
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&reg.Password).
				Validate(required("password")),
		).Title("Create an account"),
	)
}
