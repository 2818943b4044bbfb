package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parkspot/internal/api"
	"github.com/felixgeelhaar/parkspot/internal/errors"
	"github.com/felixgeelhaar/parkspot/internal/session"
	"github.com/felixgeelhaar/parkspot/internal/tui"
	"github.com/felixgeelhaar/parkspot/internal/ux"
)

// Prompt hooks, replaced in tests
var (
	shouldPrompt       = tui.ShouldPrompt
	promptCredentials  = tui.PromptCredentials
	promptRegistration = tui.PromptRegistration
	promptConfirmation = tui.PromptForConfirmation
)

func (c *cli) newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign out and manage your account",
		Long: `Manage the session parkspot uses to talk to the parking API.

The session is stored in ~/.parkspot/session.json (mode 0600) and restored
on every run without contacting the server.

Examples:
  # Sign in, prompting for anything missing
  parkspot auth login

  # Sign in as an administrator from a script
  echo "$PASSWORD" | parkspot auth login --admin -u admin --password-stdin

  # Show who is signed in
  parkspot auth status`,
	}

	authCmd.AddCommand(
		c.newLoginCmd(),
		c.newRegisterCmd(),
		c.newLogoutCmd(),
		c.newStatusCmd(),
		c.newWhoamiCmd(),
	)
	return authCmd
}

func (c *cli) newLoginCmd() *cobra.Command {
	var (
		creds         api.Credentials
		admin         bool
		passwordStdin bool
	)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the parking service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				pw, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				creds.Password = pw
			}

			if creds.Username == "" || creds.Password == "" {
				if !c.prompting() {
					return missingInputError("username or password", "username", "password")
				}
				var err error
				if creds, err = promptCredentials(creds, admin); err != nil {
					return err
				}
			}

			if prev := c.app.Session.User(); prev != nil && c.app.Session.IsAuthenticated() {
				c.app.Notify.Info(fmt.Sprintf("Replacing the session of %s", prev.Username), "")
			}

			user, err := c.app.Session.Login(cmd.Context(), creds, admin)
			if err != nil {
				return err
			}
			c.app.Catalog.Reset()
			c.app.Notify.Success(fmt.Sprintf("Welcome back, %s!", user.Username), "Signed in")
			return c.render(cmd, userResult(user))
		},
	}

	loginCmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&creds.Password, "password", "p", "", "account password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	loginCmd.Flags().BoolVar(&admin, "admin", false, "sign in through the administrator endpoint")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return loginCmd
}

func (c *cli) newRegisterCmd() *cobra.Command {
	var (
		reg           api.Registration
		passwordStdin bool
	)

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				pw, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				reg.Password = pw
			}

			if reg.Username == "" || reg.Email == "" || reg.Password == "" {
				if !c.prompting() {
					return missingInputError("username, email or password", "username", "email", "password")
				}
				var err error
				if reg, err = promptRegistration(reg); err != nil {
					return err
				}
			}

			user, err := c.app.Session.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			c.app.Catalog.Reset()
			c.app.Notify.Success(fmt.Sprintf("Account created. Welcome, %s!", user.Username), "Registered")
			return c.render(cmd, userResult(user))
		},
	}

	registerCmd.Flags().StringVarP(&reg.Username, "username", "u", "", "username")
	registerCmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	registerCmd.Flags().StringVarP(&reg.Password, "password", "p", "", "password (prefer --password-stdin)")
	registerCmd.Flags().StringVar(&reg.PhoneNumber, "phone", "", "phone number (optional)")
	registerCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	registerCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return registerCmd
}

func (c *cli) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wasSignedIn := c.app.Session.User() != nil
			if err := c.app.Logout(); err != nil {
				return err
			}
			if !wasSignedIn {
				return c.render(cmd, ux.Message{Text: "Not signed in."})
			}
			return c.render(cmd, ux.Message{Text: "You have been signed out."})
		},
	}
}

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show who is signed in, with which role, and when the token expires.
This reads the session file only; use 'parkspot auth whoami' to ask the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := c.app.Session.Snapshot()
			return c.render(cmd, ux.Result{Data: snap, Text: snapshotDetails(snap, c.cfg.SessionFile)})
		},
	}
}

func (c *cli) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch your profile from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.app.Session.IsAuthenticated() {
				return errors.NewAuthRequiredError()
			}
			ctx, cancel := c.sessionContext(cmd)
			defer cancel()

			user, err := c.app.Client.Profile(ctx)
			if err != nil {
				return err
			}
			return c.render(cmd, userResult(user))
		},
	}
}

func userResult(u *api.User) ux.Result {
	fields := []ux.Field{
		{Label: "Username", Value: u.Username},
		{Label: "Role", Value: u.Role},
	}
	if u.Email != "" {
		fields = append(fields, ux.Field{Label: "Email", Value: u.Email})
	}
	if u.PhoneNumber != "" {
		fields = append(fields, ux.Field{Label: "Phone", Value: u.PhoneNumber})
	}
	if u.CreatedAt != nil {
		fields = append(fields, ux.Field{Label: "Member since", Value: formatTime(u.CreatedAt.Time)})
	}
	return ux.Result{Data: u, Text: &ux.Details{Title: fmt.Sprintf("Signed in as %s", u.Username), Fields: fields}}
}

func snapshotDetails(snap session.Snapshot, path string) *ux.Details {
	if !snap.Authenticated || snap.User == nil {
		return &ux.Details{
			Title:  "Not signed in",
			Fields: []ux.Field{{Label: "Session file", Value: path}},
		}
	}

	expires := "never (opaque token)"
	if snap.ExpiresAt != nil {
		expires = formatTime(*snap.ExpiresAt)
	}
	return &ux.Details{
		Title: "Signed in",
		Fields: []ux.Field{
			{Label: "Username", Value: snap.User.Username},
			{Label: "Role", Value: snap.User.Role},
			{Label: "Expires", Value: expires},
			{Label: "Session file", Value: path},
		},
	}
}

// readSecret reads one line from r without the line ending
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
