package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kjannette/tradejournal/internal/renderer"
	"github.com/kjannette/tradejournal/internal/session"
)

// authFailure unwraps a session error to the message the user should see.
func authFailure(err error) error {
	var ae *session.AuthError
	if errors.As(err, &ae) {
		return errors.New(ae.Message)
	}
	return err
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.Login(cmd.Context(), email, password); err != nil {
				return authFailure(err)
			}
			u := app.session.User()
			fmt.Fprintf(app.out, "logged in as %s <%s>\n", u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignupCmd(app *App) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.Signup(cmd.Context(), name, email, password); err != nil {
				return authFailure(err)
			}
			u := app.session.User()
			fmt.Fprintf(app.out, "account created, logged in as %s <%s>\n", u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(cmd.Context()); err != nil {
				return err
			}
			u := app.session.User()
			return app.show(u, func() string { return renderer.User(u) })
		},
	}
}
