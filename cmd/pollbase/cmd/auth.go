package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store a session token",
	Long: `Authenticate with email and password. The session token is stored in the
credentials file under the active profile and refreshed automatically by
later commands.

The password is read from --password or the POLLBASE_PASSWORD environment
variable. Prefer the environment variable; flags end up in shell history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		password := loginPassword
		if password == "" {
			password = os.Getenv("POLLBASE_PASSWORD")
		}
		if password == "" {
			return errors.New("no password: pass --password or set POLLBASE_PASSWORD")
		}

		user, err := a.client.Auth.Login(cmd.Context(), loginEmail, password)
		a.recordMutation("login", "session", "", err)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Logged in as %s (profile %s)\n", user.Email, a.profile)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the session and clear the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.client.Auth.Logout(cmd.Context())
		a.recordMutation("logout", "session", "", err)
		if err != nil {
			// The local token is cleared regardless; tell the operator the
			// server-side call failed but don't leave them "logged in".
			fmt.Fprintf(os.Stderr, "Warning: server logout failed (%v); local session cleared\n", err)
			return nil
		}
		fmt.Fprintf(os.Stderr, "Logged out (profile %s)\n", a.profile)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account the current session belongs to",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.client.Auth.Me(cmd.Context())
		if err != nil {
			return err
		}
		return a.printResult(user)
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prefer POLLBASE_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
