package cmd

import (
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect platform user accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		users, meta, err := a.client.Users.List(cmd.Context(), listOpts())
		if err != nil {
			return err
		}
		return a.printList(users, []string{"id", "email", "first_name", "last_name", "status"}, meta)
	},
}

func init() {
	addListFlags(usersListCmd)

	usersCmd.AddCommand(usersListCmd)
	rootCmd.AddCommand(usersCmd)
}
