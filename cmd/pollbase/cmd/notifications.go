package cmd

import (
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Read the current user's notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ns, meta, err := a.client.Notifications.List(cmd.Context(), listOpts())
		if err != nil {
			return err
		}
		return a.printList(ns, []string{"id", "type", "title", "read", "created_at"}, meta)
	},
}

func init() {
	addListFlags(notificationsListCmd)

	notificationsCmd.AddCommand(notificationsListCmd)
	rootCmd.AddCommand(notificationsCmd)
}
