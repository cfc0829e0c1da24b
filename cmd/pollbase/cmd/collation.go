package cmd

import (
	"github.com/spf13/cobra"

	pollbase "github.com/pollbase/pollbase-go"
)

var collationCmd = &cobra.Command{
	Use:   "collation",
	Short: "Track result collation progress",
}

var collationStatusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Summarize reporting progress for a collation session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var status pollbase.CollationStatus
		err = a.withCache(cmd.Context(), "collation:status:"+args[0], &status,
			func() (any, error) {
				return a.client.Collation.Status(cmd.Context(), args[0])
			})
		if err != nil {
			return err
		}
		return a.printResult(status)
	},
}

func init() {
	collationCmd.AddCommand(collationStatusCmd)
	rootCmd.AddCommand(collationCmd)
}
