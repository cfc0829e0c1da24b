package cmd

import (
	"github.com/spf13/cobra"

	pollbase "github.com/pollbase/pollbase-go"
)

var electionsCmd = &cobra.Command{
	Use:   "elections",
	Short: "Inspect elections and their results",
}

var electionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List elections",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var elections []pollbase.Election
		var meta *pollbase.PageMeta
		err = a.withCache(cmd.Context(), "elections:list:"+listOpts().Values().Encode(), &elections,
			func() (any, error) {
				es, m, err := a.client.Elections.List(cmd.Context(), listOpts())
				meta = m
				return es, err
			})
		if err != nil {
			return err
		}
		return a.printList(elections, []string{"id", "title", "status", "opens_at", "closes_at"}, meta)
	},
}

var electionsGetCmd = &cobra.Command{
	Use:   "get <election-id>",
	Short: "Show one election",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.client.Elections.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return a.printResult(e)
	},
}

var electionsResultsCmd = &cobra.Command{
	Use:   "results <election-id>",
	Short: "Show tallied results for an election",
	Long: `Show the server-tallied results for an election. Results for an election
that is still open are provisional; finalized elections return the
certified tally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var results pollbase.ElectionResults
		err = a.withCache(cmd.Context(), "elections:results:"+args[0], &results,
			func() (any, error) {
				return a.client.Elections.Results(cmd.Context(), args[0])
			})
		if err != nil {
			return err
		}
		return a.printResult(results)
	},
}

func init() {
	addListFlags(electionsListCmd)

	electionsCmd.AddCommand(electionsListCmd, electionsGetCmd, electionsResultsCmd)
	rootCmd.AddCommand(electionsCmd)
}
