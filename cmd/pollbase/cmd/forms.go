package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	pollbase "github.com/pollbase/pollbase-go"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Inspect and export data-collection forms",
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List forms",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var forms []pollbase.Form
		var meta *pollbase.PageMeta
		err = a.withCache(cmd.Context(), "forms:list:"+listOpts().Values().Encode(), &forms,
			func() (any, error) {
				fs, m, err := a.client.Forms.List(cmd.Context(), listOpts())
				meta = m
				return fs, err
			})
		if err != nil {
			return err
		}
		return a.printList(forms, []string{"id", "title", "status", "response_count"}, meta)
	},
}

var formsGetCmd = &cobra.Command{
	Use:   "get <form-id>",
	Short: "Show one form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		form, err := a.client.Forms.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return a.printResult(form)
	},
}

var formsResponsesCmd = &cobra.Command{
	Use:   "responses <form-id>",
	Short: "List responses submitted to a form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		responses, meta, err := a.client.Forms.Responses(cmd.Context(), args[0], listOpts())
		if err != nil {
			return err
		}
		return a.printList(responses, []string{"id", "submitted_by", "submitted_at"}, meta)
	},
}

var formsExportFormat string

var formsExportCmd = &cobra.Command{
	Use:   "export <form-id>",
	Short: "Request a response export and print the download link",
	Long: `Request a server-side export of a form's responses. The server prepares
the file and returns a signed, time-limited download URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.client.Forms.Export(cmd.Context(), args[0], formsExportFormat)
		a.recordMutation("forms export", "form", args[0], err)
		if err != nil {
			return err
		}
		if a.outputFormat() == "table" {
			fmt.Printf("%s\n", res.URL)
			fmt.Printf("expires: %s\n", res.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		}
		return a.printResult(res)
	},
}

func init() {
	addListFlags(formsListCmd)
	addListFlags(formsResponsesCmd)
	formsExportCmd.Flags().StringVar(&formsExportFormat, "format", "csv", "export format: csv, xlsx, or json")

	formsCmd.AddCommand(formsListCmd, formsGetCmd, formsResponsesCmd, formsExportCmd)
	rootCmd.AddCommand(formsCmd)
}
