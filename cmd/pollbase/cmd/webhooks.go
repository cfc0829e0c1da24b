package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pollbase "github.com/pollbase/pollbase-go"
)

var webhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "Manage event delivery targets",
}

var webhooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered webhooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		hooks, meta, err := a.client.Webhooks.List(cmd.Context(), listOpts())
		if err != nil {
			return err
		}
		return a.printList(hooks, []string{"id", "url", "events", "active"}, meta)
	},
}

var (
	webhookURL    string
	webhookEvents []string
)

var webhooksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a webhook",
	Long: `Register a webhook for the given events. The signing secret is printed
once and cannot be retrieved later; rotate it with "webhooks secret" if
it is lost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		hook, secret, err := a.client.Webhooks.Create(cmd.Context(), pollbase.CreateWebhookRequest{
			URL:    webhookURL,
			Events: webhookEvents,
		})
		var id string
		if hook != nil {
			id = hook.ID
		}
		a.recordMutation("webhooks create", "webhook", id, err)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Signing secret (shown once): %s\n", secret.Secret)
		return a.printResult(hook)
	},
}

var webhooksDeleteCmd = &cobra.Command{
	Use:   "delete <webhook-id>",
	Short: "Unregister a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.client.Webhooks.Delete(cmd.Context(), args[0])
		a.recordMutation("webhooks delete", "webhook", args[0], err)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Webhook %s deleted\n", args[0])
		return nil
	},
}

var webhooksSecretCmd = &cobra.Command{
	Use:   "secret <webhook-id>",
	Short: "Rotate a webhook's signing secret",
	Long: `Rotate the signing secret for a webhook and print the new one. In-flight
deliveries signed with the old secret may still arrive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		secret, err := a.client.Webhooks.RotateSecret(cmd.Context(), args[0])
		a.recordMutation("webhooks secret", "webhook", args[0], err)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", secret.Secret)
		return nil
	},
}

func init() {
	addListFlags(webhooksListCmd)
	webhooksCreateCmd.Flags().StringVar(&webhookURL, "url", "", "delivery target URL")
	webhooksCreateCmd.Flags().StringSliceVar(&webhookEvents, "events", nil, "events to subscribe to (comma-separated)")
	_ = webhooksCreateCmd.MarkFlagRequired("url")
	_ = webhooksCreateCmd.MarkFlagRequired("events")

	webhooksCmd.AddCommand(webhooksListCmd, webhooksCreateCmd, webhooksDeleteCmd, webhooksSecretCmd)
	rootCmd.AddCommand(webhooksCmd)
}
