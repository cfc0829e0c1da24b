package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pollbase "github.com/pollbase/pollbase-go"
	"github.com/pollbase/pollbase-go/pkg/keys"
)

var apikeysCmd = &cobra.Command{
	Use:   "apikeys",
	Short: "Manage API keys",
}

var apikeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys, including revoked ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ks, meta, err := a.client.APIKeys.List(cmd.Context(), listOpts())
		if err != nil {
			return err
		}
		return a.printList(ks, []string{"id", "name", "prefix", "scopes", "revoked_at", "created_at"}, meta)
	},
}

var (
	apikeyName   string
	apikeyScopes []string
)

var apikeysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Issue a new API key",
	Long: `Issue a new API key. The raw key material is printed once to stdout;
only a hash is stored server-side.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.client.APIKeys.Create(cmd.Context(), pollbase.CreateAPIKeyRequest{
			Name:   apikeyName,
			Scopes: apikeyScopes,
		})
		var id string
		if created != nil {
			id = created.ID
		}
		a.recordMutation("apikeys generate", "api_key", id, err)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "API key (shown once):")
		fmt.Printf("%s\n", created.Key)
		return nil
	},
}

var apikeysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Permanently disable an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.client.APIKeys.Revoke(cmd.Context(), args[0])
		a.recordMutation("apikeys revoke", "api_key", args[0], err)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "API key %s revoked\n", args[0])
		return nil
	},
}

var apikeysHashCmd = &cobra.Command{
	Use:   "hash [api-key]",
	Short: "Hash an API key locally for storage in external config",
	Long: `Hash an API key with Argon2id for storage in external systems that
verify keys themselves. No network call is made.

Security note: the key will appear in shell history. Prefer an
environment variable:
  pollbase apikeys hash "$MY_API_KEY"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := keys.Hash(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", hash)
		return nil
	},
}

func init() {
	addListFlags(apikeysListCmd)
	apikeysGenerateCmd.Flags().StringVar(&apikeyName, "name", "", "human-readable key name")
	apikeysGenerateCmd.Flags().StringSliceVar(&apikeyScopes, "scopes", nil, "scopes to grant (comma-separated)")
	_ = apikeysGenerateCmd.MarkFlagRequired("name")

	apikeysCmd.AddCommand(apikeysListCmd, apikeysGenerateCmd, apikeysRevokeCmd, apikeysHashCmd)
	rootCmd.AddCommand(apikeysCmd)
}
