// Package cmd provides the CLI commands for the Pollbase admin tool.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pollbase/pollbase-go/internal/config"
)

var (
	cfgFile     string
	profileFlag string
	outputFlag  string
	filterFlag  string
	cachedFlag  bool
	traceFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "pollbase",
	Short: "Pollbase - elections and forms platform admin CLI",
	Long: `pollbase administers a Pollbase deployment: forms, elections, users,
webhooks, API keys, and result collation.

Quick start:
  1. Point the CLI at your deployment:
       export POLLBASE_API_URL=https://api.pollbase.example
  2. Authenticate: pollbase login --email you@example.org
  3. Explore:      pollbase forms list

Configuration:
  Config is loaded from pollbase.yaml in the current directory,
  $HOME/.pollbase/, or /etc/pollbase/. Environment variables override
  config values with the POLLBASE_ prefix, e.g. POLLBASE_API_URL.

  Named profiles (--profile) target multiple deployments from one
  machine; each profile keeps its own session token.

Output:
  -o json|yaml|table selects the output format. --filter takes a CEL
  expression evaluated per row with the variable "item", e.g.
    pollbase forms list --filter 'item.status == "published"'`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./pollbase.yaml)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "named API target from the profiles section")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format: json, yaml, or table")
	rootCmd.PersistentFlags().StringVar(&filterFlag, "filter", "", "CEL expression filtering list rows (variable: item)")
	rootCmd.PersistentFlags().BoolVar(&cachedFlag, "cached", false, "serve repeat reads from the local response cache")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "emit a span per API round trip to stderr")
}

func initConfig() {
	config.InitViper(cfgFile)
}
