package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "chessgraph",
		Short: "CLI tool for the chess social graph API",
		Long: `chessgraph is a CLI tool for interacting with the chess social graph
JSON API.

It drives ingestion runs, storage maintenance and shortest-path queries
against a running server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: CHESSGRAPH_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	rootCmd.AddCommand(newHistoricalCmd())
	rootCmd.AddCommand(newIncrementalCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newMetadataCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
