package cli

import (
	"github.com/spf13/cobra"
)

func newHistoricalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "historical [seed]",
		Short: "Run a full historical ingestion from the seed player",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{}
			if len(args) > 0 {
				body["seed"] = args[0]
			}

			var result HistoricalSummary
			if err := client.Post("/api/v1/ingest/historical", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newIncrementalCmd() *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "incremental",
		Short: "Refresh stale players with their recent games",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result IncrementalSummary
			body := map[string]int{"months": months}
			if err := client.Post("/api/v1/ingest/incremental", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&months, "months", 1, "Number of recent months to re-ingest per player")
	return cmd
}
