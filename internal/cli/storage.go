package cli

import (
	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Report storage usage against the configured ceilings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result UsageReport
			if err := client.Get("/api/v1/storage/usage", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	var years int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old games and players left without any",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CleanupResult
			body := map[string]int{"max_age_years": years}
			if err := client.Post("/api/v1/storage/cleanup", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&years, "years", 5, "Delete games older than this many years")
	return cmd
}
