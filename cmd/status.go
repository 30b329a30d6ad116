package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show summary server health and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadSetup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.TimeoutDuration())
		defer cancel()

		health, err := client.HealthStats(ctx)
		if err != nil {
			return fmt.Errorf("reading health stats: %w", err)
		}
		job, err := client.Status(ctx)
		if err != nil {
			return fmt.Errorf("reading job status: %w", err)
		}

		fmt.Printf("Server: %s\n", cfg.ServerURL)
		fmt.Printf("Status: %s\n", health.Status)
		fmt.Printf("Scheduler running: %v\n", health.SchedulerRunning)
		fmt.Printf("Refresh in progress: %v\n", job.IsUpdating)
		fmt.Printf("Requests: %d (%d errors)\n", health.Metrics.TotalRequests, health.Metrics.TotalErrors)
		fmt.Printf("Avg latency: %.1f ms\n", health.Metrics.AvgLatencyMS)
		if health.Metrics.UptimeStart != "" {
			fmt.Printf("Up since: %s\n", health.Metrics.UptimeStart)
		}
		return nil
	},
}
