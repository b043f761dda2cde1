package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and cancel ingestion jobs",
}

var jobStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show job state",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

var jobCancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a queued job",
	Long:  `Cancels a job that has not started yet. Running and finished jobs cannot be cancelled.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobCancel,
}

func init() {
	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobCancelCmd)
	rootCmd.AddCommand(jobCmd)
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	job, err := ingestService.Job(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	cmd.Printf("Job: %s\n\n", job.ID)
	cmd.Printf("  URL:     %s\n", job.URL)
	cmd.Printf("  Status:  %s\n", job.Status)
	if job.DocumentID != "" {
		cmd.Printf("  Document: %s\n", job.DocumentID)
		cmd.Printf("  Chunks:   %d\n", job.ChunksWritten)
		cmd.Printf("  Changed:  %t\n", job.Changed)
	}
	if job.Error != "" {
		cmd.Printf("  Error:   %s\n", job.Error)
	}
	return nil
}

func runJobCancel(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Cancel(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}

	cmd.Printf("Job %s cancelled.\n", args[0])
	return nil
}
