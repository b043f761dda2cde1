package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [url...]",
	Short: "Fetch and index documents",
	Long: `Fetches each URL, extracts the legal text, chunks and embeds it and
writes it into the local index. URLs are processed independently; one
failure does not stop the rest. Re-ingesting unchanged content is a
no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

type ingestResult struct {
	URL        string `json:"url"`
	DocumentID string `json:"document_id,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	results := make([]ingestResult, 0, len(args))
	failed := 0

	for _, url := range args {
		doc, err := ingestService.Ingest(ctx, url)
		if err != nil {
			failed++
			results = append(results, ingestResult{URL: url, Status: "failed", Error: err.Error()})
			continue
		}
		results = append(results, ingestResult{
			URL:        url,
			DocumentID: doc.ID,
			Status:     string(doc.Status),
		})
	}

	if ingestJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	} else {
		for _, res := range results {
			if res.Error != "" {
				cmd.Printf("  FAIL %s\n       %s\n", res.URL, res.Error)
				continue
			}
			cmd.Printf("  OK   %s\n       document: %s\n", res.URL, res.DocumentID)
		}
		cmd.Printf("\nIngested %d of %d documents.\n", len(args)-failed, len(args))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}
