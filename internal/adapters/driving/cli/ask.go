package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetor-labs/praetor/internal/core/ports/driving"
)

var (
	askChatID string
	askUserID string
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the ingested corpus",
	Long: `Asks a legal question and prints the answer with citations into the
ingested documents. When the question is too vague the system replies
with clarification questions instead; answer them with a follow-up ask
using the printed chat ID.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askChatID, "chat", "", "continue an existing chat")
	askCmd.Flags().StringVar(&askUserID, "user", "cli", "external user identifier")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full turn as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	answer, err := chatService.Ask(context.Background(), driving.AskRequest{
		ChatID:         askChatID,
		UserExternalID: askUserID,
		Question:       args[0],
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Answer)

	if len(answer.Citations) > 0 {
		cmd.Println("\nДжерела:")
		for i, c := range answer.Citations {
			title := c.Title
			if title == "" {
				title = c.DocumentURL
			}
			cmd.Printf("  [%d] %s", i+1, title)
			if c.SectionRef != "" {
				cmd.Printf(", %s", c.SectionRef)
			}
			cmd.Printf(" (%.2f)\n      %s\n", c.Score, c.DocumentURL)
		}
	}

	cmd.Printf("\nChat: %s\n", answer.ChatID)
	return nil
}
