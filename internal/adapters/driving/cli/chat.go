package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Manage conversations",
}

var chatResetCmd = &cobra.Command{
	Use:   "reset [chat-id]",
	Short: "Start a fresh conversation",
	Long:  `Opens a fresh chat for the same user. The old chat's log is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runChatReset,
}

func init() {
	chatCmd.AddCommand(chatResetCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChatReset(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	fresh, err := chatService.Reset(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to reset chat: %w", err)
	}

	cmd.Printf("New chat: %s\n", fresh.ID)
	return nil
}
