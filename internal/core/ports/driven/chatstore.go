package driven

import (
	"context"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// ChatStore persists chats and their append-only turn logs.
// Only the conversation manager writes to it.
type ChatStore interface {
	// SaveChat stores or updates chat state machine fields.
	SaveChat(ctx context.Context, chat *domain.Chat) error

	// GetChat retrieves a chat by ID, or domain.ErrNotFound.
	GetChat(ctx context.Context, id string) (*domain.Chat, error)

	// LatestChatByUser returns the most recent chat for an external
	// user ID, or domain.ErrNotFound.
	LatestChatByUser(ctx context.Context, userExternalID string) (*domain.Chat, error)

	// AppendTurn appends one immutable turn to a chat's log.
	AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error

	// RecentTurns returns up to n most recent turns for a chat,
	// ordered oldest first.
	RecentTurns(ctx context.Context, chatID string, n int) ([]domain.ConversationTurn, error)
}
