package driving

import (
	"context"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// AskRequest is one inbound user message.
type AskRequest struct {
	// ChatID continues an existing conversation. When empty, the latest
	// chat for UserExternalID is reused, or a fresh chat is opened.
	ChatID string

	// UserExternalID is the caller's user key (e.g. a messenger user ID).
	UserExternalID string

	// Question is the user message text.
	Question string

	// MaxCitations caps the evidence set. Zero means the default.
	MaxCitations int
}

// ChatAnswer is the outcome of one conversational turn.
type ChatAnswer struct {
	ChatID       string
	Answer       string
	Citations    []domain.Citation
	NeedMoreInfo bool
	Questions    []string
}

// Conversationalist is the per-chat state machine: it tracks history,
// decides need_more_info, asks bounded clarification questions and
// merges the answers back into context.
type Conversationalist interface {
	// Ask processes one user message and appends exactly one turn.
	Ask(ctx context.Context, req AskRequest) (*ChatAnswer, error)

	// Reset opens a fresh chat for the same user, equivalent to a
	// /newchat command. The old chat's log remains as audit trail.
	Reset(ctx context.Context, chatID string) (*domain.Chat, error)
}
