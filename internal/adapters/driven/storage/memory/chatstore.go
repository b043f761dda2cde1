package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// ChatStore is an in-memory implementation of driven.ChatStore.
type ChatStore struct {
	mu    sync.RWMutex
	chats map[string]*domain.Chat
	turns map[string][]domain.ConversationTurn // append-only per chat
}

var _ driven.ChatStore = (*ChatStore)(nil)

// NewChatStore creates an empty in-memory chat store.
func NewChatStore() *ChatStore {
	return &ChatStore{
		chats: make(map[string]*domain.Chat),
		turns: make(map[string][]domain.ConversationTurn),
	}
}

// SaveChat stores or updates chat state machine fields.
func (s *ChatStore) SaveChat(_ context.Context, chat *domain.Chat) error {
	if chat.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now

	stored := *chat
	s.chats[chat.ID] = &stored
	return nil
}

// GetChat retrieves a chat by ID.
func (s *ChatStore) GetChat(_ context.Context, id string) (*domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *chat
	return &cp, nil
}

// LatestChatByUser returns the most recent chat for an external user ID.
func (s *ChatStore) LatestChatByUser(_ context.Context, userExternalID string) (*domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Chat
	for _, chat := range s.chats {
		if chat.UserExternalID != userExternalID {
			continue
		}
		if latest == nil || chat.UpdatedAt.After(latest.UpdatedAt) {
			latest = chat
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// AppendTurn appends one immutable turn to a chat's log.
func (s *ChatStore) AppendTurn(_ context.Context, turn *domain.ConversationTurn) error {
	if turn.ChatID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	s.turns[turn.ChatID] = append(s.turns[turn.ChatID], *turn)
	return nil
}

// RecentTurns returns up to n most recent turns for a chat, oldest first.
func (s *ChatStore) RecentTurns(_ context.Context, chatID string, n int) ([]domain.ConversationTurn, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[chatID]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]domain.ConversationTurn, len(all))
	copy(out, all)
	return out, nil
}
