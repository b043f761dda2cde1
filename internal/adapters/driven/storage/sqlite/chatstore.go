package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// chatStore implements driven.ChatStore.
type chatStore struct {
	store *Store
}

var _ driven.ChatStore = (*chatStore)(nil)

// SaveChat stores or updates chat state machine fields.
func (s *chatStore) SaveChat(ctx context.Context, chat *domain.Chat) error {
	if chat.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_external_id, state, pending_question, clarification_rounds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_external_id = excluded.user_external_id,
			state = excluded.state,
			pending_question = excluded.pending_question,
			clarification_rounds = excluded.clarification_rounds,
			updated_at = excluded.updated_at
	`, chat.ID, chat.UserExternalID, string(chat.State), chat.PendingQuestion,
		chat.ClarificationRounds, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving chat: %w", err)
	}
	return nil
}

// GetChat retrieves a chat by ID.
func (s *chatStore) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_external_id, state, pending_question, clarification_rounds, created_at, updated_at
		FROM chats WHERE id = ?
	`, id)
	return scanChat(row)
}

// LatestChatByUser returns the most recent chat for an external user ID.
func (s *chatStore) LatestChatByUser(ctx context.Context, userExternalID string) (*domain.Chat, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_external_id, state, pending_question, clarification_rounds, created_at, updated_at
		FROM chats WHERE user_external_id = ?
		ORDER BY updated_at DESC, created_at DESC LIMIT 1
	`, userExternalID)
	return scanChat(row)
}

// AppendTurn appends one immutable turn to a chat's log.
func (s *chatStore) AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	if turn.ChatID == "" {
		return domain.ErrInvalidInput
	}
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	citationsJSON, err := json.Marshal(turn.Citations)
	if err != nil {
		return fmt.Errorf("marshalling citations: %w", err)
	}
	questionsJSON, err := json.Marshal(turn.ClarificationQuestions)
	if err != nil {
		return fmt.Errorf("marshalling clarification questions: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (id, chat_id, question, answer, citations, need_more_info, clarification_questions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, turn.ID, turn.ChatID, turn.Question, turn.Answer, string(citationsJSON),
		turn.NeedMoreInfo, string(questionsJSON), turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to n most recent turns for a chat, ordered
// oldest first.
func (s *chatStore) RecentTurns(ctx context.Context, chatID string, n int) ([]domain.ConversationTurn, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, chat_id, question, answer, citations, need_more_info, clarification_questions, created_at
		FROM conversation_turns WHERE chat_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?
	`, chatID, n)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.ConversationTurn
		var citationsJSON, questionsJSON string
		if err := rows.Scan(&turn.ID, &turn.ChatID, &turn.Question, &turn.Answer,
			&citationsJSON, &turn.NeedMoreInfo, &questionsJSON, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}

		if err := json.Unmarshal([]byte(citationsJSON), &turn.Citations); err != nil {
			return nil, fmt.Errorf("unmarshalling citations: %w", err)
		}
		if err := json.Unmarshal([]byte(questionsJSON), &turn.ClarificationQuestions); err != nil {
			return nil, fmt.Errorf("unmarshalling clarification questions: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	// Reverse into oldest-first order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// scanChat scans a single chat row.
func scanChat(row *sql.Row) (*domain.Chat, error) {
	var chat domain.Chat
	var state string
	if err := row.Scan(&chat.ID, &chat.UserExternalID, &state, &chat.PendingQuestion,
		&chat.ClarificationRounds, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chat: %w", err)
	}
	chat.State = domain.ChatState(state)
	return &chat, nil
}
