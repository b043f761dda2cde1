package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/core/ports/driving"
	"github.com/praetor-labs/praetor/internal/logger"
)

// Canned clarification prompts for degraded mode, when no generative
// backend is available to phrase better ones.
var defaultClarifications = []string{
	"Уточніть, будь ласка, про який нормативно-правовий акт або сферу йдеться?",
	"Опишіть конкретну ситуацію, щодо якої потрібна відповідь.",
}

// msgNeedMoreInfo prefixes clarification requests.
const msgNeedMoreInfo = "Мені потрібно трохи більше деталей, щоб відповісти точно."

// Ensure ConversationManager implements the interface.
var _ driving.Conversationalist = (*ConversationManager)(nil)

// ConversationManager is the per-chat state machine. It tracks history,
// judges whether the evidence suffices, asks bounded clarification
// questions and merges the replies back into the pending question.
type ConversationManager struct {
	chats     driven.ChatStore
	retriever driving.Retriever
	answers   *AnswerGenerator
	backend   driven.AnswerBackend // nil in degraded mode

	confidenceThreshold float64
	maxRounds           int
	historyTurns        int
}

// ConversationParams tunes the state machine.
type ConversationParams struct {
	ConfidenceThreshold float64
	MaxRounds           int
	HistoryTurns        int
}

// NewConversationManager creates a conversation manager. backend may
// be nil; ambiguity judgement then rests on retrieval scores alone.
func NewConversationManager(
	chats driven.ChatStore,
	retriever driving.Retriever,
	answers *AnswerGenerator,
	backend driven.AnswerBackend,
	params ConversationParams,
) *ConversationManager {
	if params.ConfidenceThreshold <= 0 {
		params.ConfidenceThreshold = 0.55
	}
	if params.MaxRounds <= 0 {
		params.MaxRounds = 2
	}
	if params.HistoryTurns <= 0 {
		params.HistoryTurns = 16
	}
	return &ConversationManager{
		chats:               chats,
		retriever:           retriever,
		answers:             answers,
		backend:             backend,
		confidenceThreshold: params.ConfidenceThreshold,
		maxRounds:           params.MaxRounds,
		historyTurns:        params.HistoryTurns,
	}
}

// Ask processes one user message and appends exactly one turn.
func (m *ConversationManager) Ask(ctx context.Context, req driving.AskRequest) (*driving.ChatAnswer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	chat, err := m.resolveChat(ctx, req)
	if err != nil {
		return nil, err
	}

	history, err := m.history(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	// A clarification reply is merged into the pending question so
	// retrieval sees the accumulated context.
	effective := question
	if chat.State == domain.ChatAwaitingClarification && chat.PendingQuestion != "" {
		effective = chat.PendingQuestion + "\n" + question
	}

	citations, err := m.retriever.Retrieve(ctx, effective, req.MaxCitations)
	if err != nil {
		// A retrieval timeout degrades to a no-evidence turn instead of
		// failing the conversation.
		if !errors.Is(err, domain.ErrRetrievalTimeout) {
			return nil, err
		}
		logger.Warn().Str("chat_id", chat.ID).Err(err).Msg("retrieval timed out")
		citations = nil
	}

	insufficient := len(citations) == 0 || citations[0].Score < m.confidenceThreshold
	var proposed []string
	if !insufficient && m.backend != nil {
		ambiguous, questions, err := m.backend.Clarify(ctx, effective, history)
		if err != nil {
			logger.Warn().Err(err).Msg("clarify judgement failed, answering anyway")
		} else if ambiguous {
			insufficient = true
			proposed = questions
		}
	}

	if insufficient && chat.ClarificationRounds < m.maxRounds {
		return m.askClarification(ctx, chat, question, effective, proposed)
	}
	return m.answer(ctx, chat, question, effective, citations, history)
}

// Reset opens a fresh chat for the same user. The old chat's log
// remains as audit trail.
func (m *ConversationManager) Reset(ctx context.Context, chatID string) (*domain.Chat, error) {
	old, err := m.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	fresh := &domain.Chat{
		ID:             uuid.NewString(),
		UserExternalID: old.UserExternalID,
		State:          domain.ChatAwaitingQuestion,
	}
	if err := m.chats.SaveChat(ctx, fresh); err != nil {
		return nil, err
	}
	logger.Info().Str("old_chat", chatID).Str("new_chat", fresh.ID).Msg("chat reset")
	return fresh, nil
}

// resolveChat finds or opens the chat for a request.
func (m *ConversationManager) resolveChat(ctx context.Context, req driving.AskRequest) (*domain.Chat, error) {
	if req.ChatID != "" {
		return m.chats.GetChat(ctx, req.ChatID)
	}

	if req.UserExternalID != "" {
		chat, err := m.chats.LatestChatByUser(ctx, req.UserExternalID)
		if err == nil {
			return chat, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	chat := &domain.Chat{
		ID:             uuid.NewString(),
		UserExternalID: req.UserExternalID,
		State:          domain.ChatAwaitingQuestion,
	}
	if err := m.chats.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// history converts the recent turn log into backend chat messages.
func (m *ConversationManager) history(ctx context.Context, chatID string) ([]driven.ChatMessage, error) {
	turns, err := m.chats.RecentTurns(ctx, chatID, m.historyTurns)
	if err != nil {
		return nil, err
	}

	messages := make([]driven.ChatMessage, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages,
			driven.ChatMessage{Role: "user", Content: turn.Question},
			driven.ChatMessage{Role: "assistant", Content: turn.Answer},
		)
	}
	return messages, nil
}

// askClarification transitions the chat into the clarification state
// and appends the turn.
func (m *ConversationManager) askClarification(ctx context.Context, chat *domain.Chat, question, effective string, proposed []string) (*driving.ChatAnswer, error) {
	questions := proposed
	if len(questions) == 0 {
		questions = defaultClarifications
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}

	var sb strings.Builder
	sb.WriteString(msgNeedMoreInfo)
	for _, q := range questions {
		sb.WriteString("\n- ")
		sb.WriteString(q)
	}
	answer := sb.String()

	chat.State = domain.ChatAwaitingClarification
	chat.PendingQuestion = effective
	chat.ClarificationRounds++
	if err := m.chats.SaveChat(ctx, chat); err != nil {
		return nil, err
	}

	turn := &domain.ConversationTurn{
		ChatID:                 chat.ID,
		Question:               question,
		Answer:                 answer,
		NeedMoreInfo:           true,
		ClarificationQuestions: questions,
	}
	if err := m.chats.AppendTurn(ctx, turn); err != nil {
		return nil, err
	}

	return &driving.ChatAnswer{
		ChatID:       chat.ID,
		Answer:       answer,
		NeedMoreInfo: true,
		Questions:    questions,
	}, nil
}

// answer resolves the pending question, appends the turn and resets
// the state machine for the next question.
func (m *ConversationManager) answer(ctx context.Context, chat *domain.Chat, question, effective string, citations []domain.Citation, history []driven.ChatMessage) (*driving.ChatAnswer, error) {
	var text string
	if len(citations) == 0 {
		text = m.answers.NoSourcesAnswer()
	} else {
		text = m.answers.Generate(ctx, effective, citations, history)
	}

	chat.State = domain.ChatAnswered
	chat.PendingQuestion = ""
	chat.ClarificationRounds = 0
	if err := m.chats.SaveChat(ctx, chat); err != nil {
		return nil, err
	}

	turn := &domain.ConversationTurn{
		ChatID:    chat.ID,
		Question:  question,
		Answer:    text,
		Citations: citations,
	}
	if err := m.chats.AppendTurn(ctx, turn); err != nil {
		return nil, err
	}

	return &driving.ChatAnswer{
		ChatID:    chat.ID,
		Answer:    text,
		Citations: citations,
	}, nil
}
