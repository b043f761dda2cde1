package domain

import "time"

// ChatState is the per-chat conversational state machine position.
type ChatState string

// Chat states. Answered is terminal for a turn but not for the chat:
// the next question reuses the chat and its history.
const (
	ChatAwaitingQuestion      ChatState = "awaiting_question"
	ChatAwaitingClarification ChatState = "awaiting_clarification"
	ChatAnswered              ChatState = "answered"
)

// Chat is a conversation keyed by chat ID. The turn log is append-only;
// only the state machine fields below are mutated between turns.
type Chat struct {
	// ID is the unique chat identifier, echoed back to callers so they
	// can continue the conversation.
	ID string

	// UserExternalID is the caller-supplied user key, if any.
	UserExternalID string

	// State is the current state machine position.
	State ChatState

	// PendingQuestion accumulates the original question plus any
	// clarification answers while State is ChatAwaitingClarification.
	PendingQuestion string

	// ClarificationRounds counts clarifications asked for the pending
	// question. Bounded to force an answer attempt.
	ClarificationRounds int

	// CreatedAt is when the chat was opened.
	CreatedAt time.Time

	// UpdatedAt is when the chat state last changed.
	UpdatedAt time.Time
}

// ConversationTurn is one question/answer exchange. Turns are immutable
// once appended; the log is the authoritative audit trail.
type ConversationTurn struct {
	// ID is the unique turn identifier.
	ID string

	// ChatID links to the owning Chat.
	ChatID string

	// Question is the user message as received (unmerged).
	Question string

	// Answer is the text returned to the user.
	Answer string

	// Citations is the evidence set behind the answer.
	Citations []Citation

	// NeedMoreInfo signals that the evidence was insufficient and the
	// answer is a clarification request.
	NeedMoreInfo bool

	// ClarificationQuestions holds the 1-3 questions asked when
	// NeedMoreInfo is set.
	ClarificationQuestions []string

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time
}

// Citation links an answer back to a document section and snippet.
// Pure value object; persisted only inside the turn that produced it.
type Citation struct {
	// DocumentURL is the source URL of the cited document.
	DocumentURL string `json:"document_url"`

	// Title is the document title, if known.
	Title string `json:"title,omitempty"`

	// SectionRef is the structural location, e.g. "Розділ I / Стаття 5".
	SectionRef string `json:"section_ref,omitempty"`

	// Snippet is the compacted chunk text used as evidence.
	Snippet string `json:"snippet"`

	// Score is the retrieval similarity score.
	Score float64 `json:"score"`
}
