package driven

import "context"

// ChatMessage is a single message in a conversation history.
type ChatMessage struct {
	// Role is one of "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// AnswerBackend is the generative model behind answer synthesis and
// clarification. Optional: when nil the system degrades to
// deterministic answers assembled from citation snippets.
type AnswerBackend interface {
	// Answer composes a grounded answer from numbered context blocks
	// and recent conversation history.
	Answer(ctx context.Context, question string, contextBlocks []string, history []ChatMessage) (string, error)

	// Clarify judges whether the question is too ambiguous to answer
	// and, if so, proposes up to three clarification questions.
	Clarify(ctx context.Context, question string, history []ChatMessage) (ambiguous bool, questions []string, err error)

	// ModelName identifies the generative model.
	ModelName() string
}
