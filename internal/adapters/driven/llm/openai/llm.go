// Package openai provides an answer backend using the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// Ensure AnswerBackend implements the interface.
var _ driven.AnswerBackend = (*AnswerBackend)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI answer backend.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// AnswerBackend synthesises grounded answers and clarification
// questions using the OpenAI chat completions API.
type AnswerBackend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// answerSystemPrompt keeps the model grounded in the provided sources.
// The assistant answers in Ukrainian because the corpus is Ukrainian
// legislation.
const answerSystemPrompt = `Ти юридичний асистент, що відповідає на питання щодо законодавства України.
Відповідай ВИКЛЮЧНО на основі наведених джерел. Якщо джерела не містять відповіді, прямо скажи про це.
Посилайся на джерела за їх номерами у квадратних дужках, наприклад [1].
Не вигадуй норм, статей чи номерів документів, яких немає у джерелах.
Відповідай українською мовою, стисло та по суті.`

// clarifySystemPrompt asks the model to judge ambiguity and reply with
// machine-readable JSON only.
const clarifySystemPrompt = `Ти оцінюєш, чи достатньо конкретне юридичне питання, щоб на нього відповісти.
Питання є неоднозначним, якщо незрозуміло, про який нормативно-правовий акт, сферу чи ситуацію йдеться.
Відповідай ЛИШЕ валідним JSON такого вигляду, без пояснень:
{"ambiguous": true, "questions": ["уточнююче питання 1", "уточнююче питання 2"]}
Не більше трьох уточнюючих питань, кожне українською мовою.`

// New creates a new OpenAI answer backend.
func New(cfg Config) (*AnswerBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &AnswerBackend{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Answer composes a grounded answer from numbered context blocks and
// recent conversation history.
func (s *AnswerBackend) Answer(ctx context.Context, question string, contextBlocks []string, history []driven.ChatMessage) (string, error) {
	messages := []chatCompletionMsg{
		{Role: "system", Content: answerSystemPrompt},
	}
	for _, m := range history {
		messages = append(messages, chatCompletionMsg{Role: m.Role, Content: m.Content})
	}

	var sb strings.Builder
	sb.WriteString("Джерела:\n\n")
	for _, block := range contextBlocks {
		sb.WriteString(block)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Питання: ")
	sb.WriteString(question)
	messages = append(messages, chatCompletionMsg{Role: "user", Content: sb.String()})

	answer, err := s.chatCompletion(ctx, messages, 0.2)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Clarify judges whether the question is too ambiguous to answer and,
// if so, proposes up to three clarification questions.
func (s *AnswerBackend) Clarify(ctx context.Context, question string, history []driven.ChatMessage) (bool, []string, error) {
	messages := []chatCompletionMsg{
		{Role: "system", Content: clarifySystemPrompt},
	}
	for _, m := range history {
		messages = append(messages, chatCompletionMsg{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatCompletionMsg{Role: "user", Content: "Питання: " + question})

	raw, err := s.chatCompletion(ctx, messages, 0)
	if err != nil {
		return false, nil, fmt.Errorf("clarify: %w", err)
	}

	var verdict struct {
		Ambiguous bool     `json:"ambiguous"`
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &verdict); err != nil {
		// An unparseable verdict is treated as unambiguous rather than
		// blocking the answer.
		return false, nil, nil
	}
	if len(verdict.Questions) > 3 {
		verdict.Questions = verdict.Questions[:3]
	}
	return verdict.Ambiguous, verdict.Questions, nil
}

// ModelName returns the name of the chat model being used.
func (s *AnswerBackend) ModelName() string {
	return s.model
}

func (s *AnswerBackend) chatCompletion(ctx context.Context, messages []chatCompletionMsg, temperature float64) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// extractJSON strips markdown code fences and surrounding prose that
// models sometimes wrap around a JSON object.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
