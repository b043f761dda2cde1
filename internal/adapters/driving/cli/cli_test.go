package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driving"
)

// mockIngestor scripts the ingestion port for command tests.
type mockIngestor struct {
	failURLs map[string]bool
	job      *domain.IngestJob
}

func (m *mockIngestor) Ingest(_ context.Context, url string) (*domain.Document, error) {
	if m.failURLs[url] {
		return nil, errors.New("fetch failed")
	}
	return &domain.Document{ID: "doc-1", SourceURL: url, Status: domain.DocumentReady}, nil
}

func (m *mockIngestor) Enqueue(_ context.Context, _ string) (string, error) {
	return "job-1", nil
}

func (m *mockIngestor) EnqueueBatch(_ context.Context, urls []string) ([]string, error) {
	ids := make([]string, len(urls))
	for i := range urls {
		ids[i] = "job-1"
	}
	return ids, nil
}

func (m *mockIngestor) Job(_ context.Context, _ string) (*domain.IngestJob, error) {
	if m.job == nil {
		return nil, domain.ErrNotFound
	}
	return m.job, nil
}

func (m *mockIngestor) Cancel(_ context.Context, _ string) error {
	return nil
}

// mockConversationalist scripts the chat port for command tests.
type mockConversationalist struct {
	answer *driving.ChatAnswer
}

func (m *mockConversationalist) Ask(_ context.Context, _ driving.AskRequest) (*driving.ChatAnswer, error) {
	return m.answer, nil
}

func (m *mockConversationalist) Reset(_ context.Context, _ string) (*domain.Chat, error) {
	return &domain.Chat{ID: "chat-2", State: domain.ChatAwaitingQuestion}, nil
}

func setupTestServices() func() {
	oldIngest := ingestService
	oldChat := chatService

	ingestService = &mockIngestor{
		job: &domain.IngestJob{
			ID:            "job-1",
			URL:           "https://zakon.test/doc1",
			Status:        domain.JobSucceeded,
			DocumentID:    "doc-1",
			ChunksWritten: 7,
			Changed:       true,
		},
	}
	chatService = &mockConversationalist{
		answer: &driving.ChatAnswer{
			ChatID: "chat-1",
			Answer: "Згідно зі Статтею 75 [1], відпустка триває 24 календарних дні.",
			Citations: []domain.Citation{{
				DocumentURL: "https://zakon.test/doc1",
				Title:       "Кодекс законів про працю",
				SectionRef:  "Стаття 75",
				Snippet:     "фрагмент",
				Score:       0.91,
			}},
		},
	}

	return func() {
		ingestService = oldIngest
		chatService = oldChat
	}
}

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "praetor", rootCmd.Use)
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand("version")

	assert.NoError(t, err)
	assert.Contains(t, out, "praetor version")
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	_, err := executeCommand("ingest")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_Success(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("ingest", "https://zakon.test/doc1")

	assert.NoError(t, err)
	assert.Contains(t, out, "OK   https://zakon.test/doc1")
	assert.Contains(t, out, "Ingested 1 of 1 documents.")
}

func TestIngestCmd_PartialFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ingestService = &mockIngestor{failURLs: map[string]bool{"https://zakon.test/bad": true}}

	out, err := executeCommand("ingest", "https://zakon.test/good", "https://zakon.test/bad")

	assert.Error(t, err)
	assert.Contains(t, out, "OK   https://zakon.test/good")
	assert.Contains(t, out, "FAIL https://zakon.test/bad")
	assert.Contains(t, err.Error(), "1 of 2 documents failed")
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	old := ingestService
	ingestService = nil
	defer func() { ingestService = old }()

	_, err := executeCommand("ingest", "https://zakon.test/doc1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestJobStatusCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("job", "status", "job-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Job: job-1")
	assert.Contains(t, out, "Status:  succeeded")
	assert.Contains(t, out, "Chunks:   7")
}

func TestJobCancelCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("job", "cancel", "job-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Job job-1 cancelled.")
}

func TestAskCmd_PrintsAnswerAndCitations(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("ask", "Скільки триває відпустка?")

	assert.NoError(t, err)
	assert.Contains(t, out, "відпустка триває 24 календарних дні")
	assert.Contains(t, out, "Джерела:")
	assert.Contains(t, out, "[1] Кодекс законів про працю, Стаття 75")
	assert.Contains(t, out, "Chat: chat-1")
}

func TestAskCmd_ClarificationQuestions(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	chatService = &mockConversationalist{
		answer: &driving.ChatAnswer{
			ChatID:       "chat-1",
			Answer:       "Мені потрібно більше деталей.",
			NeedMoreInfo: true,
			Questions:    []string{"Про який акт ідеться?"},
		},
	}

	out, err := executeCommand("ask", "Відпустка?")

	assert.NoError(t, err)
	assert.Contains(t, out, "Мені потрібно більше деталей.")
	assert.NotContains(t, out, "Джерела:")
}

func TestChatResetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("chat", "reset", "chat-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "New chat: chat-2")
}

func TestServeCmd_NotConfigured(t *testing.T) {
	old := serveConfig
	serveConfig = nil
	defer func() { serveConfig = old }()

	_, err := executeCommand("serve")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server not configured")
}
