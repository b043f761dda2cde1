package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driving"
)

// stubIngestor scripts the ingestion port.
type stubIngestor struct {
	doc       *domain.Document
	ingestErr error
	jobs      map[string]*domain.IngestJob
	enqueued  []string
	cancelErr error
}

func (s *stubIngestor) Ingest(_ context.Context, url string) (*domain.Document, error) {
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	doc := *s.doc
	doc.SourceURL = url
	return &doc, nil
}

func (s *stubIngestor) Enqueue(_ context.Context, url string) (string, error) {
	s.enqueued = append(s.enqueued, url)
	return "job-" + url, nil
}

func (s *stubIngestor) EnqueueBatch(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, domain.ErrInvalidInput
	}
	ids := make([]string, 0, len(urls))
	for _, url := range urls {
		id, _ := s.Enqueue(ctx, url)
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *stubIngestor) Job(_ context.Context, jobID string) (*domain.IngestJob, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *stubIngestor) Cancel(_ context.Context, _ string) error {
	return s.cancelErr
}

// stubConversationalist scripts the chat port.
type stubConversationalist struct {
	answer *driving.ChatAnswer
	askErr error
	chat   *domain.Chat
}

func (s *stubConversationalist) Ask(_ context.Context, req driving.AskRequest) (*driving.ChatAnswer, error) {
	if s.askErr != nil {
		return nil, s.askErr
	}
	out := *s.answer
	if req.ChatID != "" {
		out.ChatID = req.ChatID
	}
	return &out, nil
}

func (s *stubConversationalist) Reset(_ context.Context, chatID string) (*domain.Chat, error) {
	if s.chat == nil {
		return nil, domain.ErrNotFound
	}
	return s.chat, nil
}

func newTestHandler(ingestor *stubIngestor, chats *stubConversationalist, token string) http.Handler {
	if ingestor == nil {
		ingestor = &stubIngestor{jobs: map[string]*domain.IngestJob{}}
	}
	if chats == nil {
		chats = &stubConversationalist{
			answer: &driving.ChatAnswer{ChatID: "chat-1", Answer: "відповідь"},
		}
	}
	return NewHandler(ingestor, chats, token)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(nil, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestIngestSyncReturnsDocument(t *testing.T) {
	ingestor := &stubIngestor{
		doc: &domain.Document{ID: "doc-1", Status: domain.DocumentReady},
	}
	handler := newTestHandler(ingestor, nil, "")

	rec := postJSON(t, handler, "/admin/ingest", ingestRequest{
		URL:  "https://zakon.test/doc1",
		Sync: true,
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ingestSyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, "ready", resp.Status)
}

func TestIngestAsyncReturnsJobIDs(t *testing.T) {
	ingestor := &stubIngestor{jobs: map[string]*domain.IngestJob{}}
	handler := newTestHandler(ingestor, nil, "")

	rec := postJSON(t, handler, "/admin/ingest", ingestRequest{
		URLs: []string{"https://zakon.test/a", "https://zakon.test/b"},
	}, nil)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ingestAsyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.JobIDs, 2)
	assert.Equal(t, []string{"https://zakon.test/a", "https://zakon.test/b"}, ingestor.enqueued)
}

func TestIngestRequiresURL(t *testing.T) {
	handler := newTestHandler(nil, nil, "")

	rec := postJSON(t, handler, "/admin/ingest", ingestRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestSyncRejectsBatch(t *testing.T) {
	handler := newTestHandler(nil, nil, "")

	rec := postJSON(t, handler, "/admin/ingest", ingestRequest{
		URLs: []string{"https://a.test", "https://b.test"},
		Sync: true,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminGuardRejectsMissingToken(t *testing.T) {
	handler := newTestHandler(nil, nil, "secret")

	rec := postJSON(t, handler, "/admin/ingest", ingestRequest{URL: "https://a.test"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGuardAcceptsToken(t *testing.T) {
	handler := newTestHandler(nil, nil, "secret")

	rec := postJSON(t, handler, "/admin/ingest", ingestRequest{URL: "https://a.test"},
		map[string]string{adminTokenHeader: "secret"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestJobStatus(t *testing.T) {
	ingestor := &stubIngestor{jobs: map[string]*domain.IngestJob{
		"job-1": {
			ID:            "job-1",
			URL:           "https://zakon.test/doc1",
			Status:        domain.JobSucceeded,
			DocumentID:    "doc-1",
			ChunksWritten: 12,
			Changed:       true,
		},
	}}
	handler := newTestHandler(ingestor, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/admin/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "succeeded", resp.Status)
	assert.True(t, resp.Ready)
	assert.True(t, resp.Successful)
	assert.Equal(t, 12, resp.ChunksWritten)
	assert.True(t, resp.Changed)
}

func TestJobStatusNotFound(t *testing.T) {
	handler := newTestHandler(nil, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/admin/jobs/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelTerminalJobConflicts(t *testing.T) {
	ingestor := &stubIngestor{
		jobs:      map[string]*domain.IngestJob{},
		cancelErr: domain.ErrJobTerminal,
	}
	handler := newTestHandler(ingestor, nil, "")

	rec := postJSON(t, handler, "/admin/jobs/job-1/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChatReturnsAnswer(t *testing.T) {
	chats := &stubConversationalist{
		answer: &driving.ChatAnswer{
			ChatID: "chat-1",
			Answer: "Згідно зі Статтею 75 [1].",
			Citations: []domain.Citation{{
				DocumentURL: "https://zakon.test/doc1",
				Snippet:     "фрагмент",
				Score:       0.9,
			}},
		},
	}
	handler := newTestHandler(nil, chats, "")

	rec := postJSON(t, handler, "/chat", chatRequest{
		Question: "Скільки триває відпустка?",
		UserID:   "tg:1",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chat-1", resp.ChatID)
	assert.False(t, resp.NeedMoreInfo)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "https://zakon.test/doc1", resp.Citations[0].DocumentURL)
}

func TestChatClarificationPassesThrough(t *testing.T) {
	chats := &stubConversationalist{
		answer: &driving.ChatAnswer{
			ChatID:       "chat-1",
			Answer:       "Потрібні деталі.",
			NeedMoreInfo: true,
			Questions:    []string{"Про який акт ідеться?"},
		},
	}
	handler := newTestHandler(nil, chats, "")

	rec := postJSON(t, handler, "/chat", chatRequest{Question: "Відпустка?"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.NeedMoreInfo)
	assert.Equal(t, []string{"Про який акт ідеться?"}, resp.Questions)
}

func TestChatInvalidInput(t *testing.T) {
	chats := &stubConversationalist{askErr: domain.ErrInvalidInput}
	handler := newTestHandler(nil, chats, "")

	rec := postJSON(t, handler, "/chat", chatRequest{Question: ""}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatInternalError(t *testing.T) {
	chats := &stubConversationalist{askErr: errors.New("store unavailable")}
	handler := newTestHandler(nil, chats, "")

	rec := postJSON(t, handler, "/chat", chatRequest{Question: "Питання"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatResetReturnsFreshChat(t *testing.T) {
	chats := &stubConversationalist{
		answer: &driving.ChatAnswer{ChatID: "chat-1", Answer: "ок"},
		chat:   &domain.Chat{ID: "chat-2", State: domain.ChatAwaitingQuestion},
	}
	handler := newTestHandler(nil, chats, "")

	rec := postJSON(t, handler, "/chat/reset", resetRequest{ChatID: "chat-1"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp resetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chat-2", resp.ChatID)
}

func TestChatResetRequiresChatID(t *testing.T) {
	handler := newTestHandler(nil, nil, "")

	rec := postJSON(t, handler, "/chat/reset", resetRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
