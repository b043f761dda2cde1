package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driving"
	"github.com/praetor-labs/praetor/internal/logger"
)

type handlers struct {
	ingestor   driving.Ingestor
	chats      driving.Conversationalist
	adminToken string
}

type ingestRequest struct {
	URL  string   `json:"url,omitempty"`
	URLs []string `json:"urls,omitempty"`
	Sync bool     `json:"sync,omitempty"`
}

type ingestSyncResponse struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
	Status     string `json:"status"`
}

type ingestAsyncResponse struct {
	JobIDs []string `json:"job_ids"`
}

type jobResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
	// Ready means the job reached a terminal state.
	Ready         bool   `json:"ready"`
	Successful    bool   `json:"successful"`
	DocumentID    string `json:"document_id,omitempty"`
	ChunksWritten int    `json:"chunks_written,omitempty"`
	Changed       bool   `json:"changed,omitempty"`
	Error         string `json:"error,omitempty"`
}

type chatRequest struct {
	Question     string `json:"question"`
	ChatID       string `json:"chat_id,omitempty"`
	UserID       string `json:"user_external_id,omitempty"`
	MaxCitations int    `json:"max_citations,omitempty"`
}

type chatResponse struct {
	ChatID       string            `json:"chat_id"`
	Answer       string            `json:"answer"`
	Citations    []domain.Citation `json:"citations,omitempty"`
	NeedMoreInfo bool              `json:"need_more_info"`
	Questions    []string          `json:"questions,omitempty"`
}

type resetRequest struct {
	ChatID string `json:"chat_id"`
}

type resetResponse struct {
	ChatID string `json:"chat_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ingest accepts one URL or a batch. Sync mode runs the pipeline
// inline and only supports a single URL.
func (h *handlers) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	urls := req.URLs
	if req.URL != "" {
		urls = append([]string{req.URL}, urls...)
	}
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "url or urls is required")
		return
	}

	if req.Sync {
		if len(urls) > 1 {
			writeError(w, http.StatusBadRequest, "sync mode accepts a single url")
			return
		}
		doc, err := h.ingestor.Ingest(r.Context(), urls[0])
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ingestSyncResponse{
			DocumentID: doc.ID,
			URL:        doc.SourceURL,
			Status:     string(doc.Status),
		})
		return
	}

	ids, err := h.ingestor.EnqueueBatch(r.Context(), urls)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ingestAsyncResponse{JobIDs: ids})
}

func (h *handlers) jobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.ingestor.Job(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{
		ID:            job.ID,
		URL:           job.URL,
		Status:        string(job.Status),
		Ready:         job.Status.Terminal(),
		Successful:    job.Status == domain.JobSucceeded,
		DocumentID:    job.DocumentID,
		ChunksWritten: job.ChunksWritten,
		Changed:       job.Changed,
		Error:         job.Error,
	})
}

func (h *handlers) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := h.ingestor.Cancel(r.Context(), jobID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": jobID, "status": string(domain.JobFailed)})
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	answer, err := h.chats.Ask(r.Context(), driving.AskRequest{
		ChatID:         req.ChatID,
		UserExternalID: req.UserID,
		Question:       req.Question,
		MaxCitations:   req.MaxCitations,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ChatID:       answer.ChatID,
		Answer:       answer.Answer,
		Citations:    answer.Citations,
		NeedMoreInfo: answer.NeedMoreInfo,
		Questions:    answer.Questions,
	})
}

func (h *handlers) resetChat(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID == "" {
		writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	fresh, err := h.chats.Reset(r.Context(), req.ChatID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{ChatID: fresh.ID})
}

// writeDomainError maps domain error kinds onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrJobTerminal):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("encoding response")
	}
}
