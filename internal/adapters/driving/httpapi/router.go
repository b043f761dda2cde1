// Package httpapi exposes ingestion and chat over HTTP with JSON
// bodies. Admin endpoints are guarded by a shared token header.
package httpapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/praetor-labs/praetor/internal/core/ports/driving"
	"github.com/praetor-labs/praetor/internal/logger"
)

// adminTokenHeader carries the shared ingestion token.
const adminTokenHeader = "X-Admin-Token"

// NewHandler assembles the HTTP API. An empty adminToken disables the
// admin guard; intended for local development only.
func NewHandler(ingestor driving.Ingestor, chats driving.Conversationalist, adminToken string) http.Handler {
	h := &handlers{
		ingestor:   ingestor,
		chats:      chats,
		adminToken: adminToken,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", h.health)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/ingest", h.ingest)
		r.Get("/jobs/{jobID}", h.jobStatus)
		r.Post("/jobs/{jobID}/cancel", h.cancelJob)
	})

	r.Post("/chat", h.chat)
	r.Post("/chat/reset", h.resetChat)

	return r
}

// requireAdmin rejects requests without the shared token.
func (h *handlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken != "" {
			got := r.Header.Get(adminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing admin token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one structured log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
