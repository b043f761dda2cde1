// Package http fetches source documents over HTTP with bounded retries.
package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/logger"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 1 * time.Second
	backoffCap         = 10 * time.Second

	userAgent = "praetor/1.0 (+https://github.com/praetor-labs/praetor)"
	acceptHdr = "text/html,application/xhtml+xml,application/pdf,text/plain;q=0.9,*/*;q=0.5"
)

// allowedMIMETypes are the media types that can be normalised
// downstream. Anything else is refused without retrying.
var allowedMIMETypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
	"text/plain":            true,
	"application/pdf":       true,
}

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves documents over HTTP. Transient failures (network
// errors, 429, 5xx) are retried with exponential backoff; permanent
// failures (4xx, unsupported content type, oversized body) are not.
type Fetcher struct {
	client      *http.Client
	maxAttempts int
	backoffBase time.Duration
	maxBytes    int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxAttempts sets the retry budget.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first retry delay. Each retry doubles it.
func WithBackoffBase(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.backoffBase = d
		}
	}
}

// New creates a Fetcher. timeout covers a single attempt; maxBytes caps
// the accepted body size.
func New(timeout time.Duration, maxBytes int64, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: timeout},
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		maxBytes:    maxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the document at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*driven.FetchResult, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: unsupported url scheme: %s", domain.ErrInvalidInput, url)
	}

	var lastErr error
	delay := f.backoffBase
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			logger.Debug().
				Str("url", url).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > backoffCap {
				delay = backoffCap
			}
		}

		res, err := f.attempt(ctx, url)
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, &domain.FetchError{URL: url, Attempts: f.maxAttempts, Err: lastErr}
}

// transientError marks failures worth another attempt.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *transientError
	return errors.As(err, &te)
}

func (f *Fetcher) attempt(ctx context.Context, url string) (*driven.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHdr)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &transientError{err: fmt.Errorf("status %d", resp.StatusCode)}
	default:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	mimeType := normaliseMIME(resp.Header.Get("Content-Type"))
	if !allowedMIMETypes[mimeType] {
		return nil, fmt.Errorf("%w: content type %q", domain.ErrUnsupportedContent, mimeType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrUnsupportedContent, f.maxBytes)
	}

	sum := sha256.Sum256(body)
	return &driven.FetchResult{
		Body:        body,
		MIMEType:    mimeType,
		FinalURL:    resp.Request.URL.String(),
		ContentHash: hex.EncodeToString(sum[:]),
	}, nil
}

func normaliseMIME(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
