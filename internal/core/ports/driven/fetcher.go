package driven

import "context"

// FetchResult is the raw payload retrieved from a source URL.
type FetchResult struct {
	// Body is the raw response bytes.
	Body []byte

	// MIMEType is the media type without parameters, e.g. "text/html".
	MIMEType string

	// FinalURL is the URL after redirects.
	FinalURL string

	// ContentHash is the sha256 hex digest of Body. Document identity.
	ContentHash string
}

// Fetcher retrieves raw document bytes from a source URL.
// Transient network failures are retried with bounded exponential
// backoff inside the adapter; exhaustion surfaces a domain.FetchError.
// Non-text or oversized payloads fail with domain.ErrUnsupportedContent.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
