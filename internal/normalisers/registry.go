package normalisers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects normalisers by media type. When several support the
// same type, the highest priority wins.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.Normaliser)}
}

// Register adds a normaliser for all of its supported media types.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range n.SupportedMIMETypes() {
		r.byMIME[normaliseMIME(mt)] = append(r.byMIME[normaliseMIME(mt)], n)
	}
}

// ForMIMEType returns the highest-priority normaliser for the media type.
func (r *Registry) ForMIMEType(mimeType string) (driven.Normaliser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.byMIME[normaliseMIME(mimeType)]
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrUnsupportedContent, mimeType)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Priority() > best.Priority() {
			best = c
		}
	}
	return best, nil
}

// normaliseMIME strips parameters and lowercases the media type.
func normaliseMIME(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
