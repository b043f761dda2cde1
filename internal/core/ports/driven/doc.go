// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): fetching, normalisation, chunking,
// embedding, storage and the generative backend.
package driven
