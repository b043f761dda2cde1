// Package driving provides interfaces exposed by the core to inbound
// adapters (primary ports): ingestion, retrieval and conversation.
package driving
