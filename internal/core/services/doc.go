// Package services implements the driving port interfaces: the
// ingestion pipeline orchestrator, the retrieval engine, answer
// generation and the conversation state machine. Services contain the
// core business logic and orchestrate calls to driven ports.
package services
