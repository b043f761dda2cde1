// Package domain contains the core entities of the legal QA pipeline:
// documents, chunks, ingestion jobs, chats and the error taxonomy.
// It has no dependencies on adapters or external services.
package domain
