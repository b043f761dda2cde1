// Command praetor is the legal document retrieval and question
// answering service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/praetor-labs/praetor/internal/adapters/driven/embedding/lexical"
	openaiembed "github.com/praetor-labs/praetor/internal/adapters/driven/embedding/openai"
	httpfetch "github.com/praetor-labs/praetor/internal/adapters/driven/fetch/http"
	openaillm "github.com/praetor-labs/praetor/internal/adapters/driven/llm/openai"
	"github.com/praetor-labs/praetor/internal/adapters/driven/storage/sqlite"
	"github.com/praetor-labs/praetor/internal/adapters/driving/cli"
	"github.com/praetor-labs/praetor/internal/adapters/driving/httpapi"
	"github.com/praetor-labs/praetor/internal/chunker"
	"github.com/praetor-labs/praetor/internal/config"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/core/services"
	"github.com/praetor-labs/praetor/internal/logger"
	"github.com/praetor-labs/praetor/internal/normalisers"
	"github.com/praetor-labs/praetor/internal/normalisers/html"
	"github.com/praetor-labs/praetor/internal/normalisers/pdf"
	"github.com/praetor-labs/praetor/internal/normalisers/plaintext"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "praetor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PRAETOR_CONFIG"))
	if err != nil {
		return err
	}
	logger.Setup(cfg.LogLevel)

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	registry := normalisers.NewRegistry()
	registry.Register(html.New())
	registry.Register(pdf.New())
	registry.Register(plaintext.New())

	fetcher := httpfetch.New(cfg.Ingest.FetchTimeout(), cfg.Ingest.MaxDocumentBytes)

	var embedder driven.EmbeddingService
	var backend driven.AnswerBackend
	if cfg.EmbeddingEnabled() {
		embedder, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.EmbedModel,
			Dimensions: cfg.OpenAI.EmbedDim,
		})
		if err != nil {
			return fmt.Errorf("configuring embeddings: %w", err)
		}
		backend, err = openaillm.New(openaillm.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.AnswerModel,
		})
		if err != nil {
			return fmt.Errorf("configuring answer backend: %w", err)
		}
	} else {
		logger.Warn().Msg("no API key configured, running in degraded lexical mode")
		embedder = lexical.New(cfg.Ingest.LexicalDim)
	}

	orchestrator := services.NewIngestionOrchestrator(
		fetcher,
		registry,
		chunker.New(
			chunker.WithChunkSize(cfg.Ingest.ChunkSize),
			chunker.WithOverlap(cfg.Ingest.ChunkOverlap),
		),
		embedder,
		store.VectorStore(),
		store.JobStore(),
		cfg.Ingest.Workers,
	)

	retriever := services.NewRetrievalEngine(embedder, store.VectorStore(), services.RetrievalParams{
		MaxCitations:   cfg.Retrieval.MaxCitations,
		Oversample:     cfg.Retrieval.Oversample,
		MinCandidates:  cfg.Retrieval.MinCandidates,
		PerDocumentCap: cfg.Retrieval.PerDocumentCap,
		RelevanceFloor: cfg.Retrieval.RelevanceFloor,
	})

	answers := services.NewAnswerGenerator(backend, cfg.Chat.MaxContextChars)
	conversations := services.NewConversationManager(
		store.ChatStore(),
		retriever,
		answers,
		backend,
		services.ConversationParams{
			ConfidenceThreshold: cfg.Chat.ConfidenceThreshold,
			MaxRounds:           cfg.Chat.MaxClarificationRounds,
			HistoryTurns:        cfg.Chat.HistoryTurns,
		},
	)

	cli.SetServices(orchestrator, conversations)
	cli.SetServeConfig(&cli.ServeConfig{
		Handler:    httpapi.NewHandler(orchestrator, conversations, cfg.AdminToken),
		ListenAddr: cfg.ListenAddr,
		Workers:    orchestrator,
	})

	return cli.Execute()
}
