// Package config loads service configuration from a TOML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default tuning values. All of them are overridable via the config
// file or environment.
const (
	DefaultChunkSize              = 1000
	DefaultChunkOverlap           = 150
	DefaultMaxCitations           = 6
	DefaultOversample             = 3
	DefaultMinCandidates          = 20
	DefaultPerDocumentCap         = 2
	DefaultRelevanceFloor         = 0.25
	DefaultConfidenceThreshold    = 0.55
	DefaultMaxClarificationRounds = 2
	DefaultHistoryTurns           = 16
	DefaultMaxContextChars        = 14000
	DefaultWorkers                = 4
	DefaultFetchTimeoutSeconds    = 45
	DefaultMaxDocumentBytes       = 20 << 20
	DefaultLexicalDimensions      = 512
	DefaultListenAddr             = ":8080"
)

// Config holds all service settings.
type Config struct {
	// DataDir is where the SQLite store lives.
	DataDir string `toml:"data_dir"`

	// ListenAddr is the HTTP API bind address.
	ListenAddr string `toml:"listen_addr"`

	// AdminToken guards ingestion endpoints. Empty disables the guard.
	AdminToken string `toml:"admin_token"`

	// LogLevel is the zerolog level name.
	LogLevel string `toml:"log_level"`

	// OpenAI holds generative backend settings. An empty APIKey puts
	// the whole corpus into degraded lexical mode.
	OpenAI OpenAIConfig `toml:"openai"`

	// Ingest holds fetch/chunk pipeline settings.
	Ingest IngestConfig `toml:"ingest"`

	// Retrieval holds ranking settings.
	Retrieval RetrievalConfig `toml:"retrieval"`

	// Chat holds conversation state machine settings.
	Chat ChatConfig `toml:"chat"`
}

// OpenAIConfig configures the embedding and answer backends.
type OpenAIConfig struct {
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	AnswerModel string `toml:"answer_model"`
	EmbedModel  string `toml:"embed_model"`
	EmbedDim    int    `toml:"embed_dim"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	FetchTimeoutSeconds int   `toml:"fetch_timeout_s"`
	MaxDocumentBytes    int64 `toml:"max_document_bytes"`
	ChunkSize           int   `toml:"chunk_size"`
	ChunkOverlap        int   `toml:"chunk_overlap"`
	Workers             int   `toml:"workers"`
	// LexicalDim is the degraded-mode vector dimension.
	LexicalDim int `toml:"lexical_dim"`
}

// FetchTimeout returns the fetch timeout as a duration.
func (c IngestConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// RetrievalConfig configures ranking and trimming.
type RetrievalConfig struct {
	MaxCitations   int     `toml:"max_citations"`
	Oversample     int     `toml:"oversample"`
	MinCandidates  int     `toml:"min_candidates"`
	PerDocumentCap int     `toml:"per_document_cap"`
	RelevanceFloor float64 `toml:"relevance_floor"`
}

// ChatConfig configures the conversation state machine.
type ChatConfig struct {
	ConfidenceThreshold    float64 `toml:"confidence_threshold"`
	MaxClarificationRounds int     `toml:"max_clarification_rounds"`
	HistoryTurns           int     `toml:"history_turns"`
	MaxContextChars        int     `toml:"max_context_chars"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		ListenAddr: DefaultListenAddr,
		LogLevel:   "info",
		OpenAI: OpenAIConfig{
			AnswerModel: "gpt-4o-mini",
			EmbedModel:  "text-embedding-3-small",
			EmbedDim:    1536,
		},
		Ingest: IngestConfig{
			FetchTimeoutSeconds: DefaultFetchTimeoutSeconds,
			MaxDocumentBytes:    DefaultMaxDocumentBytes,
			ChunkSize:           DefaultChunkSize,
			ChunkOverlap:        DefaultChunkOverlap,
			Workers:             DefaultWorkers,
			LexicalDim:          DefaultLexicalDimensions,
		},
		Retrieval: RetrievalConfig{
			MaxCitations:   DefaultMaxCitations,
			Oversample:     DefaultOversample,
			MinCandidates:  DefaultMinCandidates,
			PerDocumentCap: DefaultPerDocumentCap,
			RelevanceFloor: DefaultRelevanceFloor,
		},
		Chat: ChatConfig{
			ConfidenceThreshold:    DefaultConfidenceThreshold,
			MaxClarificationRounds: DefaultMaxClarificationRounds,
			HistoryTurns:           DefaultHistoryTurns,
			MaxContextChars:        DefaultMaxContextChars,
		},
	}
}

// Load reads configuration from path (optional) and applies environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("chunk_overlap %d must be smaller than chunk_size %d",
			cfg.Ingest.ChunkOverlap, cfg.Ingest.ChunkSize)
	}

	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PRAETOR_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PRAETOR_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("PRAETOR_ADMIN_TOKEN"); v != "" {
		c.AdminToken = v
	}
	if v := os.Getenv("PRAETOR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("PRAETOR_ANSWER_MODEL"); v != "" {
		c.OpenAI.AnswerModel = v
	}
	if v := os.Getenv("PRAETOR_EMBED_MODEL"); v != "" {
		c.OpenAI.EmbedModel = v
	}
	if v := os.Getenv("PRAETOR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ingest.Workers = n
		}
	}
}

// EmbeddingEnabled reports whether an embedding backend is configured.
// Placeholder keys count as unconfigured, same as a missing key.
func (c *Config) EmbeddingEnabled() bool {
	switch c.OpenAI.APIKey {
	case "", "changeme", "change-me", "your-openai-key":
		return false
	}
	return true
}
