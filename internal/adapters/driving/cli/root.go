// Package cli implements the praetor command line interface.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/praetor-labs/praetor/internal/core/ports/driving"
)

// version is the build version, overridable via ldflags.
var version = "dev"

// Wired driving ports. Set once from main before Execute.
var (
	ingestService driving.Ingestor
	chatService   driving.Conversationalist
)

// serveConfig holds what the serve command needs beyond the ports.
var serveConfig *ServeConfig

// WorkerRunner starts and stops the background ingestion workers.
type WorkerRunner interface {
	Start(ctx context.Context)
	Stop()
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Handler    http.Handler
	ListenAddr string
	Workers    WorkerRunner
}

var rootCmd = &cobra.Command{
	Use:   "praetor",
	Short: "Legal document retrieval and question answering",
	Long: `Praetor ingests legal acts from public sources, indexes them for
semantic retrieval and answers questions with citations into the
ingested corpus.`,
	SilenceUsage: true,
}

// SetServices wires the driving ports into the commands.
func SetServices(ingestor driving.Ingestor, chats driving.Conversationalist) {
	ingestService = ingestor
	chatService = chats
}

// SetServeConfig wires the HTTP server for the serve command.
func SetServeConfig(cfg *ServeConfig) {
	serveConfig = cfg
}

// SetVersion overrides the reported build version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
