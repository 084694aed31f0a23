// Package cmd provides CLI commands for the tubemind tool.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tubemind/asr"
	"tubemind/brain"
	"tubemind/config"
	"tubemind/fetcher"
	"tubemind/indexer"
	"tubemind/llm"
	"tubemind/server"
	"tubemind/storage"
	"tubemind/summarizer"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tubemind",
	Short: "Turn videos into queryable knowledge bases",
	Long: `tubemind ingests a video's audio track, transcribes it, builds a
hierarchical summary, and indexes the transcript for retrieval, so you
can ask questions about the video and get timestamp-cited answers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// app bundles the wired pipeline components.
type app struct {
	cfg          *config.Config
	log          zerolog.Logger
	store        storage.VectorStore
	orchestrator *indexer.Orchestrator
	engine       *brain.Engine
}

func buildApp(ctx context.Context) (*app, error) {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := llm.NewClient(cfg)
	store := storage.New(ctx, cfg, client.OpenAI(), log)

	fetch := fetcher.NewYtDlpFetcher(cfg.YtDlpPath, log)
	if err := fetch.CheckBinary(); err != nil {
		log.Warn().Err(err).Msg("yt-dlp not found, ingestion will fail")
	}

	transcriber := asr.NewWhisperTranscriber(client.OpenAI(), cfg)
	summ := summarizer.New(client, cfg.SummaryChunkSize, cfg.SummaryWorkers, log)

	return &app{
		cfg:          cfg,
		log:          log,
		store:        store,
		orchestrator: indexer.NewOrchestrator(fetch, transcriber, summ, store, cfg.ChunkSize, log),
		engine:       brain.NewEngine(store, client, cfg.TopK, log),
	}, nil
}

func (a *app) server() *server.Server {
	return server.New(a.orchestrator, a.engine, a.log)
}
