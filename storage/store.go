// Package storage provides the per-video record store: batch upsert,
// fetch-by-id and nearest-neighbor search, scoped by namespace (video ID).
// Embeddings are computed inside the store backends; callers only ever see
// text.
package storage

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"tubemind/config"
	"tubemind/core"
)

// VectorStore abstracts the storage backend. All operations are scoped by
// namespace; a namespace holds one summary card plus the video's chunks.
// Errors carry core.ErrStoreWrite / core.ErrStoreRead / core.ErrStoreSearch.
type VectorStore interface {
	// Upsert writes the batch, replacing records with matching IDs.
	Upsert(ctx context.Context, namespace string, records []core.Record) error
	// FetchByID returns the record or (nil, nil) when absent.
	FetchByID(ctx context.Context, namespace, id string) (*core.Record, error)
	// Search returns up to topK records ranked by similarity to the query.
	Search(ctx context.Context, namespace, query string, topK int) ([]core.Hit, error)
	// DeleteNamespace removes every record of the namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
}

// New selects the backend from config. A backend that cannot initialize
// degrades to the in-memory store with a warning rather than failing startup.
func New(ctx context.Context, cfg *config.Config, oa *openai.Client, log zerolog.Logger) VectorStore {
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "pgvector":
		s, err := NewPgVectorStore(ctx, cfg, oa)
		if err != nil {
			log.Warn().Err(err).Msg("pgvector store unavailable, falling back to memory store")
			return NewMemoryVectorStore()
		}
		log.Info().Msg("pgvector store initialized")
		return s
	case "milvus":
		s, err := NewMilvusVectorStore(ctx, cfg, oa)
		if err != nil {
			log.Warn().Err(err).Msg("milvus store unavailable, falling back to memory store")
			return NewMemoryVectorStore()
		}
		log.Info().Msg("milvus store initialized")
		return s
	default:
		log.Info().Msg("memory store initialized")
		return NewMemoryVectorStore()
	}
}
