package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"

	"tubemind/config"
	"tubemind/core"
)

const embeddingDim = 1536

// PgVectorStore persists records in PostgreSQL with pgvector cosine search.
type PgVectorStore struct {
	conn *pgx.Conn
	emb  embedder
}

func NewPgVectorStore(ctx context.Context, cfg *config.Config, oa *openai.Client) (*PgVectorStore, error) {
	conn, err := pgx.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PgVectorStore{conn: conn, emb: embedder{cli: oa, model: cfg.EmbeddingModel}}
	if err := s.ensureSchema(ctx); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *PgVectorStore) ensureSchema(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	recordsQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS video_records (
			id SERIAL PRIMARY KEY,
			video_id VARCHAR(255) NOT NULL,
			record_id VARCHAR(255) NOT NULL,
			start_time FLOAT NOT NULL,
			end_time FLOAT NOT NULL,
			text TEXT NOT NULL,
			title VARCHAR(500),
			url VARCHAR(1000),
			embedding vector(%d),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(video_id, record_id)
		);
	`, embeddingDim)
	if _, err := s.conn.Exec(ctx, recordsQuery); err != nil {
		return fmt.Errorf("create video_records table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_video_records_video_id ON video_records(video_id);",
		`CREATE INDEX IF NOT EXISTS idx_video_records_embedding
			ON video_records USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
	}
	for _, q := range indexes {
		if _, err := s.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, namespace string, records []core.Record) error {
	for _, rec := range records {
		embedding, err := s.emb.embed(ctx, rec.Text)
		if err != nil {
			return fmt.Errorf("%w: embed record %s: %v", core.ErrStoreWrite, rec.ID, err)
		}
		_, err = s.conn.Exec(ctx, `
			INSERT INTO video_records (video_id, record_id, start_time, end_time, text, title, url, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (video_id, record_id)
			DO UPDATE SET
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				text = EXCLUDED.text,
				title = EXCLUDED.title,
				url = EXCLUDED.url,
				embedding = EXCLUDED.embedding
		`, namespace, rec.ID, rec.StartTime, rec.EndTime, rec.Text, rec.Title, rec.URL, pgvector.NewVector(embedding))
		if err != nil {
			return fmt.Errorf("%w: insert record %s: %v", core.ErrStoreWrite, rec.ID, err)
		}
	}
	return nil
}

func (s *PgVectorStore) FetchByID(ctx context.Context, namespace, id string) (*core.Record, error) {
	var rec core.Record
	err := s.conn.QueryRow(ctx, `
		SELECT record_id, text, start_time, end_time, COALESCE(title, ''), COALESCE(url, '')
		FROM video_records
		WHERE video_id = $1 AND record_id = $2
	`, namespace, id).Scan(&rec.ID, &rec.Text, &rec.StartTime, &rec.EndTime, &rec.Title, &rec.URL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s/%s: %v", core.ErrStoreRead, namespace, id, err)
	}
	return &rec, nil
}

func (s *PgVectorStore) Search(ctx context.Context, namespace, query string, topK int) ([]core.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	queryEmbedding, err := s.emb.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", core.ErrStoreSearch, err)
	}
	vec := pgvector.NewVector(queryEmbedding)

	rows, err := s.conn.Query(ctx, `
		SELECT record_id, text, start_time, end_time,
			   1 - (embedding <=> $1) AS similarity
		FROM video_records
		WHERE video_id = $2 AND record_id <> $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`, vec, namespace, core.SummaryCardID, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", core.ErrStoreSearch, err)
	}
	defer rows.Close()

	var hits []core.Hit
	for rows.Next() {
		var h core.Hit
		if err := rows.Scan(&h.ID, &h.Text, &h.StartTime, &h.EndTime, &h.Score); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", core.ErrStoreSearch, err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", core.ErrStoreSearch, err)
	}
	return hits, nil
}

func (s *PgVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := s.conn.Exec(ctx, "DELETE FROM video_records WHERE video_id = $1", namespace); err != nil {
		return fmt.Errorf("%w: delete namespace %s: %v", core.ErrStoreWrite, namespace, err)
	}
	return nil
}

// Close releases the database connection.
func (s *PgVectorStore) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
