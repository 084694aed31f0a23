package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	openai "github.com/sashabaranov/go-openai"

	"tubemind/config"
	"tubemind/core"
)

const milvusCollection = "video_records"

// MilvusVectorStore persists records in a Milvus collection with an HNSW
// cosine index.
type MilvusVectorStore struct {
	mc   client.Client
	coll string
	dim  int
	emb  embedder
}

func NewMilvusVectorStore(ctx context.Context, cfg *config.Config, oa *openai.Client) (*MilvusVectorStore, error) {
	mc, err := client.NewClient(ctx, client.Config{Address: cfg.MilvusAddr})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	s := &MilvusVectorStore{
		mc:   mc,
		coll: milvusCollection,
		dim:  embeddingDim,
		emb:  embedder{cli: oa, model: cfg.EmbeddingModel},
	}
	if err := s.ensureSchemaAndIndex(ctx); err != nil {
		mc.Close()
		return nil, err
	}
	return s, nil
}

func (s *MilvusVectorStore) ensureSchemaAndIndex(ctx context.Context) error {
	has, err := s.mc.HasCollection(ctx, s.coll)
	if err != nil {
		return err
	}
	if !has {
		schema := entity.NewSchema()
		schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("video_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(128))
		schema.WithField(entity.NewField().WithName("record_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(128))
		schema.WithField(entity.NewField().WithName("start_time").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("end_time").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("text").WithDataType(entity.FieldTypeVarChar).WithMaxLength(8192))
		schema.WithField(entity.NewField().WithName("title").WithDataType(entity.FieldTypeVarChar).WithMaxLength(512))
		schema.WithField(entity.NewField().WithName("url").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024))
		schema.WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.mc.CreateCollection(ctx, schema, int32(2)); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return fmt.Errorf("new hnsw index: %w", err)
	}
	if err := s.mc.CreateIndex(ctx, s.coll, "vector", idx, false, client.WithIndexName("idx_vector")); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.mc.LoadCollection(ctx, s.coll, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

func escapeExpr(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

func (s *MilvusVectorStore) Upsert(ctx context.Context, namespace string, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	// Replace-by-id: drop matching record IDs first, the collection has no
	// natural upsert key besides the auto primary key.
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, fmt.Sprintf("%q", escapeExpr(rec.ID)))
	}
	expr := fmt.Sprintf(`video_id == "%s" && record_id in [%s]`, escapeExpr(namespace), strings.Join(ids, ", "))
	if err := s.mc.Delete(ctx, s.coll, "", expr); err != nil {
		return fmt.Errorf("%w: delete stale records: %v", core.ErrStoreWrite, err)
	}

	videoIDs := make([]string, 0, len(records))
	recordIDs := make([]string, 0, len(records))
	starts := make([]float64, 0, len(records))
	ends := make([]float64, 0, len(records))
	texts := make([]string, 0, len(records))
	titles := make([]string, 0, len(records))
	urls := make([]string, 0, len(records))
	vectors := make([][]float32, 0, len(records))

	for _, rec := range records {
		v, err := s.emb.embed(ctx, rec.Text)
		if err != nil {
			return fmt.Errorf("%w: embed record %s: %v", core.ErrStoreWrite, rec.ID, err)
		}
		videoIDs = append(videoIDs, namespace)
		recordIDs = append(recordIDs, rec.ID)
		starts = append(starts, rec.StartTime)
		ends = append(ends, rec.EndTime)
		texts = append(texts, rec.Text)
		titles = append(titles, rec.Title)
		urls = append(urls, rec.URL)
		vectors = append(vectors, v)
	}

	_, err := s.mc.Insert(ctx, s.coll, "",
		entity.NewColumnVarChar("video_id", videoIDs),
		entity.NewColumnVarChar("record_id", recordIDs),
		entity.NewColumnDouble("start_time", starts),
		entity.NewColumnDouble("end_time", ends),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnVarChar("title", titles),
		entity.NewColumnVarChar("url", urls),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %v", core.ErrStoreWrite, err)
	}
	return nil
}

func (s *MilvusVectorStore) FetchByID(ctx context.Context, namespace, id string) (*core.Record, error) {
	expr := fmt.Sprintf(`video_id == "%s" && record_id == "%s"`, escapeExpr(namespace), escapeExpr(id))
	rs, err := s.mc.Query(ctx, s.coll, nil, expr, []string{"record_id", "text", "start_time", "end_time", "title", "url"})
	if err != nil {
		return nil, fmt.Errorf("%w: query %s/%s: %v", core.ErrStoreRead, namespace, id, err)
	}

	cols := map[string]entity.Column{}
	n := 0
	for _, c := range rs {
		cols[c.Name()] = c
		n = c.Len()
	}
	if n == 0 {
		return nil, nil
	}

	rec := core.Record{
		ID:        varcharAt(cols, "record_id", 0),
		Text:      varcharAt(cols, "text", 0),
		StartTime: doubleAt(cols, "start_time", 0),
		EndTime:   doubleAt(cols, "end_time", 0),
		Title:     varcharAt(cols, "title", 0),
		URL:       varcharAt(cols, "url", 0),
	}
	return &rec, nil
}

func (s *MilvusVectorStore) Search(ctx context.Context, namespace, query string, topK int) ([]core.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	v, err := s.emb.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", core.ErrStoreSearch, err)
	}

	sp, _ := entity.NewIndexHNSWSearchParam(74)
	filter := fmt.Sprintf(`video_id == "%s" && record_id != "%s"`, escapeExpr(namespace), core.SummaryCardID)
	res, err := s.mc.Search(ctx, s.coll, []string{}, filter,
		[]string{"record_id", "text", "start_time", "end_time"},
		[]entity.Vector{entity.FloatVector(v)}, "vector", entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", core.ErrStoreSearch, err)
	}

	var hits []core.Hit
	for _, r := range res {
		cols := map[string]entity.Column{}
		for _, c := range r.Fields {
			cols[c.Name()] = c
		}
		for i := 0; i < r.ResultCount; i++ {
			hits = append(hits, core.Hit{
				Score:     float64(r.Scores[i]),
				ID:        varcharAt(cols, "record_id", i),
				Text:      varcharAt(cols, "text", i),
				StartTime: doubleAt(cols, "start_time", i),
				EndTime:   doubleAt(cols, "end_time", i),
			})
		}
	}
	return hits, nil
}

func (s *MilvusVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	expr := fmt.Sprintf(`video_id == "%s"`, escapeExpr(namespace))
	if err := s.mc.Delete(ctx, s.coll, "", expr); err != nil {
		return fmt.Errorf("%w: delete namespace %s: %v", core.ErrStoreWrite, namespace, err)
	}
	return nil
}

// Close releases the Milvus connection.
func (s *MilvusVectorStore) Close() error {
	return s.mc.Close()
}

func varcharAt(cols map[string]entity.Column, name string, i int) string {
	if c, ok := cols[name].(*entity.ColumnVarChar); ok {
		data := c.Data()
		if i < len(data) {
			return data[i]
		}
	}
	return ""
}

func doubleAt(cols map[string]entity.Column, name string, i int) float64 {
	if c, ok := cols[name].(*entity.ColumnDouble); ok {
		data := c.Data()
		if i < len(data) {
			return data[i]
		}
	}
	return 0
}
