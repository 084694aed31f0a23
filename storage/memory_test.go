package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubemind/core"
)

func seedNamespace(t *testing.T, s *MemoryVectorStore, ns string) {
	t.Helper()
	records := []core.Record{
		core.SummaryCard("This video explains goroutines and channels in Go.", core.VideoMeta{VideoID: ns}),
		{ID: ns + "_1", Text: "goroutines are lightweight threads managed by the runtime", StartTime: 0, EndTime: 42},
		{ID: ns + "_2", Text: "channels let goroutines communicate safely", StartTime: 42, EndTime: 90},
		{ID: ns + "_3", Text: "the select statement waits on multiple channels", StartTime: 90, EndTime: 140},
	}
	require.NoError(t, s.Upsert(context.Background(), ns, records))
}

func TestMemoryStoreFetchByID(t *testing.T) {
	s := NewMemoryVectorStore()
	seedNamespace(t, s, "vid1")

	rec, err := s.FetchByID(context.Background(), "vid1", core.SummaryCardID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.IsSummaryCard())

	absent, err := s.FetchByID(context.Background(), "vid1", "nope")
	require.NoError(t, err)
	assert.Nil(t, absent)

	otherNS, err := s.FetchByID(context.Background(), "vid2", core.SummaryCardID)
	require.NoError(t, err)
	assert.Nil(t, otherNS, "namespaces must be isolated")
}

func TestMemoryStoreSearchRanksRelevantChunks(t *testing.T) {
	s := NewMemoryVectorStore()
	seedNamespace(t, s, "vid1")

	hits, err := s.Search(context.Background(), "vid1", "how do channels communicate", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "vid1_2", hits[0].ID)

	for _, h := range hits {
		assert.NotEqual(t, core.SummaryCardID, h.ID, "summary card must not appear in search results")
	}
}

func TestMemoryStoreSearchTopK(t *testing.T) {
	s := NewMemoryVectorStore()
	seedNamespace(t, s, "vid1")

	hits, err := s.Search(context.Background(), "vid1", "goroutines channels select", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), 2)
}

func TestMemoryStoreUpsertReplacesByID(t *testing.T) {
	s := NewMemoryVectorStore()
	seedNamespace(t, s, "vid1")

	updated := []core.Record{{ID: "vid1_1", Text: "updated text", StartTime: 0, EndTime: 42}}
	require.NoError(t, s.Upsert(context.Background(), "vid1", updated))

	rec, err := s.FetchByID(context.Background(), "vid1", "vid1_1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "updated text", rec.Text)
}

func TestMemoryStoreDeleteNamespace(t *testing.T) {
	s := NewMemoryVectorStore()
	seedNamespace(t, s, "vid1")
	seedNamespace(t, s, "vid2")

	require.NoError(t, s.DeleteNamespace(context.Background(), "vid1"))

	rec, err := s.FetchByID(context.Background(), "vid1", core.SummaryCardID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = s.FetchByID(context.Background(), "vid2", core.SummaryCardID)
	require.NoError(t, err)
	assert.NotNil(t, rec, "other namespaces survive")
}

func TestMemoryStoreSearchUnknownNamespace(t *testing.T) {
	s := NewMemoryVectorStore()
	hits, err := s.Search(context.Background(), "missing", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
