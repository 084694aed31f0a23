package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubemind/asr"
	"tubemind/core"
	"tubemind/fetcher"
	"tubemind/storage"
)

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrSummarization, f.err)
	}
	return f.summary, nil
}

// failingStore rejects every write.
type failingStore struct {
	*storage.MemoryVectorStore
}

func (f *failingStore) Upsert(_ context.Context, _ string, _ []core.Record) error {
	return fmt.Errorf("%w: connection refused", core.ErrStoreWrite)
}

func testMedia() *fetcher.Media {
	return &fetcher.Media{
		AudioPath: "/tmp/fake.opus",
		Meta:      core.VideoMeta{VideoID: "vid42", Title: "Concurrency Patterns", URL: "https://youtu.be/vid42"},
		Cleanup:   func() {},
	}
}

// tenSegments yields 10 segments of 150 chars each (1509 chars joined), so a
// 1000-char threshold flushes after the seventh segment and the remainder
// forms a second chunk.
func tenSegments() []core.Segment {
	segs := make([]core.Segment, 10)
	for i := range segs {
		segs[i] = core.Segment{
			Start: float64(i) * 10,
			End:   float64(i+1) * 10,
			Text:  strings.Repeat(string(rune('a'+i)), 150),
		}
	}
	return segs
}

func newTestOrchestrator(store storage.VectorStore, sum Summarizer, transcriber asr.Transcriber) *Orchestrator {
	f := &fetcher.MockFetcher{Media: testMedia()}
	return NewOrchestrator(f, transcriber, sum, store, 1000, zerolog.Nop())
}

func TestIngestUpsertsSummaryCardPlusChunks(t *testing.T) {
	store := storage.NewMemoryVectorStore()
	orc := newTestOrchestrator(store, &fakeSummarizer{summary: "the summary"}, &asr.MockTranscriber{Segments: tenSegments()})

	videoID, title, err := orc.Ingest(context.Background(), "https://youtu.be/vid42")
	require.NoError(t, err)
	assert.Equal(t, "vid42", videoID)
	assert.Equal(t, "Concurrency Patterns", title)

	card, err := store.FetchByID(context.Background(), "vid42", core.SummaryCardID)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "the summary", card.Text)
	assert.Equal(t, core.SummaryCardTitle, card.Title)
	assert.Equal(t, 0.0, card.StartTime)
	assert.Equal(t, 0.0, card.EndTime)

	// Two chunks, numbered after the card.
	chunk1, err := store.FetchByID(context.Background(), "vid42", "vid42_1")
	require.NoError(t, err)
	require.NotNil(t, chunk1)
	chunk2, err := store.FetchByID(context.Background(), "vid42", "vid42_2")
	require.NoError(t, err)
	require.NotNil(t, chunk2)
	absent, err := store.FetchByID(context.Background(), "vid42", "vid42_3")
	require.NoError(t, err)
	assert.Nil(t, absent, "expected exactly 3 records: card + 2 chunks")

	// Chunks carry video metadata and cover the transcript span.
	assert.Equal(t, "Concurrency Patterns", chunk1.Title)
	assert.Equal(t, "https://youtu.be/vid42", chunk1.URL)
	assert.Equal(t, 0.0, chunk1.StartTime)
	assert.Equal(t, 70.0, chunk1.EndTime)
	assert.Equal(t, 70.0, chunk2.StartTime)
	assert.Equal(t, 100.0, chunk2.EndTime)
}

func TestIngestSummarizationFailureIsNonFatal(t *testing.T) {
	store := storage.NewMemoryVectorStore()
	orc := newTestOrchestrator(store, &fakeSummarizer{err: errors.New("model offline")}, &asr.MockTranscriber{Segments: tenSegments()})

	videoID, _, err := orc.Ingest(context.Background(), "https://youtu.be/vid42")
	require.NoError(t, err)

	card, err := store.FetchByID(context.Background(), videoID, core.SummaryCardID)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, SummaryUnavailable, card.Text)
}

func TestIngestFetchFailureIsFatal(t *testing.T) {
	store := storage.NewMemoryVectorStore()
	f := &fetcher.MockFetcher{Err: errors.New("video unavailable")}
	orc := NewOrchestrator(f, &asr.MockTranscriber{}, &fakeSummarizer{summary: "s"}, store, 1000, zerolog.Nop())

	_, _, err := orc.Ingest(context.Background(), "https://youtu.be/bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAcquisition))
}

func TestIngestTranscriptionFailureIsFatal(t *testing.T) {
	store := storage.NewMemoryVectorStore()
	orc := newTestOrchestrator(store, &fakeSummarizer{summary: "s"}, &asr.MockTranscriber{Err: errors.New("asr down")})

	_, _, err := orc.Ingest(context.Background(), "https://youtu.be/vid42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTranscription))
}

func TestIngestStoreWriteFailureIsFatal(t *testing.T) {
	store := &failingStore{storage.NewMemoryVectorStore()}
	orc := newTestOrchestrator(store, &fakeSummarizer{summary: "s"}, &asr.MockTranscriber{Segments: tenSegments()})

	_, _, err := orc.Ingest(context.Background(), "https://youtu.be/vid42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStoreWrite), "successful transcription must not mask the write failure")
}

func TestIngestReplacesNamespaceOnReingestion(t *testing.T) {
	store := storage.NewMemoryVectorStore()

	// First ingestion: long transcript, two chunks.
	orc := newTestOrchestrator(store, &fakeSummarizer{summary: "v1"}, &asr.MockTranscriber{Segments: tenSegments()})
	_, _, err := orc.Ingest(context.Background(), "https://youtu.be/vid42")
	require.NoError(t, err)

	// Second ingestion of the same video: a single short segment.
	short := []core.Segment{{Start: 0, End: 5, Text: "just one line"}}
	orc = newTestOrchestrator(store, &fakeSummarizer{summary: "v2"}, &asr.MockTranscriber{Segments: short})
	_, _, err = orc.Ingest(context.Background(), "https://youtu.be/vid42")
	require.NoError(t, err)

	card, err := store.FetchByID(context.Background(), "vid42", core.SummaryCardID)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "v2", card.Text)

	stale, err := store.FetchByID(context.Background(), "vid42", "vid42_2")
	require.NoError(t, err)
	assert.Nil(t, stale, "records from the first ingestion must be gone")
}

func TestBuildRecordsEmptyTranscript(t *testing.T) {
	meta := core.VideoMeta{VideoID: "v", Title: "t", URL: "u"}
	records := buildRecords("sum", nil, meta, 1000)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsSummaryCard())
}

func TestBuildRecordsInvariants(t *testing.T) {
	meta := core.VideoMeta{VideoID: "v", Title: "t", URL: "u"}
	records := buildRecords("sum", tenSegments(), meta, 1000)

	seen := map[string]bool{}
	prevStart := -1.0
	for i, rec := range records {
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
		assert.LessOrEqual(t, rec.StartTime, rec.EndTime)
		assert.NotEmpty(t, rec.Text)
		if i > 0 {
			assert.NotEqual(t, core.SummaryCardID, rec.ID)
			assert.GreaterOrEqual(t, rec.StartTime, prevStart, "chunk starts must be monotonic")
			prevStart = rec.StartTime
		}
	}
}
