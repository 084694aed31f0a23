// Package indexer sequences a video's ingestion: acquire audio, transcribe,
// summarize, segment, and upsert the resulting records into the video's
// namespace.
package indexer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tubemind/asr"
	"tubemind/core"
	"tubemind/fetcher"
	"tubemind/segmenter"
	"tubemind/storage"
)

// SummaryUnavailable replaces the summary card text when summarization
// fails; a missing summary never aborts ingestion.
const SummaryUnavailable = "Summary unavailable."

// Summarizer is the hierarchical summarization collaborator.
type Summarizer interface {
	Summarize(ctx context.Context, fullText string) (string, error)
}

// Orchestrator wires the ingestion collaborators. All dependencies are
// injected so tests can substitute fakes.
type Orchestrator struct {
	fetcher    fetcher.MediaFetcher
	asr        asr.Transcriber
	summarizer Summarizer
	store      storage.VectorStore
	chunkSize  int
	log        zerolog.Logger
}

func NewOrchestrator(f fetcher.MediaFetcher, t asr.Transcriber, s Summarizer, store storage.VectorStore, chunkSize int, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{fetcher: f, asr: t, summarizer: s, store: store, chunkSize: chunkSize, log: log}
}

// Ingest processes one video URL end to end and returns the video's identity.
// Acquisition, transcription and store-write failures are fatal; a failed
// summarization degrades to a placeholder card. Re-ingesting a video clears
// its namespace first, so the last ingestion wins wholesale.
func (o *Orchestrator) Ingest(ctx context.Context, url string) (videoID, title string, err error) {
	media, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", "", err
	}
	defer media.Cleanup()
	meta := media.Meta

	log := o.log.With().Str("video_id", meta.VideoID).Logger()
	log.Info().Str("title", meta.Title).Msg("transcribing audio")

	segments, err := o.asr.Transcribe(ctx, media.AudioPath)
	if err != nil {
		return "", "", err
	}

	fullText := segmenter.JoinTranscript(segments)
	log.Info().Int("segments", len(segments)).Int("chars", len(fullText)).Msg("generating summary")

	summary, err := o.summarizer.Summarize(ctx, fullText)
	if err != nil {
		log.Warn().Err(err).Msg("summarization failed, storing placeholder")
		summary = SummaryUnavailable
	}

	records := buildRecords(summary, segments, meta, o.chunkSize)

	if err := o.store.DeleteNamespace(ctx, meta.VideoID); err != nil {
		return "", "", err
	}
	if err := o.store.Upsert(ctx, meta.VideoID, records); err != nil {
		return "", "", err
	}

	log.Info().Int("records", len(records)).Msg("ingestion complete")
	return meta.VideoID, meta.Title, nil
}

// buildRecords assembles the namespace batch: the summary card first, then
// the transcript chunks. Chunk IDs are {video_id}_{n} where n counts records
// already produced, so the card's slot makes chunk numbering start at 1.
func buildRecords(summary string, segments []core.Segment, meta core.VideoMeta, chunkSize int) []core.Record {
	records := []core.Record{core.SummaryCard(summary, meta)}
	for _, chunk := range segmenter.Split(segments, chunkSize) {
		records = append(records, core.Record{
			ID:        fmt.Sprintf("%s_%d", meta.VideoID, len(records)),
			Text:      chunk.Text,
			StartTime: chunk.Start,
			EndTime:   chunk.End,
			Title:     meta.Title,
			URL:       meta.URL,
		})
	}
	return records
}
