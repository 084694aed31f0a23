// Package segmenter groups time-coded transcript segments into bounded-size
// text chunks with preserved time spans.
package segmenter

import (
	"strings"

	"tubemind/core"
)

// Chunk is one flushed accumulator: space-joined segment text plus the time
// span it covers. Record IDs are assigned by the caller.
type Chunk struct {
	Text  string
	Start float64
	End   float64
}

// Split accumulates segment text in order and flushes a chunk whenever the
// accumulator reaches chunkSize characters. Flushes happen only at segment
// boundaries, so a chunk may overshoot chunkSize by at most one segment's
// length; a single oversized segment still comes out as one chunk. The
// trailing remainder is flushed with the last segment's end time.
func Split(segments []core.Segment, chunkSize int) []Chunk {
	var chunks []Chunk
	var acc strings.Builder
	var chunkStart float64

	for _, seg := range segments {
		if acc.Len() == 0 {
			chunkStart = seg.Start
		} else {
			acc.WriteString(" ")
		}
		acc.WriteString(seg.Text)

		if acc.Len() >= chunkSize {
			chunks = append(chunks, Chunk{
				Text:  strings.TrimSpace(acc.String()),
				Start: chunkStart,
				End:   seg.End,
			})
			acc.Reset()
		}
	}

	if acc.Len() > 0 {
		chunks = append(chunks, Chunk{
			Text:  strings.TrimSpace(acc.String()),
			Start: chunkStart,
			End:   segments[len(segments)-1].End,
		})
	}
	return chunks
}

// JoinTranscript concatenates segment texts with single spaces into the full
// transcript string handed to the summarizer.
func JoinTranscript(segments []core.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return strings.Join(parts, " ")
}
