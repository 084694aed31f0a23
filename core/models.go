package core

import (
	"fmt"
)

// SummaryCardID is the reserved record ID that holds the per-video global
// summary. Ordinary chunks must never use it; it is the only thing that
// distinguishes "the summary" from "a chunk" inside the record store.
const SummaryCardID = "global_summary"

// SummaryCardTitle marks the summary card record.
const SummaryCardTitle = "SUMMARY_CARD"

// Segment is one time-coded speech unit as returned by the transcription
// provider. Segments arrive chronological and non-overlapping.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// VideoMeta identifies the source video. It is carried on every record
// rather than stored as a separate entity.
type VideoMeta struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Record is the uniform unit stored in a video's namespace: either one
// summary card or one transcript chunk.
type Record struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
}

// IsSummaryCard reports whether the record is the reserved global summary.
func (r Record) IsSummaryCard() bool { return r.ID == SummaryCardID }

// SummaryCard builds the singleton summary record for a video.
func SummaryCard(summary string, meta VideoMeta) Record {
	return Record{
		ID:        SummaryCardID,
		Text:      summary,
		StartTime: 0.0,
		EndTime:   0.0,
		Title:     SummaryCardTitle,
		URL:       meta.URL,
	}
}

// Hit is one ranked nearest-neighbor search result.
type Hit struct {
	Score     float64 `json:"score"`
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// FormatTimestamp renders seconds as HH:MM:SS with the fractional part
// truncated. Hours are unbounded; negative inputs clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
