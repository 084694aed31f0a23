// Package asr wraps the speech-to-text collaborator. The production provider
// calls an OpenAI-compatible transcription endpoint with verbose JSON output
// so time-coded segments come back; the mock fabricates segments for tests
// and offline runs.
package asr

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"tubemind/config"
	"tubemind/core"
)

// Transcriber turns an audio file into an ordered, chronological sequence of
// segments. Errors carry core.ErrTranscription.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]core.Segment, error)
}

// WhisperTranscriber calls the hosted Whisper model.
type WhisperTranscriber struct {
	cli   *openai.Client
	model string
}

// NewWhisperTranscriber builds a provider sharing the configured
// OpenAI-compatible endpoint.
func NewWhisperTranscriber(cli *openai.Client, cfg *config.Config) *WhisperTranscriber {
	return &WhisperTranscriber{cli: cli, model: cfg.WhisperModel}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) ([]core.Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	resp, err := w.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTranscription, err)
	}

	segments := make([]core.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, core.Segment{Start: s.Start, End: s.End, Text: text})
	}

	// Some providers omit segments for very short clips; fall back to one
	// segment spanning the reported duration.
	if len(segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: empty transcription result", core.ErrTranscription)
		}
		segments = []core.Segment{{Start: 0, End: resp.Duration, Text: text}}
	}
	return segments, nil
}

// MockTranscriber returns canned segments.
type MockTranscriber struct {
	Segments []core.Segment
	Err      error
}

func (m *MockTranscriber) Transcribe(_ context.Context, _ string) ([]core.Segment, error) {
	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTranscription, m.Err)
	}
	return m.Segments, nil
}
