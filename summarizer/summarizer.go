// Package summarizer produces one comprehensive summary from an arbitrarily
// long transcript via map-reduce over completion calls.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tubemind/core"
	"tubemind/llm"
)

const (
	directPrompt = "Summarize this video transcript in detail:\n"
	mapPrompt    = "Summarize this segment of a video transcript in detail:\n"
	reducePrompt = "Here are summaries of different parts of a video, in chronological order.\n" +
		"Combine them into one cohesive, comprehensive summary of the entire video.\n\n" +
		"Partial Summaries:\n"
)

// Summarizer runs hierarchical summarization against a completion client.
// chunkSize is a character count; transcripts below it are summarized in a
// single call, longer ones go through map-reduce. It does not retry; retry
// policy belongs to the completion client.
type Summarizer struct {
	llm       llm.Completer
	chunkSize int
	workers   int
	log       zerolog.Logger
}

// New builds a Summarizer. workers bounds map-phase parallelism; 1 keeps the
// map phase sequential.
func New(completer llm.Completer, chunkSize, workers int, log zerolog.Logger) *Summarizer {
	if workers < 1 {
		workers = 1
	}
	return &Summarizer{llm: completer, chunkSize: chunkSize, workers: workers, log: log}
}

// Summarize returns one summary string for the full transcript.
func (s *Summarizer) Summarize(ctx context.Context, fullText string) (string, error) {
	if len(fullText) < s.chunkSize {
		s.log.Debug().Int("chars", len(fullText)).Msg("transcript is short, summarizing directly")
		out, err := s.llm.Complete(ctx, "", directPrompt+fullText)
		if err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrSummarization, err)
		}
		return out, nil
	}

	slices := sliceText(fullText, s.chunkSize)
	s.log.Info().Int("chars", len(fullText)).Int("slices", len(slices)).Msg("transcript is long, using map-reduce")

	partials := make([]string, len(slices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, slice := range slices {
		g.Go(func() error {
			out, err := s.llm.Complete(gctx, "", mapPrompt+slice)
			if err != nil {
				return err
			}
			partials[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrSummarization, err)
	}

	// Reduce over the partials reassembled in original slice order.
	combined := strings.Join(partials, " ")
	out, err := s.llm.Complete(ctx, "", reducePrompt+combined)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrSummarization, err)
	}
	return out, nil
}

// sliceText cuts text into consecutive chunkSize-character slices; the last
// slice may be shorter.
func sliceText(text string, chunkSize int) []string {
	slices := make([]string, 0, (len(text)+chunkSize-1)/chunkSize)
	for i := 0; i < len(text); i += chunkSize {
		end := i + chunkSize
		if end > len(text) {
			end = len(text)
		}
		slices = append(slices, text[i:end])
	}
	return slices
}
