// Package brain answers questions about an ingested video with two-phase
// hybrid retrieval: a tolerant fetch of the global summary card, then a
// strict nearest-neighbor search for specific chunks, both grounding a
// single completion call.
package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tubemind/core"
	"tubemind/llm"
	"tubemind/storage"
)

// summaryFallback stands in for the global context when the summary card is
// absent or unreadable; its absence never aborts a question.
const summaryFallback = "Summary not available."

const systemPromptTemplate = `You are an expert AI video tutor.

--- GLOBAL CONTEXT (video summary) ---
%s

--- SPECIFIC SEARCH RESULTS ---
%s

INSTRUCTIONS:
1. If the user asks a general question (e.g. "What is the video about?"), use the GLOBAL CONTEXT.
2. If the user asks a specific question, use the SPECIFIC SEARCH RESULTS. Define terms or provide examples to make the answer easier to understand.
3. You may use your own general knowledge to explain concepts, but facts about the video must come from the context above.
4. Always cite the bracketed timestamp (e.g. [00:05:20]) when you use information from a specific chunk.
5. If the answer is not in the video, say "I couldn't find that in the video."`

// Engine answers questions against one video's namespace.
type Engine struct {
	store storage.VectorStore
	llm   llm.Completer
	topK  int
	log   zerolog.Logger
}

func NewEngine(store storage.VectorStore, completer llm.Completer, topK int, log zerolog.Logger) *Engine {
	if topK <= 0 {
		topK = 5
	}
	return &Engine{store: store, llm: completer, topK: topK, log: log}
}

// Answer returns a display-ready answer string. It never returns an error:
// failures come back as readable sentences starting with "Error:".
func (e *Engine) Answer(ctx context.Context, question, videoID string) string {
	log := e.log.With().Str("video_id", videoID).Logger()

	// Phase 1: global context. Tolerant of absence and read failures.
	globalContext := summaryFallback
	card, err := e.store.FetchByID(ctx, videoID, core.SummaryCardID)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("summary fetch failed, continuing without global context")
	case card == nil:
		log.Warn().Msg("no summary card in namespace")
	default:
		globalContext = card.Text
	}

	// Phase 2: specific chunks. A failed search is fatal to the question.
	hits, err := e.store.Search(ctx, videoID, question, e.topK)
	if err != nil {
		log.Error().Err(err).Msg("chunk search failed")
		return fmt.Sprintf("Error: could not search the video database: %v", err)
	}

	system := fmt.Sprintf(systemPromptTemplate, globalContext, formatHits(hits))
	answer, err := e.llm.Complete(ctx, system, "Question: "+question)
	if err != nil {
		log.Error().Err(err).Msg("answer generation failed")
		return fmt.Sprintf("Error: could not generate an answer: %v", err)
	}
	return answer
}

// formatHits prefixes each chunk with its bracketed start timestamp so the
// model can cite it, preserving the search ranking order.
func formatHits(hits []core.Hit) string {
	if len(hits) == 0 {
		return "(no matching chunks found)"
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s", core.FormatTimestamp(h.StartTime), h.Text))
	}
	return strings.Join(parts, "\n\n")
}
