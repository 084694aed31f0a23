package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubemind/core"
)

func makeSegments(texts []string, segLen float64) []core.Segment {
	segs := make([]core.Segment, len(texts))
	for i, txt := range texts {
		segs[i] = core.Segment{
			Start: float64(i) * segLen,
			End:   float64(i+1) * segLen,
			Text:  txt,
		}
	}
	return segs
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, Split(nil, 1000))
	assert.Empty(t, Split([]core.Segment{}, 1000))
}

func TestSplitCoversFullTextInOrder(t *testing.T) {
	texts := []string{"alpha beta", "gamma", "delta epsilon zeta", "eta", "theta iota"}
	segs := makeSegments(texts, 10)

	chunks := Split(segs, 15)
	require.NotEmpty(t, chunks)

	var joined []string
	for _, c := range chunks {
		joined = append(joined, c.Text)
	}
	assert.Equal(t, strings.Join(texts, " "), strings.Join(joined, " "))
}

func TestSplitTimeSpans(t *testing.T) {
	segs := makeSegments([]string{
		strings.Repeat("a", 400),
		strings.Repeat("b", 400),
		strings.Repeat("c", 300),
		strings.Repeat("d", 100),
	}, 30)

	chunks := Split(segs, 1000)
	require.Len(t, chunks, 2)

	// First chunk crosses the threshold on the third segment.
	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 90.0, chunks[0].End)

	// Remainder opens at the fourth segment and closes at the last end.
	assert.Equal(t, 90.0, chunks[1].Start)
	assert.Equal(t, 120.0, chunks[1].End)

	for _, c := range chunks {
		assert.LessOrEqual(t, c.Start, c.End)
	}
	assert.LessOrEqual(t, chunks[0].Start, chunks[1].Start, "chunk starts must be monotonic")
}

func TestSplitNeverBreaksMidSegment(t *testing.T) {
	// One segment far beyond the threshold still comes out as one chunk.
	big := strings.Repeat("x", 5000)
	segs := []core.Segment{{Start: 0, End: 60, Text: big}}

	chunks := Split(segs, 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, big, chunks[0].Text)
	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 60.0, chunks[0].End)
}

func TestSplitFlushAtExactThreshold(t *testing.T) {
	segs := makeSegments([]string{
		strings.Repeat("a", 500),
		strings.Repeat("b", 499), // 500 + separator + 499 = 1000
		"tail",
	}, 5)

	chunks := Split(segs, 1000)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Text, 1000)
	assert.Equal(t, "tail", chunks[1].Text)
}

func TestSplitNoEmptyChunks(t *testing.T) {
	segs := makeSegments([]string{"one", "two", "three"}, 2)
	for _, c := range Split(segs, 4) {
		assert.NotEmpty(t, c.Text)
	}
}

func TestJoinTranscript(t *testing.T) {
	segs := []core.Segment{
		{Text: " hello "},
		{Text: "world"},
	}
	assert.Equal(t, "hello world", JoinTranscript(segs))
	assert.Equal(t, "", JoinTranscript(nil))
}
