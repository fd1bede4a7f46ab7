package splitter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
)

func TestSplitRejectsBadParams(t *testing.T) {
	_, err := Split("text", 0, 0)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = Split("text", 100, 100)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = Split("text", 100, -1)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks, err := Split("short text", 500, 50)
	require.NoError(t, err)
	require.Equal(t, []string{"short text"}, chunks)
}

func TestSplitEmptyText(t *testing.T) {
	chunks, err := Split("", 500, 50)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestSplitCoverageNoOverlap(t *testing.T) {
	// With zero overlap each chunk starts exactly where the previous one
	// ended, so plain concatenation must reproduce the input byte for byte.
	inputs := []string{
		strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40),
		strings.Repeat("first paragraph here.\n\nsecond paragraph follows.\n\n", 30),
		strings.Repeat("x", 1234),
	}
	for _, input := range inputs {
		chunks, err := Split(input, 100, 0)
		require.NoError(t, err)
		require.Equal(t, input, strings.Join(chunks, ""))
		for _, chunk := range chunks {
			require.LessOrEqual(t, len([]rune(chunk)), 100)
			require.NotEmpty(t, chunk)
		}
	}
}

func TestSplitCoverageWithOverlap(t *testing.T) {
	// Non-repeating input so the suffix/prefix matching below cannot lock
	// onto a spurious period in the text.
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "sentence number %d talks about refunds. ", i)
	}
	input := b.String()
	chunks, err := Split(input, 200, 30)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Strip each chunk's leading overlap by matching it against what has
	// already been reassembled; nothing may be lost or invented.
	rebuilt := chunks[0]
	for _, chunk := range chunks[1:] {
		max := len(chunk)
		if len(rebuilt) < max {
			max = len(rebuilt)
		}
		matched := 0
		for n := max; n > 0; n-- {
			if strings.HasSuffix(rebuilt, chunk[:n]) {
				matched = n
				break
			}
		}
		rebuilt += chunk[matched:]
	}
	require.Equal(t, input, rebuilt)
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("a", 80)
	input := para + "\n\n" + para + "\n\n" + para
	chunks, err := Split(input, 100, 0)
	require.NoError(t, err)
	require.Equal(t, 3, len(chunks))
	require.Equal(t, para+"\n\n", chunks[0])
	require.Equal(t, para+"\n\n", chunks[1])
	require.Equal(t, para, chunks[2])
}

func TestSplitScenario1200Chars(t *testing.T) {
	input := strings.Repeat("abcdefghi ", 120) // 1200 chars
	chunks, err := Split(input, 500, 50)
	require.NoError(t, err)
	require.Equal(t, 3, len(chunks))
	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), 500)
	}
}

func TestSplitDeterministic(t *testing.T) {
	input := strings.Repeat("deterministic output matters. ", 50)
	first, err := Split(input, 180, 20)
	require.NoError(t, err)
	second, err := Split(input, 180, 20)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
