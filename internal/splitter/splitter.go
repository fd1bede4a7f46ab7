// Package splitter breaks normalized document text into bounded, overlapping
// chunks for embedding. Splitting is hierarchical: paragraph breaks are
// preferred over sentence breaks, sentence breaks over word breaks, and only
// as a last resort is text cut mid-word. The output is deterministic for a
// given input and parameters, and concatenating the chunks with the overlap
// regions removed reproduces the input exactly.
package splitter

import (
	"fmt"
	"strings"

	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
)

// separators in preference order; the empty string means a raw rune cut.
var separators = []string{"\n\n", "\n", ". ", " "}

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// Split cuts text into chunks of at most chunkSize runes, adjacent chunks
// sharing roughly overlap runes. Text no longer than chunkSize comes back as
// a single chunk with no overlap applied.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", apperrors.ErrValidation)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk size)", apperrors.ErrValidation)
	}
	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for {
		if len(runes)-start <= chunkSize {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		end := findBreak(runes, start, start+chunkSize)
		chunks = append(chunks, string(runes[start:end]))
		next := end - overlap
		if next <= start {
			// Chunk shorter than the overlap; skip the overlap rather
			// than loop in place.
			next = end
		}
		start = next
	}
	return chunks, nil
}

// findBreak picks the cut position in (start, limit], snapping back to the
// highest-priority separator that still leaves a reasonably sized chunk.
func findBreak(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	// A break closer to start than half the window produces runt chunks;
	// fall through to the next separator level instead.
	min := (limit - start) / 2
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := len([]rune(window[:idx])) + len([]rune(sep))
		if cut <= min {
			continue
		}
		return start + cut
	}
	return limit
}
