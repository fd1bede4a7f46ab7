package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helpdock/helpdock/internal/model"
)

func seedRecords(t *testing.T, s Store, ids ...string) {
	t.Helper()
	records := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, model.Record{
			ID:       id,
			Values:   []float32{1, 0},
			Metadata: model.RecordMetadata{Content: "content of " + id, Timestamp: time.Now()},
		})
	}
	require.NoError(t, s.Upsert(context.Background(), records))
}

func TestMemoryListIDsPrefixFilter(t *testing.T) {
	s := NewMemory()
	seedRecords(t, s, "doc1_chunk0", "doc1_chunk1", "doc10_chunk0", "url-abc")

	ids, next, err := s.ListIDs(context.Background(), "doc1_chunk", "", 10)
	require.NoError(t, err)
	require.Empty(t, next)
	require.Equal(t, []string{"doc1_chunk0", "doc1_chunk1"}, ids)
}

func TestMemoryListIDsPagination(t *testing.T) {
	s := NewMemory()
	seedRecords(t, s, "a", "b", "c", "d", "e")

	var collected []string
	cursor := ""
	pages := 0
	for {
		ids, next, err := s.ListIDs(context.Background(), "", cursor, 2)
		require.NoError(t, err)
		collected = append(collected, ids...)
		pages++
		if next == "" {
			break
		}
		cursor = next
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, collected)
	require.Equal(t, 3, pages)
}

func TestMemoryFetchPreservesOrderSkipsMissing(t *testing.T) {
	s := NewMemory()
	seedRecords(t, s, "one", "two")

	records, err := s.Fetch(context.Background(), []string{"two", "missing", "one"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "two", records[0].ID)
	require.Equal(t, "one", records[1].ID)
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	s := NewMemory()
	seedRecords(t, s, "gone")

	require.NoError(t, s.Delete(context.Background(), []string{"gone"}))
	require.NoError(t, s.Delete(context.Background(), []string{"gone"}))

	ids, _, err := s.ListIDs(context.Background(), "", "", 10)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestMemoryQueryRanksByCosine(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Upsert(context.Background(), []model.Record{
		{ID: "close", Values: []float32{1, 0.1}},
		{ID: "far", Values: []float32{0, 1}},
	}))

	matches, err := s.Query(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "close", matches[0].Record.ID)
	require.Greater(t, matches[0].Score, matches[1].Score)
}
