package vectorstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/helpdock/helpdock/internal/model"
)

// memoryStore keeps everything in a map. It backs tests and local
// development; nothing survives a restart.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]model.Record
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		return NewMemory(), nil
	})
}

func NewMemory() Store {
	return &memoryStore{records: make(map[string]model.Record)}
}

func (s *memoryStore) Upsert(ctx context.Context, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *memoryStore) ListIDs(ctx context.Context, prefix string, cursor string, limit int) ([]string, string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	s.mu.RLock()
	all := make([]string, 0, len(s.records))
	for id := range s.records {
		if prefix == "" || strings.HasPrefix(id, prefix) {
			all = append(all, id)
		}
	}
	s.mu.RUnlock()
	sort.Strings(all)

	start := 0
	if cursor != "" {
		start = sort.SearchStrings(all, cursor)
		if start < len(all) && all[start] == cursor {
			start++
		}
	}
	end := start + limit
	if end >= len(all) {
		return all[start:], "", nil
	}
	return all[start:end], all[end-1], nil
}

func (s *memoryStore) Fetch(ctx context.Context, ids []string) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *memoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

func (s *memoryStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	matches := make([]Match, 0, len(s.records))
	for _, rec := range s.records {
		matches = append(matches, Match{Record: rec, Score: cosineSimilarity(vector, rec.Values)})
	}
	s.mu.RUnlock()
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Record.ID < matches[j].Record.ID
		}
		return matches[i].Score > matches[j].Score
	})
	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
