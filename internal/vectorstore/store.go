// Package vectorstore abstracts the vector database holding the knowledge
// base. Backends register themselves by type name; which one runs is a
// config decision.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/helpdock/helpdock/internal/config"
	"github.com/helpdock/helpdock/internal/model"
)

// DefaultPageSize bounds one page of an ID listing.
const DefaultPageSize = 100

// Match is one similarity-search hit.
type Match struct {
	Record model.Record
	Score  float32
}

// Store is the contract every backend fulfills. ListIDs pages with an opaque
// cursor: an empty returned cursor means the listing is exhausted. Delete is
// idempotent; deleting unknown IDs is not an error.
type Store interface {
	Upsert(ctx context.Context, records []model.Record) error
	ListIDs(ctx context.Context, prefix string, cursor string, limit int) ([]string, string, error)
	Fetch(ctx context.Context, ids []string) ([]model.Record, error)
	Delete(ctx context.Context, ids []string) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.VectorStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}
