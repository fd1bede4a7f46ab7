package model

import (
	"strconv"
	"strings"
	"time"
)

// ChunkIDSeparator joins a document base ID with a chunk index. Base IDs must
// never contain it: prefix listings resolve a document's records by matching
// "<baseID>_chunk", and the separator is what keeps "doc_1" from swallowing
// "doc_10".
const ChunkIDSeparator = "_chunk"

type ItemKind string

const (
	ItemKindURL      ItemKind = "url"
	ItemKindDocument ItemKind = "document"
)

// Item is a logical content entry as shown to the operator: one URL backed by
// a single vector record, or one document backed by N chunk records.
type Item struct {
	ID          string    `json:"id"`
	Kind        ItemKind  `json:"kind"`
	URL         string    `json:"url,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	ChunkCount  int       `json:"chunk_count,omitempty"`
}

// RecordMetadata is stored next to the embedding and carries enough to
// reconstruct the logical item without a secondary lookup.
type RecordMetadata struct {
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description"`
	Filename    string    `json:"filename,omitempty"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type,omitempty"`
	IsURL       bool      `json:"isUrl,omitempty"`
	ParentID    string    `json:"parentId,omitempty"`
	ChunkTotal  int       `json:"chunkTotal,omitempty"`
}

const RecordTypeDocument = "document"

// Record is one embedding plus metadata in the vector store.
type Record struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata RecordMetadata `json:"metadata"`
}

// ChunkID builds the physical ID of chunk i of a document.
func ChunkID(baseID string, i int) string {
	return baseID + ChunkIDSeparator + strconv.Itoa(i)
}

// BaseID extracts the document base ID from a chunk record ID. The second
// return is false for IDs that do not follow the chunk convention.
func BaseID(recordID string) (string, bool) {
	idx := strings.Index(recordID, ChunkIDSeparator)
	if idx <= 0 {
		return "", false
	}
	return recordID[:idx], true
}
