package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helpdock/helpdock/internal/filestore"
	"github.com/helpdock/helpdock/internal/model"
	"github.com/helpdock/helpdock/internal/normalizer"
	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
	"github.com/helpdock/helpdock/internal/vectorstore"
)

type countingEmbedder struct {
	calls int32
	fail  bool
}

func (e *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.fail {
		return nil, fmt.Errorf("embedding backend down")
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (e *countingEmbedder) ModelName() string { return "test-embed" }

type recordingFileStore struct {
	keys []string
	fail bool
}

func (f *recordingFileStore) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	if f.fail {
		return fmt.Errorf("disk full")
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *recordingFileStore) Open(ctx context.Context, key string) (filestore.ReadSeekCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *recordingFileStore) Delete(ctx context.Context, key string) error { return nil }

func newTestIngestService(embedder *countingEmbedder, store vectorstore.Store, files filestore.Store, client *http.Client) *IngestService {
	return NewIngestService(embedder, store, files, normalizer.New(client), IngestOptions{
		ChunkSize:    200,
		ChunkOverlap: 20,
	})
}

func TestIngestURLValidatesBeforeAnyCall(t *testing.T) {
	embedder := &countingEmbedder{}
	svc := newTestIngestService(embedder, vectorstore.NewMemory(), nil, nil)

	_, err := svc.IngestURL(context.Background(), "", "some description")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.IngestURL(context.Background(), "https://example.com", "   ")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.EqualValues(t, 0, embedder.calls)
}

func TestIngestURLStoresSingleRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body><main><p>Returns are accepted within 30 days.</p></main></body></html>`)
	}))
	defer server.Close()

	embedder := &countingEmbedder{}
	store := vectorstore.NewMemory()
	svc := newTestIngestService(embedder, store, nil, server.Client())

	item, err := svc.IngestURL(context.Background(), server.URL, "Returns policy")
	require.NoError(t, err)
	require.Equal(t, model.ItemKindURL, item.Kind)
	require.Equal(t, server.URL, item.URL)
	require.EqualValues(t, 1, embedder.calls)

	records, err := store.Fetch(context.Background(), []string{item.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Metadata.IsURL)
	require.Equal(t, "Returns are accepted within 30 days.", records[0].Metadata.Content)
	require.Empty(t, records[0].Metadata.ParentID)
}

func TestIngestDocumentChunksAndLinksRecords(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Policy clause number %d covers a distinct refund case. ", i)
	}
	embedder := &countingEmbedder{}
	store := vectorstore.NewMemory()
	files := &recordingFileStore{}
	svc := newTestIngestService(embedder, store, files, nil)

	item, err := svc.IngestDocument(context.Background(), []byte(b.String()), "text/plain", "policy.txt", "Refund policy")
	require.NoError(t, err)
	require.Equal(t, model.ItemKindDocument, item.Kind)
	require.Greater(t, item.ChunkCount, 1)
	require.NotContains(t, item.ID, model.ChunkIDSeparator)
	require.EqualValues(t, item.ChunkCount, embedder.calls)

	ids, next, err := store.ListIDs(context.Background(), item.ID+model.ChunkIDSeparator, "", 100)
	require.NoError(t, err)
	require.Empty(t, next)
	require.Len(t, ids, item.ChunkCount)

	records, err := store.Fetch(context.Background(), ids)
	require.NoError(t, err)
	for _, record := range records {
		require.Equal(t, item.ID, record.Metadata.ParentID)
		require.Equal(t, item.ChunkCount, record.Metadata.ChunkTotal)
		require.Equal(t, model.RecordTypeDocument, record.Metadata.Type)
		require.Equal(t, "Refund policy", record.Metadata.Description)
	}

	require.Len(t, files.keys, 1)
	require.Equal(t, item.ID+"_policy.txt", files.keys[0])
}

func TestIngestDocumentRejectsWithoutEmbedding(t *testing.T) {
	embedder := &countingEmbedder{}
	svc := newTestIngestService(embedder, vectorstore.NewMemory(), nil, nil)

	_, err := svc.IngestDocument(context.Background(), []byte("hello"), "application/pdf", "a.pdf", "desc")
	require.ErrorIs(t, err, apperrors.ErrUnsupportedType)
	_, err = svc.IngestDocument(context.Background(), []byte("hello"), "text/plain", "", "desc")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.IngestDocument(context.Background(), []byte("hello"), "text/plain", "a.txt", "")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.EqualValues(t, 0, embedder.calls)
}

func TestIngestDocumentEmbeddingFailureFailsWhole(t *testing.T) {
	embedder := &countingEmbedder{fail: true}
	svc := newTestIngestService(embedder, vectorstore.NewMemory(), nil, nil)

	_, err := svc.IngestDocument(context.Background(), []byte("short document text"), "text/plain", "a.txt", "desc")
	require.ErrorIs(t, err, apperrors.ErrEmbedding)
}

func TestIngestDocumentRetentionFailureIsNotFatal(t *testing.T) {
	embedder := &countingEmbedder{}
	files := &recordingFileStore{fail: true}
	svc := newTestIngestService(embedder, vectorstore.NewMemory(), files, nil)

	item, err := svc.IngestDocument(context.Background(), []byte("short document text"), "text/plain", "a.txt", "desc")
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)
}
