package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/helpdock/helpdock/internal/ai"
	"github.com/helpdock/helpdock/internal/filestore"
	"github.com/helpdock/helpdock/internal/model"
	"github.com/helpdock/helpdock/internal/normalizer"
	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
	"github.com/helpdock/helpdock/internal/splitter"
	"github.com/helpdock/helpdock/internal/vectorstore"
)

// chunkUpsertConcurrency bounds in-flight embed+upsert calls per ingestion.
const chunkUpsertConcurrency = 8

type IngestOptions struct {
	ChunkSize    int
	ChunkOverlap int
}

// IngestService turns raw sources into vector records: one record per URL,
// one record per chunk for uploaded documents.
type IngestService struct {
	embedder   ai.IEmbedder
	store      vectorstore.Store
	files      filestore.Store
	normalizer *normalizer.Normalizer
	opts       IngestOptions
}

func NewIngestService(embedder ai.IEmbedder, store vectorstore.Store, files filestore.Store, norm *normalizer.Normalizer, opts IngestOptions) *IngestService {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = splitter.DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = splitter.DefaultOverlap
	}
	return &IngestService{
		embedder:   embedder,
		store:      store,
		files:      files,
		normalizer: norm,
		opts:       opts,
	}
}

// IngestURL scrapes a page, embeds its full text as one vector, and stores a
// single record. Validation happens before any network call.
func (s *IngestService) IngestURL(ctx context.Context, url, description string) (*model.Item, error) {
	url = strings.TrimSpace(url)
	description = strings.TrimSpace(description)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", apperrors.ErrValidation)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("url", url))

	text, err := s.normalizer.FromURL(ctx, url)
	if err != nil {
		return nil, err
	}
	values, err := s.embedder.Embed(ctx, text, ai.TaskTypeDocument)
	if err != nil {
		logger.Error("embed url content failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEmbedding, err)
	}
	now := time.Now().UTC()
	record := model.Record{
		ID:     newRecordID(),
		Values: values,
		Metadata: model.RecordMetadata{
			URL:         url,
			Description: description,
			Content:     text,
			Timestamp:   now,
			IsURL:       true,
		},
	}
	if err := s.store.Upsert(ctx, []model.Record{record}); err != nil {
		logger.Error("upsert url record failed", zap.Error(err))
		return nil, fmt.Errorf("upsert url record: %w", err)
	}
	logger.Info("url ingested", zap.String("id", record.ID), zap.Int("chars", len(text)))
	return &model.Item{
		ID:          record.ID,
		Kind:        model.ItemKindURL,
		URL:         url,
		Description: description,
		CreatedAt:   now,
	}, nil
}

// IngestDocument validates, normalizes, chunks and embeds an uploaded file.
// Chunk embed+upsert calls run concurrently; the ingestion succeeds only if
// every chunk lands, though a failing chunk does not cancel its siblings.
func (s *IngestService) IngestDocument(ctx context.Context, data []byte, mimeType, filename, description string) (*model.Item, error) {
	text, err := s.normalizer.FromDocument(data, mimeType)
	if err != nil {
		return nil, err
	}
	filename = strings.TrimSpace(filename)
	description = strings.TrimSpace(description)
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", apperrors.ErrValidation)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	chunks, err := splitter.Split(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no extractable text", apperrors.ErrValidation)
	}

	baseID := newBaseID()
	now := time.Now().UTC()
	logger := logutil.GetLogger(ctx).With(
		zap.String("base_id", baseID),
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
	)

	var g errgroup.Group
	g.SetLimit(chunkUpsertConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			values, err := s.embedder.Embed(ctx, chunk, ai.TaskTypeDocument)
			if err != nil {
				return fmt.Errorf("%w: chunk %d: %v", apperrors.ErrEmbedding, i, err)
			}
			record := model.Record{
				ID:     model.ChunkID(baseID, i),
				Values: values,
				Metadata: model.RecordMetadata{
					Filename:    filename,
					Description: description,
					Content:     chunk,
					Timestamp:   now,
					Type:        model.RecordTypeDocument,
					ParentID:    baseID,
					ChunkTotal:  len(chunks),
				},
			}
			if err := s.store.Upsert(ctx, []model.Record{record}); err != nil {
				return fmt.Errorf("upsert chunk %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("document ingestion failed", zap.Error(err))
		return nil, err
	}

	s.retainSource(ctx, baseID, filename, data)
	logger.Info("document ingested")
	return &model.Item{
		ID:          baseID,
		Kind:        model.ItemKindDocument,
		Filename:    filename,
		Description: description,
		CreatedAt:   now,
		ChunkCount:  len(chunks),
	}, nil
}

// retainSource archives the original upload. Best effort: a retention
// failure never fails an ingestion that already has all its vectors.
func (s *IngestService) retainSource(ctx context.Context, baseID, filename string, data []byte) {
	if s.files == nil {
		return
	}
	key := baseID + "_" + filename
	reader := nopSeekCloser{bytes.NewReader(data)}
	if err := s.files.Save(ctx, key, reader, int64(len(data))); err != nil {
		logutil.GetLogger(ctx).Warn("retain source failed", zap.String("key", key), zap.Error(err))
	}
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
