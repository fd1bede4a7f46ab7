package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/helpdock/helpdock/internal/model"
	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
	"github.com/helpdock/helpdock/internal/vectorstore"
)

// ContentService reads the knowledge base back out of the vector store. The
// store is the single source of truth; nothing here is cached or persisted
// elsewhere.
type ContentService struct {
	store vectorstore.Store
}

func NewContentService(store vectorstore.Store) *ContentService {
	return &ContentService{store: store}
}

// ListItems walks every record and folds document chunks back into one item
// per source. The first chunk encountered supplies the item's metadata. Any
// store failure fails the whole listing; partial results are never returned.
func (s *ContentService) ListItems(ctx context.Context) ([]*model.Item, error) {
	ids, err := s.listAllIDs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: list record ids: %v", apperrors.ErrFetch, err)
	}
	if len(ids) == 0 {
		return []*model.Item{}, nil
	}

	items := make([]*model.Item, 0, len(ids))
	groups := make(map[string]*model.Item)
	for start := 0; start < len(ids); start += vectorstore.DefaultPageSize {
		end := start + vectorstore.DefaultPageSize
		if end > len(ids) {
			end = len(ids)
		}
		records, err := s.store.Fetch(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: fetch records: %v", apperrors.ErrFetch, err)
		}
		for _, record := range records {
			if groupID, ok := documentGroupID(record); ok {
				item := groups[groupID]
				if item == nil {
					item = &model.Item{
						ID:          groupID,
						Kind:        model.ItemKindDocument,
						Filename:    record.Metadata.Filename,
						Description: record.Metadata.Description,
						CreatedAt:   record.Metadata.Timestamp,
					}
					groups[groupID] = item
					items = append(items, item)
				}
				item.ChunkCount++
				continue
			}
			items = append(items, &model.Item{
				ID:          record.ID,
				Kind:        model.ItemKindURL,
				URL:         record.Metadata.URL,
				Description: record.Metadata.Description,
				CreatedAt:   record.Metadata.Timestamp,
			})
		}
	}
	return items, nil
}

// DeleteItem removes every record belonging to the item: all chunks for a
// document, or the single record for a URL. Deleting an id that no longer
// exists succeeds.
func (s *ContentService) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", apperrors.ErrValidation)
	}
	chunkIDs, err := s.listAllIDs(ctx, id+model.ChunkIDSeparator)
	if err != nil {
		return fmt.Errorf("%w: list chunks of %s: %v", apperrors.ErrDelete, id, err)
	}
	targets := chunkIDs
	if len(targets) == 0 {
		targets = []string{id}
	}
	if err := s.store.Delete(ctx, targets); err != nil {
		return fmt.Errorf("%w: delete %s: %v", apperrors.ErrDelete, id, err)
	}
	logutil.GetLogger(ctx).Info("content deleted",
		zap.String("id", id), zap.Int("records", len(targets)))
	return nil
}

func (s *ContentService) listAllIDs(ctx context.Context, prefix string) ([]string, error) {
	var all []string
	cursor := ""
	for {
		page, next, err := s.store.ListIDs(ctx, prefix, cursor, vectorstore.DefaultPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// documentGroupID resolves the logical source a chunk belongs to. New records
// carry an explicit parent id; older ones are recognized by the chunk suffix
// in their record id.
func documentGroupID(record model.Record) (string, bool) {
	if record.Metadata.ParentID != "" {
		return record.Metadata.ParentID, true
	}
	if record.Metadata.Type == model.RecordTypeDocument {
		if base, ok := model.BaseID(record.ID); ok {
			return base, true
		}
		return record.ID, true
	}
	return model.BaseID(record.ID)
}
