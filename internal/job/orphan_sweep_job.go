// Package job holds the background maintenance tasks run by the cron
// scheduler.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/helpdock/helpdock/internal/model"
	"github.com/helpdock/helpdock/internal/vectorstore"
)

// OrphanSweepJob removes incomplete document ingestions. An ingestion that
// failed partway leaves fewer chunks than the recorded chunk total; those
// fragments would surface in listings and retrieval without ever forming a
// complete document. Groups younger than the grace period are skipped so an
// ingestion still in flight is not swept out from under itself.
type OrphanSweepJob struct {
	store vectorstore.Store
	grace time.Duration
	now   func() time.Time
}

func NewOrphanSweepJob(store vectorstore.Store, grace time.Duration) *OrphanSweepJob {
	return &OrphanSweepJob{
		store: store,
		grace: grace,
		now:   time.Now,
	}
}

func (j *OrphanSweepJob) Name() string {
	return "orphan_sweep"
}

type chunkGroup struct {
	ids    []string
	total  int
	newest time.Time
}

func (j *OrphanSweepJob) Run(ctx context.Context) error {
	groups, err := j.collectGroups(ctx)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	cutoff := j.now().Add(-j.grace)
	swept := 0
	for baseID, group := range groups {
		if group.total <= 0 || len(group.ids) >= group.total {
			continue
		}
		if group.newest.After(cutoff) {
			logger.Info("incomplete group inside grace period, skipping",
				zap.String("base_id", baseID),
				zap.Int("have", len(group.ids)),
				zap.Int("want", group.total),
			)
			continue
		}
		if err := j.store.Delete(ctx, group.ids); err != nil {
			return fmt.Errorf("sweep group %s: %w", baseID, err)
		}
		logger.Warn("swept orphaned chunks",
			zap.String("base_id", baseID),
			zap.Int("have", len(group.ids)),
			zap.Int("want", group.total),
		)
		swept++
	}
	if swept > 0 {
		logger.Info("orphan sweep removed groups", zap.Int("groups", swept))
	}
	return nil
}

func (j *OrphanSweepJob) collectGroups(ctx context.Context) (map[string]*chunkGroup, error) {
	groups := make(map[string]*chunkGroup)
	cursor := ""
	for {
		ids, next, err := j.store.ListIDs(ctx, "", cursor, vectorstore.DefaultPageSize)
		if err != nil {
			return nil, fmt.Errorf("list record ids: %w", err)
		}
		if len(ids) > 0 {
			records, err := j.store.Fetch(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("fetch records: %w", err)
			}
			for _, record := range records {
				baseID := record.Metadata.ParentID
				if baseID == "" {
					var ok bool
					baseID, ok = model.BaseID(record.ID)
					if !ok {
						continue
					}
				}
				group := groups[baseID]
				if group == nil {
					group = &chunkGroup{}
					groups[baseID] = group
				}
				group.ids = append(group.ids, record.ID)
				if record.Metadata.ChunkTotal > group.total {
					group.total = record.Metadata.ChunkTotal
				}
				if record.Metadata.Timestamp.After(group.newest) {
					group.newest = record.Metadata.Timestamp
				}
			}
		}
		if next == "" {
			return groups, nil
		}
		cursor = next
	}
}
