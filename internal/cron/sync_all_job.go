package cron

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch-backend/internal/stocksync"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

// syncRunner is the slice of the sync orchestrator the job invokes.
type syncRunner interface {
	SyncAll(ctx context.Context) ([]*stocksync.Run, error)
}

// SyncAllJobParams configure the periodic full-sync job.
type SyncAllJobParams struct {
	Logger *logger.Logger
	Sync   syncRunner
}

// NewSyncAllJob builds the job that syncs every connected tenant.
func NewSyncAllJob(params SyncAllJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sync == nil {
		return nil, fmt.Errorf("sync service required")
	}
	return &syncAllJob{logg: params.Logger, sync: params.Sync}, nil
}

type syncAllJob struct {
	logg *logger.Logger
	sync syncRunner
}

func (j *syncAllJob) Name() string { return "inventory-sync-all" }

func (j *syncAllJob) Run(ctx context.Context) error {
	runs, err := j.sync.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync all tenants: %w", err)
	}

	synced, failed := 0, 0
	for _, run := range runs {
		synced += run.Synced
		if len(run.Errors) > 0 {
			failed++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"tenants":        len(runs),
		"items_synced":   synced,
		"tenants_failed": failed,
	})
	j.logg.Info(logCtx, "full inventory sync complete")
	return nil
}
