package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/api/middleware"
	"github.com/shelfwatch/shelfwatch-backend/api/responses"
	"github.com/shelfwatch/shelfwatch-backend/internal/stocksync"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

// SyncService triggers on-demand provider syncs.
type SyncService interface {
	SyncBusiness(ctx context.Context, businessID uuid.UUID) (*stocksync.Run, error)
}

// TriggerSync runs a full provider sync for the calling tenant. The run is
// synchronous; the response carries per-page counters and any item errors.
func TriggerSync(svc SyncService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		businessID, ok := middleware.BusinessIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
			return
		}

		run, err := svc.SyncBusiness(ctx, businessID)
		if err != nil {
			if run != nil {
				// Partial run: some pages landed before the failure. Surface
				// what we did alongside the error.
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync aborted mid-run").WithDetails(run))
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, run)
	}
}
