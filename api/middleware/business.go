package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/api/responses"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

const businessIDHeader = "X-Business-Id"

type businessIDKey struct{}

// BusinessContext requires a tenant id on every request. Authentication lives
// upstream; the gateway forwards the resolved tenant in X-Business-Id.
func BusinessContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(businessIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
				return
			}

			businessID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid business id"))
				return
			}

			ctx := context.WithValue(r.Context(), businessIDKey{}, businessID)
			if logg != nil {
				ctx = logg.WithBusinessID(ctx, businessID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BusinessIDFromContext returns the tenant id set by BusinessContext.
func BusinessIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(businessIDKey{}).(uuid.UUID)
	return id, ok
}

// WithBusinessID stashes a tenant id the way BusinessContext does. Intended
// for workers and tests that bypass the HTTP middleware chain.
func WithBusinessID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, businessIDKey{}, id)
}
