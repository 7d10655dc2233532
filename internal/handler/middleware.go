package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/moneta-ledger/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contextKey string

const businessIDKey contextKey = "businessID"

// noBusiness is the path segment that selects the "no business" context.
const noBusiness = "none"

// BusinessScope resolves {businessId} into the business context of the
// request. "none" maps to the empty context; any other id must name an
// existing business.
func BusinessScope(businesses *service.BusinessService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			businessID := scopeFromPath(r)

			if businessID != "" && businesses != nil {
				if _, err := businesses.GetBusiness(r.Context(), businessID); err != nil {
					handleServiceError(w, err, logger)
					return
				}
			}

			ctx := context.WithValue(r.Context(), businessIDKey, businessID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// businessIDFrom returns the business context set by BusinessScope.
func businessIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(businessIDKey).(string)
	return id
}

func scopeFromPath(r *http.Request) string {
	id := chi.URLParam(r, "businessId")
	if id == noBusiness {
		return ""
	}
	return id
}
