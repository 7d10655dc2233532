package handler

import (
	"net/http"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Businesses Handlers
// ============================================================

func listBusinessesHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses")
		defer span.End()

		businesses, err := svc.ListBusinesses(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(businesses))
	}
}

func createBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses")
		defer span.End()

		var req domain.Business
		if !decodeJSON(w, r, &req) {
			return
		}

		b, err := svc.CreateBusiness(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func updateBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/businesses/{businessId}")
		defer span.End()

		businessID := scopeFromPath(r)
		span.SetAttributes(attribute.String("business.id", businessID))

		var req domain.Business
		if !decodeJSON(w, r, &req) {
			return
		}

		b, err := svc.UpdateBusiness(ctx, businessID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/businesses/{businessId}")
		defer span.End()

		businessID := scopeFromPath(r)
		if businessID == "" {
			writeError(w, http.StatusBadRequest, "the no-business context cannot be deleted")
			return
		}

		if err := svc.DeleteBusiness(ctx, businessID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// activateBusinessHandler switches the active business. "none" clears it.
func activateBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/businesses/{businessId}/activate")
		defer span.End()

		businessID := scopeFromPath(r)
		if err := svc.SwitchBusiness(ctx, businessID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "business activated", ID: businessID})
	}
}

func activeBusinessHandler(svc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/businesses/active")
		defer span.End()

		b, err := svc.ActiveBusiness(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if b == nil {
			writeJSON(w, http.StatusOK, map[string]any{"business": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"business": b})
	}
}
