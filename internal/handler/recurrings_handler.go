package handler

import (
	"net/http"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Recurring Rules Handlers
// ============================================================

func listRecurringsHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /recurrings")
		defer span.End()

		rules, err := svc.ListRules(ctx, businessIDFrom(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(rules))
	}
}

func createRecurringHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /recurrings")
		defer span.End()

		var req domain.Recurring
		if !decodeJSON(w, r, &req) {
			return
		}

		rule, err := svc.CreateRule(ctx, businessIDFrom(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, rule)
	}
}

func updateRecurringHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /recurrings/{ruleId}")
		defer span.End()

		var req service.RuleUpdate
		if !decodeJSON(w, r, &req) {
			return
		}

		rule, err := svc.UpdateRule(ctx, businessIDFrom(ctx), chi.URLParam(r, "ruleId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func deleteRecurringHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /recurrings/{ruleId}")
		defer span.End()

		if err := svc.DeleteRule(ctx, businessIDFrom(ctx), chi.URLParam(r, "ruleId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func openRecurringHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /recurrings/{ruleId}/open")
		defer span.End()

		rule, err := svc.OpenRule(ctx, businessIDFrom(ctx), chi.URLParam(r, "ruleId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

// runSchedulerHandler runs the scheduler for the business now. Storage
// failures are part of the report, so this never errors.
func runSchedulerHandler(svc *service.SchedulerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /scheduler/run")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.RunDue(ctx, businessIDFrom(ctx)))
	}
}
