package handler

import (
	"net/http"

	"github.com/boddenberg/moneta-ledger/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Statements Handlers
// ============================================================

type archiveMonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"` // zero-based
}

func listStatementsHandler(svc *service.ArchiveService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /statements")
		defer span.End()

		statements, err := svc.ListStatements(ctx, businessIDFrom(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(statements))
	}
}

func getStatementHandler(svc *service.ArchiveService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /statements/{statementId}")
		defer span.End()

		stmt, err := svc.GetStatement(ctx, businessIDFrom(ctx), chi.URLParam(r, "statementId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stmt)
	}
}

// archiveMonthHandler answers 204 when the month had nothing to archive.
func archiveMonthHandler(svc *service.ArchiveService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /statements/archive")
		defer span.End()

		var req archiveMonthRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		span.SetAttributes(attribute.Int("statement.year", req.Year), attribute.Int("statement.month", req.Month))

		stmt, err := svc.ArchiveMonth(ctx, businessIDFrom(ctx), req.Year, req.Month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if stmt == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusCreated, stmt)
	}
}

func unarchiveHandler(svc *service.ArchiveService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /statements/{statementId}")
		defer span.End()

		if err := svc.UnarchiveMonth(ctx, businessIDFrom(ctx), chi.URLParam(r, "statementId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// sweepHandler archives every eligible past month and returns what it made.
func sweepHandler(svc *service.ArchiveService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /statements/sweep")
		defer span.End()

		writeJSON(w, http.StatusOK, orEmpty(svc.CheckForArchivableMonths(ctx, businessIDFrom(ctx))))
	}
}

func annualHandler(svc *service.ArchiveService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /statements/annual")
		defer span.End()

		annual, err := svc.Annual(ctx, businessIDFrom(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(annual))
	}
}
