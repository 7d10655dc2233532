package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/infra/observability"
	"github.com/boddenberg/moneta-ledger/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Businesses   *service.BusinessService
	Recurrings   *service.RecurringService
	Scheduler    *service.SchedulerService
	Transactions *service.TransactionService
	Reference    *service.ReferenceService
	Archive      *service.ArchiveService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Every ledger route is scoped by {businessId}; "none" selects the
// no-business context.
func NewRouter(svc Services, store Pinger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store))
	r.Get("/readyz", readyzHandler(store))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/scheduler", schedulerMetricsHandler(metrics))

		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", listBusinessesHandler(svc.Businesses, logger))
			r.Post("/", createBusinessHandler(svc.Businesses, logger))
			r.Get("/active", activeBusinessHandler(svc.Businesses, logger))

			r.Route("/{businessId}", func(r chi.Router) {
				r.Put("/", updateBusinessHandler(svc.Businesses, logger))
				r.Delete("/", deleteBusinessHandler(svc.Businesses, logger))
				r.Post("/activate", activateBusinessHandler(svc.Businesses, logger))

				r.Group(func(r chi.Router) {
					r.Use(BusinessScope(svc.Businesses, logger))

					// Recurring rules
					r.Get("/recurrings", listRecurringsHandler(svc.Recurrings, logger))
					r.Post("/recurrings", createRecurringHandler(svc.Recurrings, logger))
					r.Put("/recurrings/{ruleId}", updateRecurringHandler(svc.Recurrings, logger))
					r.Delete("/recurrings/{ruleId}", deleteRecurringHandler(svc.Recurrings, logger))
					r.Post("/recurrings/{ruleId}/open", openRecurringHandler(svc.Recurrings, logger))

					// Scheduler
					r.Post("/scheduler/run", runSchedulerHandler(svc.Scheduler))

					// Live ledger
					r.Get("/transactions", listTransactionsHandler(svc.Transactions, logger))
					r.Post("/transactions", createTransactionHandler(svc.Transactions, logger))
					r.Put("/transactions/{transactionId}", updateTransactionHandler(svc.Transactions, logger))
					r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svc.Transactions, logger))
					r.Get("/metrics", dashboardMetricsHandler(svc.Transactions, logger))

					// Reference data
					r.Get("/accounts", listAccountsHandler(svc.Reference, logger))
					r.Get("/categories", listCategoriesHandler(svc.Reference, logger))

					// Statements
					r.Get("/statements", listStatementsHandler(svc.Archive, logger))
					r.Post("/statements/archive", archiveMonthHandler(svc.Archive, logger))
					r.Post("/statements/sweep", sweepHandler(svc.Archive))
					r.Get("/statements/annual", annualHandler(svc.Archive, logger))
					r.Get("/statements/{statementId}", getStatementHandler(svc.Archive, logger))
					r.Delete("/statements/{statementId}", unarchiveHandler(svc.Archive, logger))
				})
			})
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "moneta-api", Status: "healthy", LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func schedulerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSchedulerSnapshot())
	}
}
