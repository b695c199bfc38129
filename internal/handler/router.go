// Package handler exposes the ledger engine over HTTP: a single action
// endpoint plus read-only views of the ledger document and operational
// endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/societyops/dueskeeper/internal/domain"
	"github.com/societyops/dueskeeper/internal/infra/observability"
	"github.com/societyops/dueskeeper/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.LedgerService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Actions — the single mutation entry point
		// POST /v1/ledger/actions
		// =============================================
		r.Post("/ledger/actions", actionHandler(svc, logger))

		// =============================================
		// Read-only ledger views
		// =============================================
		r.Get("/ledger", getLedgerHandler(svc, logger))
		r.Get("/ledger/members", getMembersHandler(svc, logger))
		r.Get("/ledger/payments/monthly", getMonthlyPaymentsHandler(svc, logger))
		r.Get("/ledger/payments/extra", getExtraPaymentsHandler(svc, logger))
		r.Get("/ledger/expenses", getExpensesHandler(svc, logger))
		r.Get("/ledger/events", getEventsHandler(svc, logger))
		r.Get("/ledger/fees", getFeesHandler(svc, logger))
		r.Get("/ledger/history", getHistoryHandler(svc, logger))

		// =============================================
		// Engine metrics snapshot
		// GET /v1/metrics/ledger
		// =============================================
		r.Get("/metrics/ledger", ledgerMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Actions — POST /v1/ledger/actions
// ============================================================

func actionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ledger/actions")
		defer span.End()

		var req domain.ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("ledger.action", req.Action))
		observability.SetRequestAction(ctx, req.Action)

		result, err := svc.Apply(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// ============================================================
// Read-only views
// ============================================================

func getLedgerHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ledger)
	}
}

func getMembersHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/members")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		members := ledger.Members
		if members == nil {
			members = []domain.Member{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	}
}

func getMonthlyPaymentsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/payments/monthly")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		details := ledger.MonthlyDetails
		// Optional filters: ?member=Name and ?month=January
		if member := r.URL.Query().Get("member"); member != "" {
			details = filterMonthly(details, func(d domain.MonthlyPaymentDetail) bool { return d.MemberName == member })
		}
		if month := r.URL.Query().Get("month"); month != "" {
			details = filterMonthly(details, func(d domain.MonthlyPaymentDetail) bool { return d.Month == month })
		}
		writeJSON(w, http.StatusOK, map[string]any{"monthlyPaymentDetails": details})
	}
}

func getExtraPaymentsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/payments/extra")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		details := ledger.ExtraDetails
		if event := r.URL.Query().Get("event"); event != "" {
			filtered := make([]domain.ExtraPaymentDetail, 0, len(details))
			for _, d := range details {
				if d.ExtraPaymentFor == event {
					filtered = append(filtered, d)
				}
			}
			details = filtered
		}
		writeJSON(w, http.StatusOK, map[string]any{"extraPaymentDetails": details})
	}
}

func getExpensesHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/expenses")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": ledger.Expenses})
	}
}

func getEventsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/events")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"extraPayments": ledger.Events})
	}
}

func getFeesHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/fees")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"monthlyPayments": ledger.FeeSchedule})
	}
}

func getHistoryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ledger/history")
		defer span.End()

		ledger, err := svc.GetLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"history": ledger.History})
	}
}

// ============================================================
// Metrics & Health
// ============================================================

func ledgerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLedgerSnapshot())
	}
}

func healthzHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// A load through the service exercises cache and store together.
		if _, err := svc.GetLedger(r.Context()); err != nil {
			logger.Warn("health check degraded", zap.Error(err))
			writeJSON(w, http.StatusOK, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func filterMonthly(details []domain.MonthlyPaymentDetail, keep func(domain.MonthlyPaymentDetail) bool) []domain.MonthlyPaymentDetail {
	filtered := make([]domain.MonthlyPaymentDetail, 0, len(details))
	for _, d := range details {
		if keep(d) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
