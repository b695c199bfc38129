package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/societyops/dueskeeper/internal/config"
	"github.com/societyops/dueskeeper/internal/domain"
	"github.com/societyops/dueskeeper/internal/handler"
	"github.com/societyops/dueskeeper/internal/infra/cache"
	"github.com/societyops/dueskeeper/internal/infra/jsonstore"
	"github.com/societyops/dueskeeper/internal/infra/observability"
	"github.com/societyops/dueskeeper/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	seed, err := config.LoadSeed("", 1500)
	if err != nil {
		t.Fatalf("failed to build seed: %v", err)
	}
	store, err := jsonstore.New(t.TempDir(), "data.json", "members.json", seed, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	metrics := observability.NewMetrics()
	svc := service.NewLedgerService(
		store,
		cache.New[*domain.Ledger](time.Minute),
		metrics,
		zap.NewNop(),
		service.Options{LockTimeout: time.Second},
	)
	return handler.NewRouter(svc, metrics, zap.NewNop())
}

func postAction(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/ledger/actions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestActionEndpoint_Success(t *testing.T) {
	router := newTestRouter(t)

	rec := postAction(t, router, `{"action":"addMember","payload":{"name":"Asha","email":"asha@example.com"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.ActionResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.Status != domain.ResultSuccess {
		t.Errorf("status = %q, want success", result.Status)
	}
}

func TestActionEndpoint_NoAction(t *testing.T) {
	router := newTestRouter(t)

	rec := postAction(t, router, `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result domain.ActionResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.Status != domain.ResultNoAction {
		t.Errorf("status = %q, want no-action", result.Status)
	}
}

func TestActionEndpoint_UnknownAction(t *testing.T) {
	router := newTestRouter(t)

	rec := postAction(t, router, `{"action":"nukeEverything","payload":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", rec.Code)
	}
}

func TestActionEndpoint_InvalidBody(t *testing.T) {
	router := newTestRouter(t)

	rec := postAction(t, router, `{"action":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rec.Code)
	}
}

func TestActionEndpoint_NotFoundMapsTo404(t *testing.T) {
	router := newTestRouter(t)

	rec := postAction(t, router, `{"action":"editMember","payload":{"originalName":"Nobody","name":"Somebody"}}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestActionEndpoint_ConflictMapsTo409(t *testing.T) {
	router := newTestRouter(t)

	first := postAction(t, router, `{"action":"addMember","payload":{"name":"Asha"}}`)
	if first.Code != http.StatusOK {
		t.Fatalf("setup add failed: %d", first.Code)
	}
	second := postAction(t, router, `{"action":"addMember","payload":{"name":"Asha"}}`)
	if second.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate member, got %d", second.Code)
	}
}

func TestActionEndpoint_IndexOutOfRangeMapsTo422(t *testing.T) {
	router := newTestRouter(t)

	rec := postAction(t, router, `{"action":"deleteExpense","payload":{"index":3}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestActionEndpoint_ReplaceForbidden(t *testing.T) {
	router := newTestRouter(t)

	rec := postAction(t, router, `{"action":"replaceLedger","payload":{"members":[]}}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 when replace is not enabled, got %d", rec.Code)
	}
}

func TestGetLedger_IncludesSeededSchedule(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ledger", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var ledger domain.Ledger
	if err := json.NewDecoder(rec.Body).Decode(&ledger); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(ledger.FeeSchedule) != 12 {
		t.Errorf("fee schedule = %d entries, want 12", len(ledger.FeeSchedule))
	}
	if got := ledger.EventFee("Diwali Celebration"); got != 500 {
		t.Errorf("Diwali Celebration fee = %d, want 500", got)
	}
	if got := ledger.EventFee("New Year Party"); got != 750 {
		t.Errorf("New Year Party fee = %d, want 750", got)
	}
}

func TestGetMonthlyPayments_FilterByMember(t *testing.T) {
	router := newTestRouter(t)

	postAction(t, router, `{"action":"addMonthlyPayment","payload":{"memberName":"Asha","month":"January","amountPaid":1000}}`)
	postAction(t, router, `{"action":"addMonthlyPayment","payload":{"memberName":"Ravi","month":"January","amountPaid":1500}}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/ledger/payments/monthly?member=Asha", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body struct {
		Details []domain.MonthlyPaymentDetail `json:"monthlyPaymentDetails"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Details) != 1 || body.Details[0].MemberName != "Asha" {
		t.Errorf("filtered details = %+v, want only Asha's record", body.Details)
	}
}

func TestLedgerMetricsSnapshot(t *testing.T) {
	router := newTestRouter(t)

	postAction(t, router, `{"action":"addMember","payload":{"name":"Asha"}}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/ledger", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snapshot observability.LedgerSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if snapshot.TotalActions < 1 {
		t.Errorf("total actions = %d, want >= 1", snapshot.TotalActions)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/v1/ledger", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
