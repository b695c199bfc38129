// Package service implements the ledger reconciliation engine: the action
// dispatcher, history recorder, and the load-mutate-commit cycle over the
// injected store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/societyops/dueskeeper/internal/domain"
	"github.com/societyops/dueskeeper/internal/infra/observability"
	"github.com/societyops/dueskeeper/internal/infra/resilience"
	"github.com/societyops/dueskeeper/internal/port"
)

var tracer = otel.Tracer("service/ledger")

const ledgerCacheKey = "ledger"

// Options tunes the engine.
type Options struct {
	// LockTimeout bounds the wait for the writer lock; expiry surfaces as
	// a retryable *domain.ErrLockTimeout.
	LockTimeout time.Duration
	// AllowReplace gates the replaceLedger bulk-import action.
	AllowReplace bool
	// Retry configures commit retries.
	Retry resilience.Config
}

// LedgerService owns the full operation cycle for ledger actions:
// load → mutate → reconcile/record history → commit. A bulkhead of
// capacity one serializes the whole cycle so two concurrent
// upsert-accumulate operations can never lose an update.
type LedgerService struct {
	store   port.LedgerStore
	cache   port.Cache[*domain.Ledger]
	metrics *observability.Metrics
	logger  *zap.Logger

	writer  *resilience.Bulkhead
	breaker *gobreaker.CircuitBreaker
	opts    Options

	// gen counts commits. The read path compares it across a store load so a
	// snapshot taken before a concurrent commit is never cached after it.
	gen atomic.Uint64

	// Injection points for tests.
	now   func() time.Time
	newID func() string
}

// NewLedgerService creates the engine with all dependencies injected.
func NewLedgerService(
	store port.LedgerStore,
	cache port.Cache[*domain.Ledger],
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts Options,
) *LedgerService {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	return &LedgerService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		writer:  resilience.NewBulkhead(1),
		breaker: resilience.NewCircuitBreaker("ledger-store"),
		opts:    opts,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// GetLedger returns the full ledger document, members included.
// Reads go through a short-lived cache that every successful commit
// invalidates.
func (s *LedgerService) GetLedger(ctx context.Context) (*domain.Ledger, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.GetLedger")
	defer span.End()

	if cached, ok := s.cache.Get(ledgerCacheKey); ok {
		s.metrics.IncrCacheHit("ledger")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("ledger")

	gen := s.gen.Load()
	ledger, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	// Cache only if no commit landed while we were loading; otherwise this
	// snapshot may predate it and would outlive the commit's invalidation.
	if s.gen.Load() == gen {
		s.cache.Set(ledgerCacheKey, ledger)
	}
	return ledger, nil
}

// Apply runs one action through the full operation cycle. Every error it
// returns is recoverable at the action boundary: a failed action leaves
// both the persisted state and subsequent actions unaffected.
func (s *LedgerService) Apply(ctx context.Context, req *domain.ActionRequest) (*domain.ActionResult, error) {
	ctx, span := tracer.Start(ctx, "LedgerService.Apply")
	defer span.End()
	span.SetAttributes(attribute.String("ledger.action", req.Action))

	label := req.Action
	if label == "" {
		label = "none"
	}
	start := time.Now()
	defer func() { s.metrics.RecordActionDuration(label, time.Since(start)) }()

	// Neither an action nor a payload: an explicit no-op, not an error.
	if req.Action == "" && !hasPayload(req.Payload) {
		s.metrics.IncrAction(label, domain.ResultNoAction)
		return &domain.ActionResult{
			Status:  domain.ResultNoAction,
			Message: "No action performed.",
		}, nil
	}

	ok, err := s.writer.AcquireTimeout(ctx, s.opts.LockTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.IncrLockTimeout()
		s.metrics.IncrAction(label, domain.ResultError)
		return nil, &domain.ErrLockTimeout{Operation: label}
	}
	defer s.writer.Release()

	ledger, err := s.store.Load(ctx)
	if err != nil {
		s.metrics.IncrAction(label, domain.ResultError)
		return nil, err
	}

	result, dirty, err := s.dispatch(ledger, req)
	if err != nil {
		s.metrics.IncrAction(label, domain.ResultError)
		return nil, err
	}

	if dirty.Any() {
		if err := s.commit(ctx, ledger, dirty); err != nil {
			s.metrics.IncrAction(label, domain.ResultError)
			return nil, err
		}
		// Bump before Delete: a reader that loaded pre-commit state sees the
		// new generation and declines to re-populate the cache.
		s.gen.Add(1)
		s.cache.Delete(ledgerCacheKey)
	}

	s.metrics.IncrAction(label, result.Status)
	s.logger.Info("action applied",
		zap.String("action", label),
		zap.Bool("members_committed", dirty.Members),
		zap.Bool("ledger_committed", dirty.Ledger),
	)
	return result, nil
}

// dispatch maps an action name to its mutation. It returns which documents
// the mutation touched so the persistence layer commits exactly those.
func (s *LedgerService) dispatch(ledger *domain.Ledger, req *domain.ActionRequest) (*domain.ActionResult, domain.Dirty, error) {
	var (
		none    domain.Dirty
		members = domain.Dirty{Members: true}
		body    = domain.Dirty{Ledger: true}
	)

	switch req.Action {
	case domain.ActionAddMember:
		return wrap(s.addMember(ledger, req.Payload))(members)
	case domain.ActionRemoveMember:
		return wrap(s.removeMember(ledger, req.Payload))(members)
	case domain.ActionEditMember:
		return wrap(s.editMember(ledger, req.Payload))(members)
	case domain.ActionToggleMemberStatus:
		return wrap(s.toggleMemberStatus(ledger, req.Payload))(members)
	case domain.ActionSetDeactivationMonth:
		return wrap(s.setDeactivationMonth(ledger, req.Payload))(members)

	case domain.ActionAddMonthlyPayment:
		return wrap(s.addMonthlyPayment(ledger, req.Payload))(body)
	case domain.ActionEditMonthlyPayment:
		return wrap(s.editMonthlyPayment(ledger, req.Payload))(body)
	case domain.ActionDeleteMonthlyPayment:
		return wrap(s.deleteMonthlyPayment(ledger, req.Payload))(body)

	case domain.ActionAddExtraPayment:
		return wrap(s.addExtraPayment(ledger, req.Payload))(body)
	case domain.ActionEditExtraPayment:
		return wrap(s.editExtraPayment(ledger, req.Payload))(body)
	case domain.ActionDeleteExtraPayment:
		return wrap(s.deleteExtraPayment(ledger, req.Payload))(body)

	case domain.ActionAddExpense:
		return wrap(s.addExpense(ledger, req.Payload))(body)
	case domain.ActionEditExpense:
		return wrap(s.editExpense(ledger, req.Payload))(body)
	case domain.ActionDeleteExpense:
		return wrap(s.deleteExpense(ledger, req.Payload))(body)

	case domain.ActionAddEvent:
		return wrap(s.addEvent(ledger, req.Payload))(body)
	case domain.ActionEditEvent:
		return wrap(s.editEvent(ledger, req.Payload))(body)
	case domain.ActionDeleteEvent:
		return wrap(s.deleteEvent(ledger, req.Payload))(body)

	case domain.ActionUpdateAllFees:
		return wrap(s.updateAllFees(ledger, req.Payload))(body)

	case domain.ActionReplaceLedger:
		// Bulk import of a complete document. Dangerous enough that it
		// hides behind a config gate rather than an action-name fallback.
		if !s.opts.AllowReplace {
			return nil, none, &domain.ErrForbidden{Action: domain.ActionReplaceLedger}
		}
		return wrap(s.replaceLedger(ledger, req.Payload))(domain.Dirty{Members: true, Ledger: true})

	case "":
		return nil, none, &domain.ErrValidation{Field: "action", Message: "action is required when a payload is present"}
	default:
		return nil, none, &domain.ErrUnknownAction{Action: req.Action}
	}
}

// wrap curries a mutation's (record, error) pair with the dirty flags the
// dispatcher assigns, collapsing the per-case boilerplate.
func wrap(record any, err error) func(domain.Dirty) (*domain.ActionResult, domain.Dirty, error) {
	return func(dirty domain.Dirty) (*domain.ActionResult, domain.Dirty, error) {
		if err != nil {
			return nil, domain.Dirty{}, err
		}
		return &domain.ActionResult{
			Status:  domain.ResultSuccess,
			Message: "Data updated successfully.",
			Record:  record,
		}, dirty, nil
	}
}

// commit persists through the storage breaker with bounded retries.
func (s *LedgerService) commit(ctx context.Context, ledger *domain.Ledger, dirty domain.Dirty) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.opts.Retry, func() error {
			return s.store.Commit(ctx, ledger, dirty)
		})
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.metrics.IncrCommitFailure("ledger")
		return &domain.ErrCircuitOpen{Store: "ledger"}
	}

	var storeErr *domain.ErrStorageWrite
	if errors.As(err, &storeErr) {
		s.metrics.IncrCommitFailure(storeErr.Store)
		s.logger.Error("commit failed",
			zap.String("store", storeErr.Store),
			zap.Error(storeErr),
		)
	}
	return err
}

// replaceLedger overwrites the entire document set from the payload.
func (s *LedgerService) replaceLedger(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	replacement, err := decode[domain.Ledger](domain.ActionReplaceLedger, raw)
	if err != nil {
		return nil, err
	}
	*ledger = replacement
	s.logger.Warn("ledger replaced wholesale",
		zap.Int("members", len(ledger.Members)),
		zap.Int("monthly_details", len(ledger.MonthlyDetails)),
	)
	return nil, nil
}

// decode parses a payload into the shape an action expects. Absent or
// unparseable payloads fail before any mutation as *domain.ErrMalformedInput.
func decode[T any](action string, raw json.RawMessage) (T, error) {
	var v T
	if !hasPayload(raw) {
		return v, &domain.ErrMalformedInput{Action: action, Err: errors.New("payload is required")}
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &domain.ErrMalformedInput{Action: action, Err: err}
	}
	return v, nil
}

func hasPayload(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// resolveRef finds the index a RecordRef addresses. ID wins over index;
// a bad index fails with *domain.ErrIndexOutOfRange, leaving the
// collection untouched.
func resolveRef[T any](collection []T, ref domain.RecordRef, name string, idOf func(*T) string) (int, error) {
	if ref.ID != "" {
		for i := range collection {
			if idOf(&collection[i]) == ref.ID {
				return i, nil
			}
		}
		return -1, &domain.ErrNotFound{Resource: name, Key: ref.ID}
	}
	if ref.Index == nil {
		return -1, &domain.ErrValidation{Field: "index", Message: "either id or index is required"}
	}
	i := *ref.Index
	if i < 0 || i >= len(collection) {
		return -1, &domain.ErrIndexOutOfRange{Collection: name, Index: i, Length: len(collection)}
	}
	return i, nil
}

func (s *LedgerService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
