package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/societyops/dueskeeper/internal/infra/resilience"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_RetriesOnFailure(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		if callCount < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
	}

	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

func TestRetryWithBackoff_ZeroConfigRunsOnce(t *testing.T) {
	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), resilience.Config{}, func() error {
		callCount++
		return errors.New("fails")
	})

	if err == nil {
		t.Fatal("expected the single attempt's error")
	}
	if callCount != 1 {
		t.Errorf("expected exactly 1 call with no retries configured, got %d", callCount)
	}
}

func TestRetryWithBackoff_RespectsContext(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("error")
	})

	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestBulkhead_AcquireRelease(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}

	// Third acquire should block — test with timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := bh.Acquire(ctx)
	if err == nil {
		t.Fatal("expected timeout on third acquire")
	}

	// Release one slot
	bh.Release()

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}

func TestBulkhead_AcquireTimeout(t *testing.T) {
	bh := resilience.NewBulkhead(1)

	ok, err := bh.AcquireTimeout(context.Background(), 50*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want success", ok, err)
	}

	// The slot is held, so the second attempt expires.
	ok, err = bh.AcquireTimeout(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected the wait to expire while the slot is held")
	}

	bh.Release()
	ok, err = bh.AcquireTimeout(context.Background(), 50*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("acquire after release = (%v, %v), want success", ok, err)
	}
}

func TestBulkhead_AcquireTimeout_CancelledContext(t *testing.T) {
	bh := resilience.NewBulkhead(1)
	if ok, _ := bh.AcquireTimeout(context.Background(), time.Second); !ok {
		t.Fatal("setup acquire failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bh.AcquireTimeout(ctx, time.Second)
	if err == nil {
		t.Fatal("expected the caller's cancellation to surface as an error")
	}
}
