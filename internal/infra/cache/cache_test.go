package cache_test

import (
	"testing"
	"time"

	"github.com/societyops/dueskeeper/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("ledger", "snapshot")
	val, ok := c.Get("ledger")
	if !ok {
		t.Fatal("expected a hit for a freshly set key")
	}
	if val != "snapshot" {
		t.Errorf("value = %q, want %q", val, "snapshot")
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	if _, ok := c.Get("never-set"); ok {
		t.Fatal("expected a miss for a key that was never set")
	}
}

func TestCache_ExpiredEntryIsAMiss(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("ledger", "snapshot")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("ledger"); ok {
		t.Fatal("expected the entry to have expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("ledger", "snapshot")
	c.Delete("ledger")

	if _, ok := c.Get("ledger"); ok {
		t.Fatal("expected the entry to be gone after Delete")
	}

	// Deleting an absent key must not panic.
	c.Delete("ledger")
}

func TestCache_SetReplaces(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("ledger", "first")
	c.Set("ledger", "second")

	val, _ := c.Get("ledger")
	if val != "second" {
		t.Errorf("value = %q, want the replacement", val)
	}
}
