// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/societyops/dueskeeper/internal/domain"
)

// LedgerStore loads and durably commits the full ledger aggregate.
//
// Load returns the complete in-memory structure, members included. A store
// that has never been written must initialize itself with the canonical
// seed and persist it before returning.
//
// Commit persists the full structure (no diffs) for the documents marked
// dirty. Stores that keep members in a separate document must write members
// first and abort before touching the ledger document when that write
// fails; failures are reported as *domain.ErrStorageWrite naming the
// document. Writes are atomic replaces of the prior content.
type LedgerStore interface {
	Load(ctx context.Context) (*domain.Ledger, error)
	Commit(ctx context.Context, ledger *domain.Ledger, dirty domain.Dirty) error
	Close() error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
