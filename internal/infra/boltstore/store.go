// Package boltstore persists the ledger in a single bbolt file, committing
// the member registry and ledger body in one transaction. It exists for
// deployments that want to close the partial-failure window the two-file
// JSON layout has between the members and ledger writes.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/societyops/dueskeeper/internal/domain"
)

var tracer = otel.Tracer("boltstore")

// Bucket and key names. Both documents keep the same JSON encoding as the
// file store, just held under one roof.
const (
	bucketLedger = "ledger"

	keyBody    = "body"
	keyMembers = "members"
)

// Store is a bbolt-backed ledger store.
type Store struct {
	db     *bolt.DB
	seed   *domain.Ledger
	logger *zap.Logger
}

// New opens (or creates) the database at path and ensures the bucket
// exists. The seed is persisted on first Load when the bucket is empty.
func New(path string, seed *domain.Ledger, logger *zap.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketLedger))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db, seed: seed, logger: logger}, nil
}

// Load reads both documents from the bucket. An empty bucket initializes
// the store with the seed and persists it immediately.
func (s *Store) Load(ctx context.Context) (*domain.Ledger, error) {
	ctx, span := tracer.Start(ctx, "boltstore.Load")
	defer span.End()

	var (
		ledger domain.Ledger
		seeded bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLedger))
		body := b.Get([]byte(keyBody))
		if body == nil {
			seeded = true
			return nil
		}
		if err := json.Unmarshal(body, &ledger); err != nil {
			return fmt.Errorf("decode ledger document: %w", err)
		}

		var members []domain.Member
		if raw := b.Get([]byte(keyMembers)); raw != nil {
			if err := json.Unmarshal(raw, &members); err != nil {
				return fmt.Errorf("decode members document: %w", err)
			}
		}
		if members == nil {
			members = []domain.Member{}
		}
		ledger.Members = members
		return nil
	})
	if err != nil {
		return nil, err
	}

	if seeded {
		ledger = s.seed.Clone()
		if err := s.Commit(ctx, &ledger, domain.Dirty{Members: true, Ledger: true}); err != nil {
			return nil, err
		}
		s.logger.Info("initialized bolt ledger store with seed", zap.String("path", s.db.Path()))
	}

	return &ledger, nil
}

// Commit writes the dirty documents inside a single transaction, so a
// member action and its ledger side effects land atomically or not at all.
func (s *Store) Commit(ctx context.Context, ledger *domain.Ledger, dirty domain.Dirty) error {
	_, span := tracer.Start(ctx, "boltstore.Commit")
	defer span.End()

	// failedStore attributes a failure to the document being written when
	// one errs, matching the per-document labels the file store reports.
	failedStore := "ledger"
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLedger))

		if dirty.Members {
			failedStore = "members"
			members := ledger.Members
			if members == nil {
				members = []domain.Member{}
			}
			data, err := json.Marshal(members)
			if err != nil {
				return fmt.Errorf("encode members: %w", err)
			}
			if err := b.Put([]byte(keyMembers), data); err != nil {
				return err
			}
		}

		failedStore = "ledger"
		if dirty.Ledger {
			body := *ledger
			body.Members = nil
			data, err := json.Marshal(&body)
			if err != nil {
				return fmt.Errorf("encode ledger: %w", err)
			}
			if err := b.Put([]byte(keyBody), data); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return &domain.ErrStorageWrite{Store: failedStore, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
