// Package jsonstore persists the ledger as two pretty-printed JSON
// documents: the ledger body and the member registry. This mirrors the
// layout existing deployments already have on disk, so files written by
// earlier tooling load unchanged.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/societyops/dueskeeper/internal/domain"
)

var tracer = otel.Tracer("jsonstore")

// Store is a two-document file-backed ledger store.
//
// Commit ordering is part of its contract: the members document is written
// first, and a members failure aborts before the ledger document is
// touched. The split is a best-effort sequential commit, not an atomic
// multi-file transaction — a ledger-write failure after a successful
// members write leaves the documents out of step, which the returned
// *domain.ErrStorageWrite makes attributable.
type Store struct {
	ledgerPath  string
	membersPath string
	seed        *domain.Ledger
	logger      *zap.Logger
}

// New creates a Store rooted at dir. Relative file names are joined onto
// dir; absolute ones are used as-is. The seed is persisted on first Load
// when the ledger document does not exist yet.
func New(dir, ledgerFile, membersFile string, seed *domain.Ledger, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		ledgerPath:  resolve(dir, ledgerFile),
		membersPath: resolve(dir, membersFile),
		seed:        seed,
		logger:      logger,
	}, nil
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// Load reads both documents and returns the combined in-memory ledger.
// A missing ledger document initializes the store with the seed and
// persists it immediately; a missing members document is treated as an
// empty registry.
func (s *Store) Load(ctx context.Context) (*domain.Ledger, error) {
	ctx, span := tracer.Start(ctx, "jsonstore.Load")
	defer span.End()

	if _, err := os.Stat(s.ledgerPath); errors.Is(err, fs.ErrNotExist) {
		return s.initialize(ctx)
	}

	var (
		ledger  domain.Ledger
		members []domain.Member
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := os.ReadFile(s.ledgerPath)
		if err != nil {
			return fmt.Errorf("read ledger document: %w", err)
		}
		if err := json.Unmarshal(data, &ledger); err != nil {
			return fmt.Errorf("decode ledger document: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		data, err := os.ReadFile(s.membersPath)
		if errors.Is(err, fs.ErrNotExist) {
			members = []domain.Member{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read members document: %w", err)
		}
		if err := json.Unmarshal(data, &members); err != nil {
			return fmt.Errorf("decode members document: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ledger.Members = members
	normalize(&ledger)
	return &ledger, nil
}

// initialize seeds a fresh store and persists it before returning, so a
// crash between first load and first action still leaves valid documents.
func (s *Store) initialize(ctx context.Context) (*domain.Ledger, error) {
	ledger := s.seed.Clone()
	if err := s.Commit(ctx, &ledger, domain.Dirty{Members: true, Ledger: true}); err != nil {
		return nil, err
	}
	s.logger.Info("initialized ledger store with seed",
		zap.String("ledger_path", s.ledgerPath),
		zap.String("members_path", s.membersPath),
	)
	return &ledger, nil
}

// Commit persists the full in-memory structure for the dirty documents.
// Members first, ledger second; each write is an atomic replace.
func (s *Store) Commit(ctx context.Context, ledger *domain.Ledger, dirty domain.Dirty) error {
	_, span := tracer.Start(ctx, "jsonstore.Commit")
	defer span.End()

	if dirty.Members {
		members := ledger.Members
		if members == nil {
			members = []domain.Member{}
		}
		if err := writeJSONAtomic(s.membersPath, members); err != nil {
			return &domain.ErrStorageWrite{Store: "members", Err: err}
		}
	}

	if dirty.Ledger {
		// The ledger document never embeds members; they live in their
		// own file.
		body := *ledger
		body.Members = nil
		if err := writeJSONAtomic(s.ledgerPath, &body); err != nil {
			return &domain.ErrStorageWrite{Store: "ledger", Err: err}
		}
	}

	return nil
}

// Close is a no-op for the file store; it exists to satisfy the port.
func (s *Store) Close() error { return nil }

// writeJSONAtomic encodes v pretty-printed and replaces path in one rename,
// so readers never observe a torn document.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// normalize replaces nil collections with empty slices so the engine and
// the wire format never distinguish "absent" from "empty". Older documents
// predate the history log entirely.
func normalize(l *domain.Ledger) {
	if l.Events == nil {
		l.Events = []domain.EventDefinition{}
	}
	if l.FeeSchedule == nil {
		l.FeeSchedule = []domain.FeeScheduleEntry{}
	}
	if l.MonthlyDetails == nil {
		l.MonthlyDetails = []domain.MonthlyPaymentDetail{}
	}
	if l.ExtraDetails == nil {
		l.ExtraDetails = []domain.ExtraPaymentDetail{}
	}
	if l.Expenses == nil {
		l.Expenses = []domain.Expense{}
	}
	if l.History == nil {
		l.History = []domain.HistoryEntry{}
	}
}
