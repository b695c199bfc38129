package service

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/societyops/dueskeeper/internal/domain"
)

// recordHistory appends a pre-mutation snapshot of a record to the history
// log. It runs before the mutation itself so the snapshot always captures
// the state being replaced or removed. The log is append-only; nothing in
// the engine ever rewrites or prunes it.
func (s *LedgerService) recordHistory(ledger *domain.Ledger, recordType, action string, record any) {
	raw, err := json.Marshal(record)
	if err != nil {
		// Marshaling our own domain structs cannot realistically fail;
		// if it somehow does, keep the entry with a null body rather
		// than losing the audit trail.
		s.logger.Error("failed to snapshot record for history",
			zap.String("record_type", recordType),
			zap.Error(err),
		)
		raw = json.RawMessage("null")
	}
	ledger.History = append(ledger.History, domain.HistoryEntry{
		ID:         s.newID(),
		RecordType: recordType,
		Action:     action,
		RecordedAt: s.timestamp(),
		Record:     raw,
	})
}

// removeAt deletes the element at i, preserving order.
func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
