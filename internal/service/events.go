package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/societyops/dueskeeper/internal/domain"
)

// Event definitions and the monthly fee schedule. Changing a definition only
// affects payments recorded afterwards; existing detail records keep the due
// amount that was current when they were last touched.

func (s *LedgerService) addEvent(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.AddEventPayload](domain.ActionAddEvent, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "event name is required"}
	}
	if p.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must not be negative"}
	}
	if eventExists(ledger, p.Name) {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("event %q already exists", p.Name)}
	}

	event := domain.EventDefinition{
		ID:     s.newID(),
		Name:   p.Name,
		Amount: p.Amount,
	}
	ledger.Events = append(ledger.Events, event)
	return event, nil
}

func (s *LedgerService) editEvent(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.EditEventPayload](domain.ActionEditEvent, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Event.Name) == "" {
		return nil, &domain.ErrValidation{Field: "event.name", Message: "event name is required"}
	}
	if p.Event.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "event.amount", Message: "amount must not be negative"}
	}
	i, err := resolveRef(ledger.Events, p.RecordRef, "extraPayments",
		func(e *domain.EventDefinition) string { return e.ID })
	if err != nil {
		return nil, err
	}

	s.recordHistory(ledger, domain.RecordEvent, "edit", ledger.Events[i])

	updated := p.Event
	updated.ID = ledger.Events[i].ID
	ledger.Events[i] = updated
	return updated, nil
}

func (s *LedgerService) deleteEvent(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.RecordRef](domain.ActionDeleteEvent, raw)
	if err != nil {
		return nil, err
	}
	i, err := resolveRef(ledger.Events, p, "extraPayments",
		func(e *domain.EventDefinition) string { return e.ID })
	if err != nil {
		return nil, err
	}

	// Detail records for the event are kept; only the definition goes.
	s.recordHistory(ledger, domain.RecordEvent, "delete", ledger.Events[i])
	ledger.Events = removeAt(ledger.Events, i)
	return nil, nil
}

func (s *LedgerService) updateAllFees(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.UpdateAllFeesPayload](domain.ActionUpdateAllFees, raw)
	if err != nil {
		return nil, err
	}
	if len(p) != len(domain.Months) {
		return nil, &domain.ErrValidation{
			Field:   "fees",
			Message: fmt.Sprintf("expected %d entries, got %d", len(domain.Months), len(p)),
		}
	}

	seen := make(map[string]bool, len(p))
	for _, f := range p {
		if !validMonth(f.Month) {
			return nil, &domain.ErrValidation{Field: "fees.month", Message: fmt.Sprintf("%q is not a calendar month", f.Month)}
		}
		if seen[f.Month] {
			return nil, &domain.ErrValidation{Field: "fees.month", Message: fmt.Sprintf("duplicate month %q", f.Month)}
		}
		if f.Amount < 0 {
			return nil, &domain.ErrValidation{Field: "fees.amount", Message: "amount must not be negative"}
		}
		seen[f.Month] = true
	}

	ledger.FeeSchedule = []domain.FeeScheduleEntry(p)
	return ledger.FeeSchedule, nil
}
