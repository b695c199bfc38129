package service

import (
	"encoding/json"
	"strings"

	"github.com/societyops/dueskeeper/internal/domain"
)

func (s *LedgerService) addExpense(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	expense, err := decode[domain.Expense](domain.ActionAddExpense, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(expense.Description) == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "description is required"}
	}
	if expense.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	expense.ID = s.newID()
	if expense.Date == "" {
		expense.Date = s.now().UTC().Format("2006-01-02")
	}
	ledger.Expenses = append(ledger.Expenses, expense)
	return expense, nil
}

func (s *LedgerService) editExpense(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.EditExpensePayload](domain.ActionEditExpense, raw)
	if err != nil {
		return nil, err
	}
	i, err := resolveRef(ledger.Expenses, p.RecordRef, "expenses",
		func(e *domain.Expense) string { return e.ID })
	if err != nil {
		return nil, err
	}

	s.recordHistory(ledger, domain.RecordExpense, "edit", ledger.Expenses[i])

	// Wholesale replacement, but the stable ID survives the edit.
	updated := p.UpdatedExpense
	updated.ID = ledger.Expenses[i].ID
	ledger.Expenses[i] = updated
	return updated, nil
}

func (s *LedgerService) deleteExpense(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.RecordRef](domain.ActionDeleteExpense, raw)
	if err != nil {
		return nil, err
	}
	i, err := resolveRef(ledger.Expenses, p, "expenses",
		func(e *domain.Expense) string { return e.ID })
	if err != nil {
		return nil, err
	}

	s.recordHistory(ledger, domain.RecordExpense, "delete", ledger.Expenses[i])
	ledger.Expenses = removeAt(ledger.Expenses, i)
	return nil, nil
}
