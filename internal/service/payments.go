package service

import (
	"encoding/json"
	"strings"

	"github.com/societyops/dueskeeper/internal/domain"
)

// Payment mutations. Both payment kinds follow the same upsert-accumulate
// model: at most one record exists per key, adds fold into it, edits replace
// the cumulative total, and every edit or delete snapshots the prior state
// into history first.

func (s *LedgerService) addMonthlyPayment(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.AddMonthlyPaymentPayload](domain.ActionAddMonthlyPayment, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.MemberName) == "" {
		return nil, &domain.ErrValidation{Field: "memberName", Message: "member name is required"}
	}
	if !validMonth(p.Month) {
		return nil, &domain.ErrValidation{Field: "month", Message: "not a calendar month"}
	}
	if p.AmountPaid <= 0 {
		return nil, &domain.ErrValidation{Field: "amountPaid", Message: "amount must be positive"}
	}

	due := ledger.FeeFor(p.Month)

	// Upsert-accumulate: fold into the existing (member, month) record if
	// one exists. The first contribution's date and paidVia are kept.
	for i := range ledger.MonthlyDetails {
		d := &ledger.MonthlyDetails[i]
		if d.MemberName == p.MemberName && d.Month == p.Month {
			d.AmountPaid += p.AmountPaid
			d.TotalAmountDue = due
			d.Reconcile()
			return *d, nil
		}
	}

	detail := domain.MonthlyPaymentDetail{
		ID:             s.newID(),
		MemberName:     p.MemberName,
		Month:          p.Month,
		AmountPaid:     p.AmountPaid,
		TotalAmountDue: due,
		PaidVia:        p.PaidVia,
		Date:           s.now().UTC().Format("2006-01-02"),
	}
	detail.Reconcile()
	ledger.MonthlyDetails = append(ledger.MonthlyDetails, detail)
	return detail, nil
}

func (s *LedgerService) editMonthlyPayment(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.EditMonthlyPaymentPayload](domain.ActionEditMonthlyPayment, raw)
	if err != nil {
		return nil, err
	}
	if p.AmountPaid < 0 {
		return nil, &domain.ErrValidation{Field: "amountPaid", Message: "amount must not be negative"}
	}
	i, err := resolveRef(ledger.MonthlyDetails, p.RecordRef, "monthlyPaymentDetails",
		func(d *domain.MonthlyPaymentDetail) string { return d.ID })
	if err != nil {
		return nil, err
	}

	d := &ledger.MonthlyDetails[i]
	s.recordHistory(ledger, domain.RecordMonthlyPayment, "edit", *d)

	// Edit replaces the cumulative total; it never accumulates.
	d.AmountPaid = p.AmountPaid
	if p.PaidVia != "" {
		d.PaidVia = p.PaidVia
	}
	d.Reconcile()
	return *d, nil
}

func (s *LedgerService) deleteMonthlyPayment(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.RecordRef](domain.ActionDeleteMonthlyPayment, raw)
	if err != nil {
		return nil, err
	}
	i, err := resolveRef(ledger.MonthlyDetails, p, "monthlyPaymentDetails",
		func(d *domain.MonthlyPaymentDetail) string { return d.ID })
	if err != nil {
		return nil, err
	}

	s.recordHistory(ledger, domain.RecordMonthlyPayment, "delete", ledger.MonthlyDetails[i])
	ledger.MonthlyDetails = removeAt(ledger.MonthlyDetails, i)
	return nil, nil
}

func (s *LedgerService) addExtraPayment(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.AddExtraPaymentPayload](domain.ActionAddExtraPayment, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.MemberName) == "" {
		return nil, &domain.ErrValidation{Field: "memberName", Message: "member name is required"}
	}
	if p.AmountPaid <= 0 {
		return nil, &domain.ErrValidation{Field: "amountPaid", Message: "amount must be positive"}
	}
	if strings.TrimSpace(p.ExtraPaymentFor) == "" {
		return nil, &domain.ErrValidation{Field: "extraPaymentFor", Message: "event name is required"}
	}

	// An event with no fee definition carries a due of zero; the payment is
	// still recorded and reconciles as overpaid.
	due := ledger.EventFee(p.ExtraPaymentFor)

	for i := range ledger.ExtraDetails {
		d := &ledger.ExtraDetails[i]
		if d.MemberName == p.MemberName && d.ExtraPaymentFor == p.ExtraPaymentFor {
			d.PaidAmount += p.AmountPaid
			d.TotalAmountDue = due
			d.Reconcile()
			return *d, nil
		}
	}

	detail := domain.ExtraPaymentDetail{
		ID:              s.newID(),
		MemberName:      p.MemberName,
		ExtraPaymentFor: p.ExtraPaymentFor,
		PaidAmount:      p.AmountPaid,
		TotalAmountDue:  due,
		Date:            s.now().UTC().Format("2006-01-02"),
	}
	detail.Reconcile()
	ledger.ExtraDetails = append(ledger.ExtraDetails, detail)
	return detail, nil
}

func (s *LedgerService) editExtraPayment(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.EditExtraPaymentPayload](domain.ActionEditExtraPayment, raw)
	if err != nil {
		return nil, err
	}
	if p.AmountPaid < 0 {
		return nil, &domain.ErrValidation{Field: "amountPaid", Message: "amount must not be negative"}
	}
	i, err := resolveRef(ledger.ExtraDetails, p.RecordRef, "extraPaymentDetails",
		func(d *domain.ExtraPaymentDetail) string { return d.ID })
	if err != nil {
		return nil, err
	}

	d := &ledger.ExtraDetails[i]
	s.recordHistory(ledger, domain.RecordExtraPayment, "edit", *d)
	d.PaidAmount = p.AmountPaid
	d.Reconcile()
	return *d, nil
}

func (s *LedgerService) deleteExtraPayment(ledger *domain.Ledger, raw json.RawMessage) (any, error) {
	p, err := decode[domain.RecordRef](domain.ActionDeleteExtraPayment, raw)
	if err != nil {
		return nil, err
	}
	i, err := resolveRef(ledger.ExtraDetails, p, "extraPaymentDetails",
		func(d *domain.ExtraPaymentDetail) string { return d.ID })
	if err != nil {
		return nil, err
	}

	s.recordHistory(ledger, domain.RecordExtraPayment, "delete", ledger.ExtraDetails[i])
	ledger.ExtraDetails = removeAt(ledger.ExtraDetails, i)
	return nil, nil
}

func eventExists(ledger *domain.Ledger, name string) bool {
	for _, e := range ledger.Events {
		if e.Name == name {
			return true
		}
	}
	return false
}
