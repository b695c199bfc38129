package domain

import "fmt"

// Payment statuses derived by Reconcile. Partial and overpaid statuses carry
// the outstanding/excess amount in the string, matching the persisted format.
const (
	StatusFullyPaid = "Fully Paid"
)

// Reconcile computes the derived balance fields for a payment record from
// its due amount and cumulative paid amount. Pure and deterministic; called
// after every mutation of a payment detail record.
//
//	remaining == 0 → "Fully Paid"
//	remaining  < 0 → "Overpaid: Excess {|remaining|}"
//	remaining  > 0 → "Partially Paid: Remaining {remaining}"
//
// RemainingAmount is clamped at zero so overpayment never surfaces as a
// negative balance.
func Reconcile(totalDue, paid int64) (remainingAmount int64, status string) {
	remaining := totalDue - paid
	switch {
	case remaining == 0:
		return 0, StatusFullyPaid
	case remaining < 0:
		return 0, fmt.Sprintf("Overpaid: Excess %d", -remaining)
	default:
		return remaining, fmt.Sprintf("Partially Paid: Remaining %d", remaining)
	}
}

// Reconcile recomputes the record's derived fields in place.
func (p *MonthlyPaymentDetail) Reconcile() {
	p.RemainingAmount, p.Status = Reconcile(p.TotalAmountDue, p.AmountPaid)
}

// Reconcile recomputes the record's derived fields in place.
func (p *ExtraPaymentDetail) Reconcile() {
	p.RemainingAmount, p.Status = Reconcile(p.TotalAmountDue, p.PaidAmount)
}
