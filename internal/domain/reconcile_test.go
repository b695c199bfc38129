package domain_test

import (
	"testing"

	"github.com/societyops/dueskeeper/internal/domain"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name          string
		totalDue      int64
		paid          int64
		wantRemaining int64
		wantStatus    string
	}{
		{"exact payment", 1500, 1500, 0, "Fully Paid"},
		{"partial payment", 1500, 1000, 500, "Partially Paid: Remaining 500"},
		{"overpayment", 1500, 1800, 0, "Overpaid: Excess 300"},
		{"nothing due and nothing paid", 0, 0, 0, "Fully Paid"},
		{"payment against zero due", 0, 250, 0, "Overpaid: Excess 250"},
		{"single unit short", 1500, 1499, 1, "Partially Paid: Remaining 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, status := domain.Reconcile(tt.totalDue, tt.paid)
			if remaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining, tt.wantRemaining)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
		})
	}
}

func TestMonthlyPaymentDetailReconcile(t *testing.T) {
	d := domain.MonthlyPaymentDetail{
		MemberName:     "Asha",
		Month:          "January",
		AmountPaid:     1000,
		TotalAmountDue: 1500,
	}
	d.Reconcile()

	if d.RemainingAmount != 500 {
		t.Errorf("remainingAmount = %d, want 500", d.RemainingAmount)
	}
	if d.Status != "Partially Paid: Remaining 500" {
		t.Errorf("status = %q", d.Status)
	}

	// Accumulate to exactly the due amount.
	d.AmountPaid += 500
	d.Reconcile()
	if d.Status != domain.StatusFullyPaid {
		t.Errorf("status after top-up = %q, want %q", d.Status, domain.StatusFullyPaid)
	}
	if d.RemainingAmount != 0 {
		t.Errorf("remainingAmount after top-up = %d, want 0", d.RemainingAmount)
	}
}

func TestExtraPaymentDetailReconcile(t *testing.T) {
	d := domain.ExtraPaymentDetail{
		MemberName:      "Ravi",
		ExtraPaymentFor: "Diwali Celebration",
		PaidAmount:      700,
		TotalAmountDue:  500,
	}
	d.Reconcile()

	if d.RemainingAmount != 0 {
		t.Errorf("remainingAmount = %d, want 0 for overpayment", d.RemainingAmount)
	}
	if d.Status != "Overpaid: Excess 200" {
		t.Errorf("status = %q", d.Status)
	}
}

func TestLedgerFeeLookups(t *testing.T) {
	l := &domain.Ledger{
		FeeSchedule: []domain.FeeScheduleEntry{
			{Month: "January", Amount: 1500},
			{Month: "February", Amount: 1600},
		},
		Events: []domain.EventDefinition{
			{Name: "Diwali Celebration", Amount: 500},
		},
	}

	if got := l.FeeFor("February"); got != 1600 {
		t.Errorf("FeeFor(February) = %d, want 1600", got)
	}
	if got := l.FeeFor("March"); got != 0 {
		t.Errorf("FeeFor(March) = %d, want 0 for unscheduled month", got)
	}
	if got := l.EventFee("Diwali Celebration"); got != 500 {
		t.Errorf("EventFee = %d, want 500", got)
	}
	if got := l.EventFee("Unknown"); got != 0 {
		t.Errorf("EventFee(Unknown) = %d, want 0", got)
	}
}

func TestLedgerClone_SharesNoSliceStorage(t *testing.T) {
	orig := &domain.Ledger{
		FeeSchedule: []domain.FeeScheduleEntry{{Month: "January", Amount: 1500}},
		Events:      []domain.EventDefinition{{Name: "Diwali Celebration", Amount: 500}},
		Members:     []domain.Member{{Name: "Asha"}},
	}

	clone := orig.Clone()
	clone.FeeSchedule[0].Amount = 9999
	clone.Events = append(clone.Events, domain.EventDefinition{Name: "Picnic", Amount: 300})
	clone.Members[0].Name = "Renamed"

	if orig.FeeSchedule[0].Amount != 1500 {
		t.Errorf("fee schedule aliased: %d", orig.FeeSchedule[0].Amount)
	}
	if len(orig.Events) != 1 {
		t.Errorf("events aliased: %d entries", len(orig.Events))
	}
	if orig.Members[0].Name != "Asha" {
		t.Errorf("members aliased: %q", orig.Members[0].Name)
	}
}
