// Package domain defines the core business entities for dueskeeper.
// These models are independent of the transport and persistence layers and
// represent the canonical ledger schema. JSON tags follow the persisted
// document layout: the fee schedule is stored under "monthlyPayments" and
// event definitions under "extraPayments" for compatibility with existing
// data files.
package domain

import (
	"encoding/json"
	"slices"
)

// Months lists the twelve calendar months in schedule order.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Member statuses.
const (
	MemberActive   = "active"
	MemberInactive = "inactive"
)

// Member is a registered member of the organization. Members are persisted
// in their own document, separate from the ledger body.
type Member struct {
	ID                string `json:"id,omitempty"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	JoiningDate       string `json:"joiningDate,omitempty"`
	Status            string `json:"status,omitempty"`
	DeactivationMonth string `json:"deactivationMonth,omitempty"`
}

// FeeScheduleEntry is the due amount for one calendar month, applied
// uniformly to all active members.
type FeeScheduleEntry struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
}

// EventDefinition is a one-off event with its own due amount.
type EventDefinition struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// MonthlyPaymentDetail is the single cumulative payment record for a
// (member, month) pair. AmountPaid accumulates across contributions;
// RemainingAmount and Status are derived via Reconcile.
type MonthlyPaymentDetail struct {
	ID              string `json:"id,omitempty"`
	MemberName      string `json:"memberName"`
	Month           string `json:"month"`
	AmountPaid      int64  `json:"amountPaid"`
	TotalAmountDue  int64  `json:"totalAmountDue"`
	PaidVia         string `json:"paidVia,omitempty"`
	Date            string `json:"date"`
	RemainingAmount int64  `json:"remainingAmount"`
	Status          string `json:"status"`
}

// ExtraPaymentDetail is the single cumulative payment record for a
// (member, event) pair. The wire field for the cumulative amount is
// "paidAmount", not "amountPaid" — a historical quirk of the data files.
type ExtraPaymentDetail struct {
	ID              string `json:"id,omitempty"`
	MemberName      string `json:"memberName"`
	ExtraPaymentFor string `json:"extraPaymentFor"`
	PaidAmount      int64  `json:"paidAmount"`
	TotalAmountDue  int64  `json:"totalAmountDue"`
	Date            string `json:"date"`
	RemainingAmount int64  `json:"remainingAmount"`
	Status          string `json:"status"`
}

// Expense is a recorded organization expense.
type Expense struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date,omitempty"`
	Category    string `json:"category,omitempty"`
	PaidVia     string `json:"paidVia,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Record types captured in history entries.
const (
	RecordMonthlyPayment = "monthlyPaymentDetail"
	RecordExtraPayment   = "extraPaymentDetail"
	RecordExpense        = "expense"
	RecordEvent          = "event"
)

// HistoryEntry is an immutable pre-mutation snapshot of a record, appended
// to the history log before every edit or delete. The log is write-only:
// nothing in the engine ever reads it back, and no entry is ever removed.
type HistoryEntry struct {
	ID         string          `json:"id"`
	RecordType string          `json:"recordType"`
	Action     string          `json:"action"` // "edit" or "delete"
	RecordedAt string          `json:"recordedAt"`
	Record     json.RawMessage `json:"record"`
}

// Ledger is the aggregate root: the unit of load and commit. Members live
// in a secondary document in the two-file deployment mode, so the field is
// omitted from the ledger-body document when empty.
type Ledger struct {
	Events          []EventDefinition      `json:"extraPayments"`
	FeeSchedule     []FeeScheduleEntry     `json:"monthlyPayments"`
	MonthlyDetails  []MonthlyPaymentDetail `json:"monthlyPaymentDetails"`
	ExtraDetails    []ExtraPaymentDetail   `json:"extraPaymentDetails"`
	Expenses        []Expense              `json:"expenses"`
	History         []HistoryEntry         `json:"history"`
	Members         []Member               `json:"members,omitempty"`
}

// Clone returns a copy sharing no slice storage with the receiver, so
// mutations on the copy cannot alias into a retained original (the seed
// document, a cached snapshot). History snapshot bytes are immutable and
// stay shared.
func (l *Ledger) Clone() Ledger {
	return Ledger{
		Events:         slices.Clone(l.Events),
		FeeSchedule:    slices.Clone(l.FeeSchedule),
		MonthlyDetails: slices.Clone(l.MonthlyDetails),
		ExtraDetails:   slices.Clone(l.ExtraDetails),
		Expenses:       slices.Clone(l.Expenses),
		History:        slices.Clone(l.History),
		Members:        slices.Clone(l.Members),
	}
}

// FeeFor returns the scheduled due amount for a month, or 0 when the month
// is not in the schedule.
func (l *Ledger) FeeFor(month string) int64 {
	for _, f := range l.FeeSchedule {
		if f.Month == month {
			return f.Amount
		}
	}
	return 0
}

// EventFee returns the due amount for an event, or 0 when the event is
// unknown.
func (l *Ledger) EventFee(name string) int64 {
	for _, e := range l.Events {
		if e.Name == name {
			return e.Amount
		}
	}
	return 0
}

// Dirty records which documents an action mutated, so the persistence layer
// knows what to commit and in which order (members first, ledger second).
type Dirty struct {
	Members bool
	Ledger  bool
}

// Any reports whether anything needs committing.
func (d Dirty) Any() bool { return d.Members || d.Ledger }
