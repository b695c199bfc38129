package domain

import "encoding/json"

// Action names accepted by the dispatcher. Anything else is rejected —
// there is deliberately no fallback that overwrites the ledger from an
// unrecognized action; bulk replacement requires the explicit
// ActionReplaceLedger and a config gate.
const (
	ActionAddMember            = "addMember"
	ActionRemoveMember         = "removeMember"
	ActionEditMember           = "editMember"
	ActionToggleMemberStatus   = "toggleMemberStatus"
	ActionSetDeactivationMonth = "setDeactivationMonth"

	ActionAddMonthlyPayment    = "addMonthlyPayment"
	ActionEditMonthlyPayment   = "editMonthlyPayment"
	ActionDeleteMonthlyPayment = "deleteMonthlyPayment"

	ActionAddExtraPayment    = "addExtraPayment"
	ActionEditExtraPayment   = "editExtraPayment"
	ActionDeleteExtraPayment = "deleteExtraPayment"

	ActionAddExpense    = "addExpense"
	ActionEditExpense   = "editExpense"
	ActionDeleteExpense = "deleteExpense"

	ActionAddEvent    = "addEvent"
	ActionEditEvent   = "editEvent"
	ActionDeleteEvent = "deleteEvent"

	ActionUpdateAllFees = "updateAllFees"
	ActionReplaceLedger = "replaceLedger"
)

// ActionRequest is the transport-agnostic request contract:
// an action name plus its raw payload. Both may be absent, which is
// reported as an explicit no-op rather than an error.
type ActionRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Result statuses.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultNoAction = "no-action"
)

// ActionResult is the response contract handed back to the transport layer.
// Record carries the updated payment record for the add*Payment actions.
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Record  any    `json:"record,omitempty"`
}

// ============================================================
// Action payloads
// ============================================================

// AddMemberPayload creates a member. JoiningDate defaults to the current
// date when omitted.
type AddMemberPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	JoiningDate string `json:"joiningDate,omitempty"`
}

// RemoveMemberPayload removes every member whose name matches.
type RemoveMemberPayload struct {
	Name string `json:"name"`
}

// EditMemberPayload renames the first member matching OriginalName.
type EditMemberPayload struct {
	OriginalName string `json:"originalName"`
	Name         string `json:"name"`
	Email        string `json:"email"`
}

// RecordRef addresses an existing record either by its stable ID or by
// positional index. ID wins when both are present; Index is kept for
// compatibility with callers that predate stable IDs.
type RecordRef struct {
	ID    string `json:"id,omitempty"`
	Index *int   `json:"index,omitempty"`
}

// ToggleMemberStatusPayload sets a member's status, or flips it between
// active and inactive when Status is empty.
type ToggleMemberStatusPayload struct {
	RecordRef
	Status string `json:"status,omitempty"`
}

// SetDeactivationMonthPayload records the month a member leaves.
type SetDeactivationMonthPayload struct {
	RecordRef
	DeactivationMonth string `json:"deactivationMonth"`
}

// AddMonthlyPaymentPayload records a contribution toward a month's dues.
// Repeated contributions for the same (member, month) accumulate.
type AddMonthlyPaymentPayload struct {
	MemberName string `json:"memberName"`
	Month      string `json:"month"`
	AmountPaid int64  `json:"amountPaid"`
	PaidVia    string `json:"paidVia,omitempty"`
}

// EditMonthlyPaymentPayload corrects an existing record: AmountPaid
// replaces the cumulative total, it does not add to it.
type EditMonthlyPaymentPayload struct {
	RecordRef
	AmountPaid int64  `json:"amountPaid"`
	PaidVia    string `json:"paidVia,omitempty"`
}

// AddExtraPaymentPayload records a contribution toward an event fee.
type AddExtraPaymentPayload struct {
	MemberName      string `json:"memberName"`
	ExtraPaymentFor string `json:"extraPaymentFor"`
	AmountPaid      int64  `json:"amountPaid"`
}

// EditExtraPaymentPayload corrects an existing event payment record.
type EditExtraPaymentPayload struct {
	RecordRef
	AmountPaid int64 `json:"amountPaid"`
}

// EditExpensePayload replaces the expense at the referenced position.
type EditExpensePayload struct {
	RecordRef
	UpdatedExpense Expense `json:"updatedExpense"`
}

// AddEventPayload defines a new event fee.
type AddEventPayload struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// EditEventPayload replaces the event definition at the referenced position.
type EditEventPayload struct {
	RecordRef
	Event EventDefinition `json:"event"`
}

// UpdateAllFeesPayload replaces the fee schedule wholesale. Must contain
// exactly twelve entries, one per calendar month.
type UpdateAllFeesPayload []FeeScheduleEntry
