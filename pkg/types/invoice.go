package types

// InvoiceKind distinguishes who issued the invoice.
type InvoiceKind string

const (
	// InvoiceKindHelper is issued by a helper against a planner.
	InvoiceKindHelper InvoiceKind = "helper"
	// InvoiceKindPlanner is issued by a planner against a client.
	InvoiceKindPlanner InvoiceKind = "planner"
)

// InvoiceStatus is a monotonic forward-only chain:
// draft -> awaiting_payment -> paid_planner -> completed.
type InvoiceStatus string

const (
	InvoiceStatusDraft           InvoiceStatus = "draft"
	InvoiceStatusAwaitingPayment InvoiceStatus = "awaiting_payment"
	InvoiceStatusPaidPlanner     InvoiceStatus = "paid_planner"
	InvoiceStatusCompleted       InvoiceStatus = "completed"
)

var invoiceNext = map[InvoiceStatus]InvoiceStatus{
	InvoiceStatusDraft:           InvoiceStatusAwaitingPayment,
	InvoiceStatusAwaitingPayment: InvoiceStatusPaidPlanner,
	InvoiceStatusPaidPlanner:     InvoiceStatusCompleted,
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusAwaitingPayment, InvoiceStatusPaidPlanner, InvoiceStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo allows only the single next step in the chain. There is no
// dispute or reversal edge, and no shortcut from draft to completed.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	n, ok := invoiceNext[s]
	return ok && n == next
}
