package types

// SubscriptionStatus is the lifecycle state of a planner's platform
// subscription. Transitions are driven by the billing endpoints and the
// payment-provider webhook only.
type SubscriptionStatus string

const (
	SubscriptionStatusApprovalPending SubscriptionStatus = "approval_pending"
	SubscriptionStatusActive          SubscriptionStatus = "active"
	SubscriptionStatusCancelled       SubscriptionStatus = "cancelled"
	SubscriptionStatusPaymentFailed   SubscriptionStatus = "payment_failed"
)

// subscriptionTransitions is the allowed edge set. Cancelled is terminal: a
// stale RENEWED delivered after a CANCELLED must not reactivate the
// subscription.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusApprovalPending: {SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusPaymentFailed},
	SubscriptionStatusActive:          {SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusPaymentFailed},
	SubscriptionStatusPaymentFailed:   {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusCancelled:       {},
}

func (s SubscriptionStatus) Valid() bool {
	_, ok := subscriptionTransitions[s]
	return ok
}

func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Re-applying the active state is allowed so replayed webhook deliveries stay
// idempotent.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
