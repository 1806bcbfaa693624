package models

import (
	"time"

	"github.com/plannerhub/marketplace/pkg/types"
	"gorm.io/datatypes"
)

// Subscription is the source-of-truth row for a planner's recurring billing
// relationship with the platform. It is created by the subscription-creation
// endpoint with status approval_pending and mutated only by the webhook
// handler and the cancellation endpoint. Planner.SubscriptionStatus /
// SubscriptionExpiresAt mirror this row and are updated in the same database
// transaction.
type Subscription struct {
	ID                     string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderSubscriptionID string                   `gorm:"column:provider_subscription_id;type:varchar(64);not null;uniqueIndex" json:"provider_subscription_id"`
	ProviderPlanID         string                   `gorm:"column:provider_plan_id;type:varchar(64);not null;index" json:"provider_plan_id"`
	PlannerID              string                   `gorm:"column:planner_id;type:uuid;not null;index" json:"planner_id"`
	Status                 types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	ActivatedAt            *time.Time               `gorm:"column:activated_at;default:null" json:"activated_at"`
	CancelledAt            *time.Time               `gorm:"column:cancelled_at;default:null" json:"cancelled_at"`
	NextBillingAt          *time.Time               `gorm:"column:next_billing_at;default:null" json:"next_billing_at"`
	// LastEventPayload keeps the most recent provider resource applied to this
	// row, for operator debugging.
	LastEventPayload datatypes.JSON `gorm:"column:last_event_payload;type:jsonb" json:"last_event_payload"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscription" }

func (s *Subscription) Valid() bool {
	return s != nil &&
		s.Status == types.SubscriptionStatusActive &&
		s.NextBillingAt != nil &&
		s.NextBillingAt.After(time.Now())
}
