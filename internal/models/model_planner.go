package models

import (
	"time"

	"github.com/plannerhub/marketplace/pkg/types"
)

// Planner is the marketplace actor who owns a business profile, responds to
// client requests and pays helpers. It carries a denormalized mirror of the
// latest subscription state so profile reads never need a join; the mirror is
// written in the same database transaction as the subscription row.
type Planner struct {
	ID           string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID       string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	BusinessName string `gorm:"column:business_name;type:varchar(255);not null" json:"business_name"`
	Bio          string `gorm:"column:bio;type:text" json:"bio"`
	// SubscriptionStatus mirrors the latest Subscription row for this planner.
	SubscriptionStatus types.SubscriptionStatus `gorm:"column:subscription_status;type:varchar(32)" json:"subscription_status"`
	// SubscriptionExpiresAt mirrors the next billing time of an active
	// subscription; nil when there is no active subscription.
	SubscriptionExpiresAt *time.Time `gorm:"column:subscription_expires_at;default:null" json:"subscription_expires_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (Planner) TableName() string { return "planner" }

// Subscribed reports whether the planner currently holds a paid subscription.
func (p *Planner) Subscribed() bool {
	return p != nil &&
		p.SubscriptionStatus == types.SubscriptionStatusActive &&
		p.SubscriptionExpiresAt != nil &&
		p.SubscriptionExpiresAt.After(time.Now())
}
