package models

import (
	"time"

	"gorm.io/datatypes"
)

// Plan is the local mirror of a recurring billing plan created at the payment
// provider. Rows are upserted keyed on the provider plan id; the provider
// remains the source of truth for pricing.
type Plan struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderPlanID string `gorm:"column:provider_plan_id;type:varchar(64);not null;uniqueIndex" json:"provider_plan_id"`
	Name           string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description    string `gorm:"column:description;type:text" json:"description"`
	// MonthlyPriceCents is the regular cycle price in minor units.
	MonthlyPriceCents int64  `gorm:"column:monthly_price_cents;not null" json:"monthly_price_cents"`
	Currency          string `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	TrialDays         int    `gorm:"column:trial_days;not null;default:0" json:"trial_days"`
	Status            string `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// ProviderPayload stores the provider's full plan object as returned at
	// creation time.
	ProviderPayload datatypes.JSON `gorm:"column:provider_payload;type:jsonb" json:"provider_payload"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (Plan) TableName() string { return "plan" }
