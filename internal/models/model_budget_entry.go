package models

import "time"

// BudgetEntry tracks planned versus actual spend for one category of a
// request's budget.
type BudgetEntry struct {
	ID           string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	RequestID    string    `gorm:"column:request_id;type:uuid;not null;index" json:"request_id"`
	Category     string    `gorm:"column:category;type:varchar(128);not null" json:"category"`
	PlannedCents int64     `gorm:"column:planned_cents;not null;default:0" json:"planned_cents"`
	ActualCents  int64     `gorm:"column:actual_cents;not null;default:0" json:"actual_cents"`
	Currency     string    `gorm:"column:currency;type:varchar(8);not null;default:'EUR'" json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (BudgetEntry) TableName() string { return "budget_entry" }
