package models

import "time"

// Helper is the marketplace actor who fulfills hourly work and invoices
// planners.
type Helper struct {
	ID          string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID      string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	DisplayName string    `gorm:"column:display_name;type:varchar(255);not null" json:"display_name"`
	HourlyRate  int64     `gorm:"column:hourly_rate;not null;default:0" json:"hourly_rate"`
	Currency    string    `gorm:"column:currency;type:varchar(8);not null;default:'EUR'" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Helper) TableName() string { return "helper" }
