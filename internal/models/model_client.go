package models

import "time"

// Client is the marketplace actor who requests planning services and pays
// planners.
type Client struct {
	ID          string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID      string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	DisplayName string    `gorm:"column:display_name;type:varchar(255);not null" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Client) TableName() string { return "client" }
