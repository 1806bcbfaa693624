package models

import "time"

// Message is a direct message between two marketplace actors. ReadAt is nil
// until the recipient marks the conversation read; unread counts drive the
// notification badge.
type Message struct {
	ID          string     `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SenderID    string     `gorm:"column:sender_id;type:uuid;not null;index" json:"sender_id"`
	RecipientID string     `gorm:"column:recipient_id;type:uuid;not null;index" json:"recipient_id"`
	Body        string     `gorm:"column:body;type:text;not null" json:"body"`
	ReadAt      *time.Time `gorm:"column:read_at;default:null" json:"read_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Message) TableName() string { return "message" }
