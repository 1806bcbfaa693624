package models

import "time"

type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// Task is a checklist item scoped to a request.
type Task struct {
	ID        string     `gorm:"column:id;type:uuid;primary_key" json:"id"`
	RequestID string     `gorm:"column:request_id;type:uuid;not null;index" json:"request_id"`
	OwnerID   string     `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Title     string     `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Status    TaskStatus `gorm:"column:status;type:varchar(16);not null;default:'open'" json:"status"`
	DoneAt    *time.Time `gorm:"column:done_at;default:null" json:"done_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Task) TableName() string { return "task" }
