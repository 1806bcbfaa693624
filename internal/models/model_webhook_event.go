package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookEventLogStatus string

const (
	WebhookEventLogStatusReceived     WebhookEventLogStatus = "received"
	WebhookEventLogStatusHandled      WebhookEventLogStatus = "handled"
	WebhookEventLogStatusHandleFailed WebhookEventLogStatus = "handle_failed"
	WebhookEventLogStatusIgnored      WebhookEventLogStatus = "ignored"
)

// WebhookEventLog records every webhook delivery end to end: a "received" row
// when the payload arrives and a terminal row once processing finishes, with
// the processing result attached.
type WebhookEventLog struct {
	ID                     string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderEventID        string                `gorm:"column:provider_event_id;type:varchar(128);index" json:"provider_event_id"`
	EventType              string                `gorm:"column:event_type;type:varchar(128);index" json:"event_type"`
	ProviderSubscriptionID string                `gorm:"column:provider_subscription_id;type:varchar(64);index" json:"provider_subscription_id"`
	TraceID                string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Payload                datatypes.JSON        `gorm:"column:payload;type:jsonb" json:"payload"`
	Result                 *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status                 WebhookEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

func (WebhookEventLog) TableName() string { return "webhook_event_log" }

// WebhookEvent is the dedup ledger for provider event ids. The provider
// redelivers events; a row here means the event was already applied and a
// replay is acknowledged without reprocessing.
type WebhookEvent struct {
	EventID     string    `gorm:"column:event_id;type:varchar(128);primary_key" json:"event_id"`
	EventType   string    `gorm:"column:event_type;type:varchar(128);index" json:"event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null" json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (WebhookEvent) TableName() string { return "webhook_event" }
