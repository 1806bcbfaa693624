package models

import (
	"time"

	"github.com/plannerhub/marketplace/pkg/types"
)

// Invoice tracks money owed between two marketplace actors for a specific
// request. Helper invoices are issued by a helper against a planner; planner
// invoices by a planner against a client. Status only ever moves forward
// through draft -> awaiting_payment -> paid_planner -> completed, enforced by
// the invoice service.
type Invoice struct {
	ID        string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Kind      types.InvoiceKind `gorm:"column:kind;type:varchar(16);not null;index" json:"kind"`
	RequestID string            `gorm:"column:request_id;type:uuid;not null;index" json:"request_id"`
	// IssuerID is the actor owed the money (helper or planner).
	IssuerID string `gorm:"column:issuer_id;type:uuid;not null;index" json:"issuer_id"`
	// PayerID is the actor who owes it (planner or client).
	PayerID     string              `gorm:"column:payer_id;type:uuid;not null;index" json:"payer_id"`
	AmountCents int64               `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency    string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Note        string              `gorm:"column:note;type:text" json:"note"`
	Status      types.InvoiceStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	SentAt      *time.Time          `gorm:"column:sent_at;default:null" json:"sent_at"`
	PaidAt      *time.Time          `gorm:"column:paid_at;default:null" json:"paid_at"`
	CompletedAt *time.Time          `gorm:"column:completed_at;default:null" json:"completed_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (Invoice) TableName() string { return "invoice" }
