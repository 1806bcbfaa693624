package models

import (
	"time"

	"github.com/plannerhub/marketplace/pkg/types"
)

// Request is a client's ask for planning services. Approving a request
// assigns the responding planner as owner and creates a draft invoice in the
// same database transaction.
type Request struct {
	ID       string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Kind     types.RequestKind `gorm:"column:kind;type:varchar(16);not null;index" json:"kind"`
	ClientID string            `gorm:"column:client_id;type:uuid;not null;index" json:"client_id"`
	// PlannerID is set when a planner approves the request.
	PlannerID   *string             `gorm:"column:planner_id;type:uuid;index" json:"planner_id"`
	Title       string              `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Note        string              `gorm:"column:note;type:text" json:"note"`
	EventDate   *time.Time          `gorm:"column:event_date;default:null" json:"event_date"`
	BudgetCents int64               `gorm:"column:budget_cents;not null;default:0" json:"budget_cents"`
	Currency    string              `gorm:"column:currency;type:varchar(8);not null;default:'EUR'" json:"currency"`
	Status      types.RequestStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	DecidedAt   *time.Time          `gorm:"column:decided_at;default:null" json:"decided_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (Request) TableName() string { return "request" }
