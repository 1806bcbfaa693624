package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/logctx"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvalidTransition is returned for any move that is not the next step
	// of draft -> awaiting_payment -> paid_planner -> completed.
	ErrInvalidTransition = errors.New("invalid invoice status transition")
	// ErrNotInvoiceParty is returned when the acting actor is neither allowed
	// side of the transition (issuer sends/confirms, payer marks paid).
	ErrNotInvoiceParty = errors.New("actor is not a party to this invoice")
	ErrNotDeletable    = errors.New("only draft invoices can be deleted")
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type CreateInvoiceRequest struct {
	Kind        types.InvoiceKind `json:"kind"`
	RequestID   string            `json:"request_id"`
	PayerID     string            `json:"payer_id"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Note        string            `json:"note"`
}

// Create opens a draft invoice issued by issuerID.
func (s *Service) Create(ctx context.Context, issuerID string, req *CreateInvoiceRequest) (*models.Invoice, error) {
	if req.Kind != types.InvoiceKindHelper && req.Kind != types.InvoiceKindPlanner {
		return nil, fmt.Errorf("invalid invoice kind %q", req.Kind)
	}
	if req.RequestID == "" || req.PayerID == "" {
		return nil, errors.New("request_id and payer_id are required")
	}
	if req.AmountCents <= 0 {
		return nil, errors.New("amount_cents must be positive")
	}
	inv := &models.Invoice{
		ID:          tool.GenerateUUIDV7(),
		Kind:        req.Kind,
		RequestID:   req.RequestID,
		IssuerID:    issuerID,
		PayerID:     req.PayerID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Note:        req.Note,
		Status:      types.InvoiceStatusDraft,
	}
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return inv, nil
}

// Send moves a draft to awaiting_payment. Only the issuer may send.
func (s *Service) Send(ctx context.Context, actorID, invoiceID string) (*models.Invoice, error) {
	return s.transition(ctx, actorID, invoiceID, types.InvoiceStatusAwaitingPayment, partyIssuer)
}

// MarkPaid moves awaiting_payment to paid_planner. Only the payer may mark.
func (s *Service) MarkPaid(ctx context.Context, actorID, invoiceID string) (*models.Invoice, error) {
	return s.transition(ctx, actorID, invoiceID, types.InvoiceStatusPaidPlanner, partyPayer)
}

// ConfirmReceived moves paid_planner to completed. Only the issuer may
// confirm.
func (s *Service) ConfirmReceived(ctx context.Context, actorID, invoiceID string) (*models.Invoice, error) {
	return s.transition(ctx, actorID, invoiceID, types.InvoiceStatusCompleted, partyIssuer)
}

type party int

const (
	partyIssuer party = iota
	partyPayer
)

// transition applies one step of the invoice chain inside a transaction, so
// two concurrent calls cannot both advance from the same status.
func (s *Service) transition(ctx context.Context, actorID, invoiceID string, next types.InvoiceStatus, who party) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inv, "id = ?", invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return fmt.Errorf("failed to load invoice: %w", err)
		}

		switch who {
		case partyIssuer:
			if inv.IssuerID != actorID {
				return ErrNotInvoiceParty
			}
		case partyPayer:
			if inv.PayerID != actorID {
				return ErrNotInvoiceParty
			}
		}

		if !inv.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, next)
		}

		now := time.Now()
		inv.Status = next
		switch next {
		case types.InvoiceStatusAwaitingPayment:
			inv.SentAt = &now
		case types.InvoiceStatusPaidPlanner:
			inv.PaidAt = &now
		case types.InvoiceStatusCompleted:
			inv.CompletedAt = &now
		}
		if err := tx.Save(&inv).Error; err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("invoice_transition", "invoice_id", inv.ID, "status", inv.Status)
	return &inv, nil
}

// Delete removes a draft. Sent invoices are immutable history.
func (s *Service) Delete(ctx context.Context, actorID, invoiceID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.First(&inv, "id = ?", invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		if inv.IssuerID != actorID {
			return ErrNotInvoiceParty
		}
		if inv.Status != types.InvoiceStatusDraft {
			return ErrNotDeletable
		}
		return tx.Delete(&inv).Error
	})
}

// ListForActor returns invoices where the actor is either party, newest
// first.
func (s *Service) ListForActor(ctx context.Context, actorID string) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	err := s.db.WithContext(ctx).
		Where("issuer_id = ? OR payer_id = ?", actorID, actorID).
		Order("created_at desc").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.Invoice `json:"items"`
	Total int64             `json:"total"`
}

type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

// Scan implements paginated admin listing with filters.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Invoice{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	var rows []*models.Invoice
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	return &ScanResponse{Items: rows, Total: total}, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
