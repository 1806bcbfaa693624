package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/logctx"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	// ErrAlreadyDecided is returned when approving or rejecting a request
	// that has left pending.
	ErrAlreadyDecided = errors.New("request already decided")
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type CreateRequestRequest struct {
	Kind        types.RequestKind `json:"kind"`
	Title       string            `json:"title"`
	Note        string            `json:"note"`
	EventDate   *time.Time        `json:"event_date"`
	BudgetCents int64             `json:"budget_cents"`
	Currency    string            `json:"currency"`
}

// Create opens a pending request on behalf of a client.
func (s *Service) Create(ctx context.Context, clientID string, req *CreateRequestRequest) (*models.Request, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("invalid request kind %q", req.Kind)
	}
	if req.Title == "" {
		return nil, errors.New("title is required")
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	r := &models.Request{
		ID:          tool.GenerateUUIDV7(),
		Kind:        req.Kind,
		ClientID:    clientID,
		Title:       req.Title,
		Note:        req.Note,
		EventDate:   req.EventDate,
		BudgetCents: req.BudgetCents,
		Currency:    currency,
		Status:      types.RequestStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return r, nil
}

// Approve assigns the planner as owner and, for budgeted requests, creates
// the draft invoice in the same transaction so the two can never disagree.
func (s *Service) Approve(ctx context.Context, plannerID, requestID string) (*models.Request, *models.Invoice, error) {
	var r models.Request
	var inv *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to load request: %w", err)
		}
		if !r.Status.CanTransitionTo(types.RequestStatusApproved) {
			return fmt.Errorf("%w: status %s", ErrAlreadyDecided, r.Status)
		}

		now := time.Now()
		r.Status = types.RequestStatusApproved
		r.PlannerID = &plannerID
		r.DecidedAt = &now
		if err := tx.Save(&r).Error; err != nil {
			return fmt.Errorf("failed to approve request: %w", err)
		}

		if r.BudgetCents > 0 {
			inv = &models.Invoice{
				ID:          tool.GenerateUUIDV7(),
				Kind:        types.InvoiceKindPlanner,
				RequestID:   r.ID,
				IssuerID:    plannerID,
				PayerID:     r.ClientID,
				AmountCents: r.BudgetCents,
				Currency:    r.Currency,
				Note:        fmt.Sprintf("Invoice for %q", r.Title),
				Status:      types.InvoiceStatusDraft,
			}
			if err := tx.Create(inv).Error; err != nil {
				return fmt.Errorf("failed to create invoice for approved request: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("request_approved", "request_id", r.ID, "planner_id", plannerID, "invoice_created", inv != nil)
	return &r, inv, nil
}

// Reject closes a pending request without assigning an owner.
func (s *Service) Reject(ctx context.Context, requestID string) (*models.Request, error) {
	var r models.Request
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to load request: %w", err)
		}
		if !r.Status.CanTransitionTo(types.RequestStatusRejected) {
			return fmt.Errorf("%w: status %s", ErrAlreadyDecided, r.Status)
		}
		now := time.Now()
		r.Status = types.RequestStatusRejected
		r.DecidedAt = &now
		if err := tx.Save(&r).Error; err != nil {
			return fmt.Errorf("failed to reject request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListForClient returns a client's own requests, newest first.
func (s *Service) ListForClient(ctx context.Context, clientID string) ([]*models.Request, error) {
	var rows []*models.Request
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at desc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return rows, nil
}

// ListOpen returns pending requests planners can respond to.
func (s *Service) ListOpen(ctx context.Context, kind types.RequestKind) ([]*models.Request, error) {
	q := s.db.WithContext(ctx).Where("status = ?", types.RequestStatusPending)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var rows []*models.Request
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}
	return rows, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
