package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/logctx"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrInvalidTransition is returned when a lifecycle change is not allowed
	// from the row's current status, e.g. a stale RENEWED arriving after a
	// CANCELLED.
	ErrInvalidTransition = errors.New("invalid subscription status transition")
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Create records a provider subscription that is awaiting subscriber
// approval.
func (s *Service) Create(ctx context.Context, plannerID, providerSubscriptionID, providerPlanID string) (*models.Subscription, error) {
	sub := &models.Subscription{
		ID:                     tool.GenerateUUIDV7(),
		ProviderSubscriptionID: providerSubscriptionID,
		ProviderPlanID:         providerPlanID,
		PlannerID:              plannerID,
		Status:                 types.SubscriptionStatusApprovalPending,
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

// GetByProviderID loads a subscription by the provider-issued id.
func (s *Service) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// FindOwned resolves a subscription only when it belongs to the planner whose
// user id is given. Used by the cancel endpoint to reject cancelling another
// planner's subscription before any provider call is made.
func (s *Service) FindOwned(ctx context.Context, userID, providerSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Joins("JOIN planner ON planner.id = subscription.planner_id").
		Where("planner.user_id = ? AND subscription.provider_subscription_id = ?", userID, providerSubscriptionID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription owner: %w", err)
	}
	return &sub, nil
}

// StatusUpdate is one lifecycle change derived from a webhook event or the
// cancel endpoint.
type StatusUpdate struct {
	Status        types.SubscriptionStatus
	ActivatedAt   *time.Time
	CancelledAt   *time.Time
	NextBillingAt *time.Time
	// Payload is the raw provider resource that caused the change.
	Payload datatypes.JSON
}

// Apply moves the subscription matched by provider id to the new status and
// mirrors the change onto the owning planner row, both inside one database
// transaction so the mirror can never drift from the source of truth.
func (s *Service) Apply(ctx context.Context, providerSubscriptionID string, up StatusUpdate) (*models.Subscription, error) {
	if !up.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, up.Status)
	}

	var sub models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("provider_subscription_id = ?", providerSubscriptionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return fmt.Errorf("failed to load subscription: %w", err)
		}

		if !sub.Status.CanTransitionTo(up.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, up.Status)
		}

		sub.Status = up.Status
		if up.ActivatedAt != nil {
			sub.ActivatedAt = up.ActivatedAt
		}
		if up.CancelledAt != nil {
			sub.CancelledAt = up.CancelledAt
		}
		if up.NextBillingAt != nil {
			sub.NextBillingAt = up.NextBillingAt
		}
		if up.Payload != nil {
			sub.LastEventPayload = up.Payload
		}
		if err := tx.Save(&sub).Error; err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		mirror := map[string]any{"subscription_status": sub.Status}
		switch up.Status {
		case types.SubscriptionStatusActive:
			mirror["subscription_expires_at"] = sub.NextBillingAt
		case types.SubscriptionStatusApprovalPending:
			mirror["subscription_expires_at"] = nil
		}
		// Cancelled and payment_failed keep the existing expiry: the planner
		// stays paid through the already-billed period.
		if err := tx.Model(&models.Planner{}).Where("id = ?", sub.PlannerID).Updates(mirror).Error; err != nil {
			return fmt.Errorf("failed to mirror subscription status onto planner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_status_applied",
		"provider_subscription_id", providerSubscriptionID,
		"status", sub.Status,
	)
	return &sub, nil
}

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.Subscription `json:"items"`
	Total int64                  `json:"total"`
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

	tx := s.db.WithContext(ctx).Model(&models.Subscription{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var rows []*models.Subscription
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return &ScanResponse{Items: rows, Total: total}, nil
}
