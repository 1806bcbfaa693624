package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plannerhub/marketplace/internal/app/service/subscription"
	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/internal/platform/paypal"
	"github.com/plannerhub/marketplace/pkg/logctx"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

var (
	ErrPlannerNotFound = errors.New("no planner profile for user")
	// ErrNotSubscriptionOwner is returned before any provider call when the
	// caller does not own the subscription being cancelled.
	ErrNotSubscriptionOwner = errors.New("subscription does not belong to caller")
)

// Provider is the slice of the payment API the billing service depends on.
// *paypal.Client satisfies it; tests use stubs.
type Provider interface {
	CreateProduct(ctx context.Context, req *paypal.CreateProductRequest) (*paypal.Product, error)
	CreatePlan(ctx context.Context, req *paypal.CreatePlanRequest) (*paypal.Plan, error)
	CreateSubscription(ctx context.Context, req *paypal.CreateSubscriptionRequest) (*paypal.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID, reason string) error
}

type Service struct {
	db       *gorm.DB
	log      *zap.SugaredLogger
	provider Provider
	subSvc   *subscription.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, provider Provider, subSvc *subscription.Service) *Service {
	return &Service{db: db, log: log, provider: provider, subSvc: subSvc}
}

type CreatePlanRequest struct {
	PlanName        string `json:"plan_name"`
	PlanDescription string `json:"plan_description"`
	// MonthlyPrice is a decimal string in major units, e.g. "49.00".
	MonthlyPrice string `json:"monthly_price"`
	Currency     string `json:"currency"`
	TrialDays    int    `json:"trial_days"`
}

func (r *CreatePlanRequest) validate() error {
	if r.PlanName == "" {
		return errors.New("plan_name is required")
	}
	if len(r.Currency) != 3 {
		return fmt.Errorf("invalid currency %q", r.Currency)
	}
	if r.TrialDays < 0 {
		return errors.New("trial_days must not be negative")
	}
	if _, err := tool.PriceToCents(r.MonthlyPrice); err != nil {
		return fmt.Errorf("invalid monthly_price: %w", err)
	}
	return nil
}

// BuildBillingCycles assembles the provider cycle list for a monthly plan.
// With a trial the plan has exactly two cycles: a free TRIAL cycle at
// sequence 1 running trialDays days, then the REGULAR monthly cycle at
// sequence 2 with unlimited total cycles. Without a trial the REGULAR cycle
// sits alone at sequence 1.
func BuildBillingCycles(monthlyPrice, currency string, trialDays int) []paypal.BillingCycle {
	regular := paypal.BillingCycle{
		Frequency:     paypal.Frequency{IntervalUnit: paypal.IntervalUnitMonth, IntervalCount: 1},
		TenureType:    paypal.TenureTypeRegular,
		Sequence:      1,
		TotalCycles:   0,
		PricingScheme: paypal.PricingScheme{FixedPrice: paypal.Money{CurrencyCode: currency, Value: monthlyPrice}},
	}
	if trialDays <= 0 {
		return []paypal.BillingCycle{regular}
	}
	trial := paypal.BillingCycle{
		Frequency:     paypal.Frequency{IntervalUnit: paypal.IntervalUnitDay, IntervalCount: trialDays},
		TenureType:    paypal.TenureTypeTrial,
		Sequence:      1,
		TotalCycles:   1,
		PricingScheme: paypal.PricingScheme{FixedPrice: paypal.Money{CurrencyCode: currency, Value: "0"}},
	}
	regular.Sequence = 2
	return []paypal.BillingCycle{trial, regular}
}

// CreatePlan creates a provider product plus recurring plan and mirrors the
// plan locally. The local write is best effort: a persistence failure is
// logged but the created provider plan is still returned.
func (s *Service) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*paypal.Plan, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	product, err := s.provider.CreateProduct(ctx, &paypal.CreateProductRequest{
		Name:        req.PlanName,
		Description: req.PlanDescription,
		Type:        "SERVICE",
		Category:    "SERVICES",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider product: %w", err)
	}

	plan, err := s.provider.CreatePlan(ctx, &paypal.CreatePlanRequest{
		ProductID:     product.ID,
		Name:          req.PlanName,
		Description:   req.PlanDescription,
		Status:        "ACTIVE",
		BillingCycles: BuildBillingCycles(req.MonthlyPrice, req.Currency, req.TrialDays),
		PaymentPreferences: paypal.PaymentPreferences{
			AutoBillOutstanding:     true,
			SetupFeeFailureAction:   "CONTINUE",
			PaymentFailureThreshold: 3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider plan: %w", err)
	}

	cents, _ := tool.PriceToCents(req.MonthlyPrice)
	payload, _ := json.Marshal(plan)
	local := &models.Plan{
		ID:                tool.GenerateUUIDV7(),
		ProviderPlanID:    plan.ID,
		Name:              req.PlanName,
		Description:       req.PlanDescription,
		MonthlyPriceCents: cents,
		Currency:          req.Currency,
		TrialDays:         req.TrialDays,
		Status:            plan.Status,
		ProviderPayload:   datatypes.JSON(payload),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_plan_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "monthly_price_cents", "currency", "trial_days", "status", "provider_payload", "updated_at"}),
	}).Create(local).Error
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed to persist plan mirror", "provider_plan_id", plan.ID, "err", err)
	}

	return plan, nil
}

type CreateSubscriptionRequest struct {
	PlanID    string `json:"plan_id"`
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type CreateSubscriptionResult struct {
	SubscriptionID string               `json:"subscription_id"`
	ApprovalURL    string               `json:"approval_url"`
	Subscription   *models.Subscription `json:"subscription"`
}

// CreateSubscription creates a provider subscription for the caller's planner
// profile and records it locally as approval_pending. The caller completes
// authorization out of band via the returned approval URL.
func (s *Service) CreateSubscription(ctx context.Context, userID string, req *CreateSubscriptionRequest) (*CreateSubscriptionResult, error) {
	if req.PlanID == "" || req.ReturnURL == "" || req.CancelURL == "" {
		return nil, errors.New("plan_id, return_url and cancel_url are required")
	}

	planner, err := s.plannerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sub, err := s.provider.CreateSubscription(ctx, &paypal.CreateSubscriptionRequest{
		PlanID: req.PlanID,
		Subscriber: paypal.Subscriber{
			Name: paypal.SubscriberName{GivenName: planner.BusinessName},
		},
		ApplicationContext: paypal.ApplicationContext{
			BrandName:          "PlannerHub",
			ReturnURL:          req.ReturnURL,
			CancelURL:          req.CancelURL,
			UserAction:         "SUBSCRIBE_NOW",
			ShippingPreference: "NO_SHIPPING",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider subscription: %w", err)
	}

	local, err := s.subSvc.Create(ctx, planner.ID, sub.ID, req.PlanID)
	if err != nil {
		return nil, err
	}

	return &CreateSubscriptionResult{
		SubscriptionID: sub.ID,
		ApprovalURL:    sub.ApprovalURL(),
		Subscription:   local,
	}, nil
}

// CancelSubscription verifies ownership, cancels at the provider, then marks
// the local row cancelled (mirroring onto the planner in the same database
// transaction). A database failure after the provider-side cancel is
// surfaced as an error so the drift is visible to the caller.
func (s *Service) CancelSubscription(ctx context.Context, userID, providerSubscriptionID, reason string) error {
	if providerSubscriptionID == "" {
		return errors.New("subscription_id is required")
	}

	if _, err := s.subSvc.FindOwned(ctx, userID, providerSubscriptionID); err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return ErrNotSubscriptionOwner
		}
		return err
	}

	if reason == "" {
		reason = "cancelled by planner"
	}
	if err := s.provider.CancelSubscription(ctx, providerSubscriptionID, reason); err != nil {
		return fmt.Errorf("provider cancel failed: %w", err)
	}

	now := time.Now()
	if _, err := s.subSvc.Apply(ctx, providerSubscriptionID, subscription.StatusUpdate{
		Status:      types.SubscriptionStatusCancelled,
		CancelledAt: &now,
	}); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("provider subscription cancelled but local update failed",
			"provider_subscription_id", providerSubscriptionID, "err", err)
		return fmt.Errorf("subscription cancelled at provider but local update failed: %w", err)
	}
	return nil
}

func (s *Service) plannerByUserID(ctx context.Context, userID string) (*models.Planner, error) {
	var planner models.Planner
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&planner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlannerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve planner: %w", err)
	}
	return &planner, nil
}
