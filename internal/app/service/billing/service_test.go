package billing

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/app/service/subscription"
	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/internal/platform/paypal"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

// stubProvider records calls and plays back canned responses.
type stubProvider struct {
	products      []*paypal.CreateProductRequest
	plans         []*paypal.CreatePlanRequest
	subscriptions []*paypal.CreateSubscriptionRequest
	cancels       []string

	cancelErr error
}

func (p *stubProvider) CreateProduct(_ context.Context, req *paypal.CreateProductRequest) (*paypal.Product, error) {
	p.products = append(p.products, req)
	return &paypal.Product{ID: "PROD-1", Name: req.Name}, nil
}

func (p *stubProvider) CreatePlan(_ context.Context, req *paypal.CreatePlanRequest) (*paypal.Plan, error) {
	p.plans = append(p.plans, req)
	return &paypal.Plan{ID: "P-1", ProductID: req.ProductID, Name: req.Name, Status: "ACTIVE", BillingCycles: req.BillingCycles}, nil
}

func (p *stubProvider) CreateSubscription(_ context.Context, req *paypal.CreateSubscriptionRequest) (*paypal.Subscription, error) {
	p.subscriptions = append(p.subscriptions, req)
	return &paypal.Subscription{
		ID:     "I-100",
		PlanID: req.PlanID,
		Status: "APPROVAL_PENDING",
		Links:  []paypal.Link{{Href: "https://provider.example/approve?token=y", Rel: "approve", Method: "GET"}},
	}, nil
}

func (p *stubProvider) CancelSubscription(_ context.Context, subscriptionID, _ string) error {
	p.cancels = append(p.cancels, subscriptionID)
	return p.cancelErr
}

func newTestService(t *testing.T) (*Service, *stubProvider, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Planner{}, &models.Plan{}, &models.Subscription{}))

	log := zap.NewNop().Sugar()
	provider := &stubProvider{}
	subSvc := subscription.NewService(db, log)
	return NewService(db, log, provider, subSvc), provider, db
}

func seedPlanner(t *testing.T, db *gorm.DB, userID string) *models.Planner {
	t.Helper()
	p := &models.Planner{ID: tool.GenerateUUIDV7(), UserID: userID, BusinessName: "Velvet Events"}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestBuildBillingCycles(t *testing.T) {
	tests := []struct {
		name      string
		trialDays int
		want      int
	}{
		{name: "with trial", trialDays: 30, want: 2},
		{name: "without trial", trialDays: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycles := BuildBillingCycles("49.00", "EUR", tt.trialDays)
			require.Len(t, cycles, tt.want)

			if tt.trialDays > 0 {
				trial := cycles[0]
				assert.Equal(t, paypal.TenureTypeTrial, trial.TenureType)
				assert.Equal(t, 1, trial.Sequence)
				assert.Equal(t, "0", trial.PricingScheme.FixedPrice.Value)
				assert.Equal(t, paypal.IntervalUnitDay, trial.Frequency.IntervalUnit)
				assert.Equal(t, tt.trialDays, trial.Frequency.IntervalCount)

				regular := cycles[1]
				assert.Equal(t, paypal.TenureTypeRegular, regular.TenureType)
				assert.Equal(t, 2, regular.Sequence)
				assert.Equal(t, 0, regular.TotalCycles)
				assert.Equal(t, "49.00", regular.PricingScheme.FixedPrice.Value)
			} else {
				regular := cycles[0]
				assert.Equal(t, paypal.TenureTypeRegular, regular.TenureType)
				assert.Equal(t, 1, regular.Sequence)
				assert.Equal(t, 0, regular.TotalCycles)
			}
		})
	}
}

func TestCreatePlan_MirrorsPlanLocally(t *testing.T) {
	svc, provider, db := newTestService(t)

	plan, err := svc.CreatePlan(context.Background(), &CreatePlanRequest{
		PlanName:     "Planner Pro",
		MonthlyPrice: "49.00",
		Currency:     "EUR",
		TrialDays:    30,
	})
	require.NoError(t, err)
	require.Equal(t, "P-1", plan.ID)
	require.Len(t, provider.products, 1)
	require.Len(t, provider.plans, 1)

	var local models.Plan
	require.NoError(t, db.First(&local, "provider_plan_id = ?", "P-1").Error)
	assert.Equal(t, int64(4900), local.MonthlyPriceCents)
	assert.Equal(t, 30, local.TrialDays)
}

func TestCreatePlan_RejectsBadInput(t *testing.T) {
	svc, provider, _ := newTestService(t)

	_, err := svc.CreatePlan(context.Background(), &CreatePlanRequest{
		PlanName:     "Planner Pro",
		MonthlyPrice: "forty-nine",
		Currency:     "EUR",
	})
	require.Error(t, err)
	require.Empty(t, provider.products)
}

func TestCreateSubscription_RequiresPlannerProfile(t *testing.T) {
	svc, provider, _ := newTestService(t)

	_, err := svc.CreateSubscription(context.Background(), "user-without-profile", &CreateSubscriptionRequest{
		PlanID:    "P-1",
		ReturnURL: "https://app.example/return",
		CancelURL: "https://app.example/cancel",
	})
	require.ErrorIs(t, err, ErrPlannerNotFound)
	require.Empty(t, provider.subscriptions)
}

func TestCreateSubscription_ReturnsApprovalURL(t *testing.T) {
	svc, _, db := newTestService(t)
	planner := seedPlanner(t, db, "user-1")

	res, err := svc.CreateSubscription(context.Background(), "user-1", &CreateSubscriptionRequest{
		PlanID:    "P-1",
		ReturnURL: "https://app.example/return",
		CancelURL: "https://app.example/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "I-100", res.SubscriptionID)
	assert.Equal(t, "https://provider.example/approve?token=y", res.ApprovalURL)
	assert.Equal(t, types.SubscriptionStatusApprovalPending, res.Subscription.Status)
	assert.Equal(t, planner.ID, res.Subscription.PlannerID)
}

func TestCancelSubscription_OwnershipCheckedBeforeProviderCall(t *testing.T) {
	svc, provider, db := newTestService(t)
	owner := seedPlanner(t, db, "user-owner")
	seedPlanner(t, db, "user-other")

	subSvc := subscription.NewService(db, zap.NewNop().Sugar())
	_, err := subSvc.Create(context.Background(), owner.ID, "I-100", "P-1")
	require.NoError(t, err)

	err = svc.CancelSubscription(context.Background(), "user-other", "I-100", "")
	require.ErrorIs(t, err, ErrNotSubscriptionOwner)
	require.Empty(t, provider.cancels, "provider must not be called for foreign subscriptions")
}

func TestCancelSubscription_CancelsAndMirrors(t *testing.T) {
	svc, provider, db := newTestService(t)
	owner := seedPlanner(t, db, "user-owner")

	subSvc := subscription.NewService(db, zap.NewNop().Sugar())
	_, err := subSvc.Create(context.Background(), owner.ID, "I-100", "P-1")
	require.NoError(t, err)
	next := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = subSvc.Apply(context.Background(), "I-100", subscription.StatusUpdate{Status: types.SubscriptionStatusActive, NextBillingAt: &next})
	require.NoError(t, err)

	require.NoError(t, svc.CancelSubscription(context.Background(), "user-owner", "I-100", "switching plans"))
	require.Equal(t, []string{"I-100"}, provider.cancels)

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "provider_subscription_id = ?", "I-100").Error)
	assert.Equal(t, types.SubscriptionStatusCancelled, sub.Status)
	assert.NotNil(t, sub.CancelledAt)

	var planner models.Planner
	require.NoError(t, db.First(&planner, "id = ?", owner.ID).Error)
	assert.Equal(t, types.SubscriptionStatusCancelled, planner.SubscriptionStatus)
}
