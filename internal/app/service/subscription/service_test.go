package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Planner{}, &models.Subscription{}))
	return db
}

func seedPlanner(t *testing.T, db *gorm.DB, userID string) *models.Planner {
	t.Helper()
	p := &models.Planner{ID: tool.GenerateUUIDV7(), UserID: userID, BusinessName: "Velvet Events"}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestApply_ActivatedMirrorsPlannerRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	planner := seedPlanner(t, db, "user-1")
	_, err := svc.Create(ctx, planner.ID, "I-100", "P-1")
	require.NoError(t, err)

	nextBilling := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	sub, err := svc.Apply(ctx, "I-100", StatusUpdate{
		Status:        types.SubscriptionStatusActive,
		ActivatedAt:   &now,
		NextBillingAt: &nextBilling,
	})
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)

	var got models.Planner
	require.NoError(t, db.First(&got, "id = ?", planner.ID).Error)
	require.Equal(t, types.SubscriptionStatusActive, got.SubscriptionStatus)
	require.NotNil(t, got.SubscriptionExpiresAt)
	require.True(t, got.SubscriptionExpiresAt.Equal(nextBilling))
}

func TestApply_RenewalRefreshesExpiry(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	planner := seedPlanner(t, db, "user-1")
	_, err := svc.Create(ctx, planner.ID, "I-100", "P-1")
	require.NoError(t, err)

	first := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Apply(ctx, "I-100", StatusUpdate{Status: types.SubscriptionStatusActive, NextBillingAt: &first})
	require.NoError(t, err)

	second := first.AddDate(0, 1, 0)
	_, err = svc.Apply(ctx, "I-100", StatusUpdate{Status: types.SubscriptionStatusActive, NextBillingAt: &second})
	require.NoError(t, err)

	var got models.Planner
	require.NoError(t, db.First(&got, "id = ?", planner.ID).Error)
	require.True(t, got.SubscriptionExpiresAt.Equal(second))
}

func TestApply_StaleRenewAfterCancelIsRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	planner := seedPlanner(t, db, "user-1")
	_, err := svc.Create(ctx, planner.ID, "I-100", "P-1")
	require.NoError(t, err)

	expiry := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Apply(ctx, "I-100", StatusUpdate{Status: types.SubscriptionStatusActive, NextBillingAt: &expiry})
	require.NoError(t, err)

	cancelledAt := time.Now()
	_, err = svc.Apply(ctx, "I-100", StatusUpdate{Status: types.SubscriptionStatusCancelled, CancelledAt: &cancelledAt})
	require.NoError(t, err)

	// A stale renewal delivered out of order must not resurrect the row.
	later := expiry.AddDate(0, 1, 0)
	_, err = svc.Apply(ctx, "I-100", StatusUpdate{Status: types.SubscriptionStatusActive, NextBillingAt: &later})
	require.ErrorIs(t, err, ErrInvalidTransition)

	sub, err := svc.GetByProviderID(ctx, "I-100")
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusCancelled, sub.Status)
	var got models.Planner
	require.NoError(t, db.First(&got, "id = ?", planner.ID).Error)
	require.Equal(t, types.SubscriptionStatusCancelled, got.SubscriptionStatus)
}

func TestApply_PaymentFailedKeepsPaidThroughExpiry(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	planner := seedPlanner(t, db, "user-1")
	_, err := svc.Create(ctx, planner.ID, "I-100", "P-1")
	require.NoError(t, err)

	expiry := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Apply(ctx, "I-100", StatusUpdate{Status: types.SubscriptionStatusActive, NextBillingAt: &expiry})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "I-100", StatusUpdate{Status: types.SubscriptionStatusPaymentFailed})
	require.NoError(t, err)

	var got models.Planner
	require.NoError(t, db.First(&got, "id = ?", planner.ID).Error)
	require.Equal(t, types.SubscriptionStatusPaymentFailed, got.SubscriptionStatus)
	require.NotNil(t, got.SubscriptionExpiresAt)
	require.True(t, got.SubscriptionExpiresAt.Equal(expiry))
}

func TestFindOwned_RejectsForeignSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	owner := seedPlanner(t, db, "user-owner")
	seedPlanner(t, db, "user-other")
	_, err := svc.Create(ctx, owner.ID, "I-100", "P-1")
	require.NoError(t, err)

	_, err = svc.FindOwned(ctx, "user-other", "I-100")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)

	sub, err := svc.FindOwned(ctx, "user-owner", "I-100")
	require.NoError(t, err)
	require.Equal(t, owner.ID, sub.PlannerID)
}
