package webhooklog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.WebhookEventLog{}, &models.WebhookEvent{}))
	return New(db, zap.NewNop().Sugar()), db
}

func TestSeenAndMarkProcessed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seen, err := svc.Seen(ctx, "WH-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, svc.MarkProcessed(ctx, "WH-1", "BILLING.SUBSCRIPTION.ACTIVATED"))
	// A concurrent delivery marking the same id is a no-op, not an error.
	require.NoError(t, svc.MarkProcessed(ctx, "WH-1", "BILLING.SUBSCRIPTION.ACTIVATED"))

	seen, err = svc.Seen(ctx, "WH-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestScan_FiltersAndPaginates(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.WebhookEventLog{
			ID:        tool.GenerateUUIDV7(),
			EventType: "BILLING.SUBSCRIPTION.ACTIVATED",
			Status:    models.WebhookEventLogStatusHandled,
		}).Error)
	}
	require.NoError(t, db.Create(&models.WebhookEventLog{
		ID:        tool.GenerateUUIDV7(),
		EventType: "PAYMENT.SALE.REFUNDED",
		Status:    models.WebhookEventLogStatusIgnored,
	}).Error)

	res, err := svc.Scan(ctx, &ScanRequest{
		Filters: []*types.CommonFilter{{
			Field:    "status",
			Operator: types.CommonFilterOperatorEq,
			Values:   []any{string(models.WebhookEventLogStatusHandled)},
		}},
		Size: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Len(t, res.Items, 2)

	page2, err := svc.Scan(ctx, &ScanRequest{
		Filters: []*types.CommonFilter{{
			Field:    "status",
			Operator: types.CommonFilterOperatorEq,
			Values:   []any{string(models.WebhookEventLogStatusHandled)},
		}},
		From: 2,
		Size: 2,
	})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 1)
}
