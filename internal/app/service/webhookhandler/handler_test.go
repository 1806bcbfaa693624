package webhookhandler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/app/service/subscription"
	"github.com/plannerhub/marketplace/internal/app/service/webhooklog"
	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/internal/platform/paypal"
	"github.com/plannerhub/marketplace/pkg/config"
	"github.com/plannerhub/marketplace/pkg/tool"
	"github.com/plannerhub/marketplace/pkg/types"
)

type stubVerifier struct {
	result bool
	calls  int
}

func (v *stubVerifier) VerifyWebhookSignature(_ context.Context, _ string, _ paypal.SignatureHeaders, _ []byte) (bool, error) {
	v.calls++
	return v.result, nil
}

func newTestHandler(t *testing.T, cfg *config.Config, verifier SignatureVerifier) (*Handler, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Planner{}, &models.Subscription{}, &models.WebhookEventLog{}, &models.WebhookEvent{}))

	log := zap.NewNop().Sugar()
	if cfg == nil {
		cfg = &config.Config{}
	}
	h := NewHandler(cfg, log, subscription.NewService(db, log), webhooklog.New(db, log), verifier)
	return h, db
}

func seedActivatable(t *testing.T, db *gorm.DB) *models.Planner {
	t.Helper()
	planner := &models.Planner{ID: tool.GenerateUUIDV7(), UserID: "user-1", BusinessName: "Velvet Events"}
	require.NoError(t, db.Create(planner).Error)
	log := zap.NewNop().Sugar()
	_, err := subscription.NewService(db, log).Create(context.Background(), planner.ID, "I-100", "P-1")
	require.NoError(t, err)
	return planner
}

func activatedEvent(eventID string) []byte {
	return fmt.Appendf(nil, `{
		"id": %q,
		"event_type": "BILLING.SUBSCRIPTION.ACTIVATED",
		"create_time": "2026-09-01T12:00:00Z",
		"resource": {
			"id": "I-100",
			"status": "ACTIVE",
			"billing_info": {"next_billing_time": "2026-10-01T00:00:00Z"}
		}
	}`, eventID)
}

func TestHandleEvent_ActivatedUpdatesSubscriptionAndMirror(t *testing.T) {
	h, db := newTestHandler(t, nil, nil)
	planner := seedActivatable(t, db)

	err := h.HandleEvent(context.Background(), "trace-1", paypal.SignatureHeaders{}, activatedEvent("WH-1"))
	require.NoError(t, err)

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "provider_subscription_id = ?", "I-100").Error)
	assert.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.NextBillingAt)

	var got models.Planner
	require.NoError(t, db.First(&got, "id = ?", planner.ID).Error)
	assert.Equal(t, types.SubscriptionStatusActive, got.SubscriptionStatus)
	require.NotNil(t, got.SubscriptionExpiresAt)
	want := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, got.SubscriptionExpiresAt.Equal(want))
}

func TestHandleEvent_DuplicateDeliveryIsIdempotent(t *testing.T) {
	h, db := newTestHandler(t, nil, nil)
	planner := seedActivatable(t, db)

	payload := activatedEvent("WH-1")
	require.NoError(t, h.HandleEvent(context.Background(), "trace-1", paypal.SignatureHeaders{}, payload))

	var before models.Planner
	require.NoError(t, db.First(&before, "id = ?", planner.ID).Error)

	require.NoError(t, h.HandleEvent(context.Background(), "trace-2", paypal.SignatureHeaders{}, payload))

	var after models.Planner
	require.NoError(t, db.First(&after, "id = ?", planner.ID).Error)
	assert.Equal(t, before.SubscriptionStatus, after.SubscriptionStatus)
	assert.True(t, before.SubscriptionExpiresAt.Equal(*after.SubscriptionExpiresAt))

	var ledger int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).Count(&ledger).Error)
	assert.Equal(t, int64(1), ledger)
}

func TestHandleEvent_UnknownEventTypeIsAcknowledged(t *testing.T) {
	h, db := newTestHandler(t, nil, nil)
	seedActivatable(t, db)

	raw := []byte(`{"id":"WH-9","event_type":"PAYMENT.SALE.REFUNDED","resource":{"id":"I-100"}}`)
	require.NoError(t, h.HandleEvent(context.Background(), "trace-1", paypal.SignatureHeaders{}, raw))

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "provider_subscription_id = ?", "I-100").Error)
	assert.Equal(t, types.SubscriptionStatusApprovalPending, sub.Status)
}

func TestHandleEvent_StaleRenewAfterCancelIsAcknowledgedWithoutChange(t *testing.T) {
	h, db := newTestHandler(t, nil, nil)
	seedActivatable(t, db)

	require.NoError(t, h.HandleEvent(context.Background(), "t1", paypal.SignatureHeaders{}, activatedEvent("WH-1")))

	cancelled := []byte(`{"id":"WH-2","event_type":"BILLING.SUBSCRIPTION.CANCELLED","resource":{"id":"I-100","status":"CANCELLED"}}`)
	require.NoError(t, h.HandleEvent(context.Background(), "t2", paypal.SignatureHeaders{}, cancelled))

	renewed := []byte(`{"id":"WH-3","event_type":"BILLING.SUBSCRIPTION.RENEWED","resource":{"id":"I-100","status":"ACTIVE","billing_info":{"next_billing_time":"2026-11-01T00:00:00Z"}}}`)
	require.NoError(t, h.HandleEvent(context.Background(), "t3", paypal.SignatureHeaders{}, renewed))

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "provider_subscription_id = ?", "I-100").Error)
	assert.Equal(t, types.SubscriptionStatusCancelled, sub.Status)
}

func TestHandleEvent_PaymentFailed(t *testing.T) {
	h, db := newTestHandler(t, nil, nil)
	planner := seedActivatable(t, db)

	require.NoError(t, h.HandleEvent(context.Background(), "t1", paypal.SignatureHeaders{}, activatedEvent("WH-1")))
	failed := []byte(`{"id":"WH-2","event_type":"BILLING.SUBSCRIPTION.PAYMENT.FAILED","resource":{"id":"I-100","status":"SUSPENDED"}}`)
	require.NoError(t, h.HandleEvent(context.Background(), "t2", paypal.SignatureHeaders{}, failed))

	var got models.Planner
	require.NoError(t, db.First(&got, "id = ?", planner.ID).Error)
	assert.Equal(t, types.SubscriptionStatusPaymentFailed, got.SubscriptionStatus)
}

func TestHandleEvent_RejectsBadSignature(t *testing.T) {
	verifier := &stubVerifier{result: false}
	cfg := &config.Config{PayPal: config.PayPalConfig{WebhookID: "WH-ID-1"}}
	h, db := newTestHandler(t, cfg, verifier)
	seedActivatable(t, db)

	err := h.HandleEvent(context.Background(), "t1", paypal.SignatureHeaders{TransmissionID: "tx"}, activatedEvent("WH-1"))
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.Equal(t, 1, verifier.calls)

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "provider_subscription_id = ?", "I-100").Error)
	assert.Equal(t, types.SubscriptionStatusApprovalPending, sub.Status)
}

func TestHandleEvent_MalformedPayload(t *testing.T) {
	h, _ := newTestHandler(t, nil, nil)
	err := h.HandleEvent(context.Background(), "t1", paypal.SignatureHeaders{}, []byte(`not-json`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}
