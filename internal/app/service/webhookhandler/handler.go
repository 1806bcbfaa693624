package webhookhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/plannerhub/marketplace/internal/app/service/subscription"
	"github.com/plannerhub/marketplace/internal/app/service/webhooklog"
	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/internal/platform/paypal"
	"github.com/plannerhub/marketplace/pkg/config"
	"github.com/plannerhub/marketplace/pkg/logctx"
	"github.com/plannerhub/marketplace/pkg/metrics"
	"github.com/plannerhub/marketplace/pkg/types"
)

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// SignatureVerifier is the provider call used to validate delivery headers.
// *paypal.Client satisfies it.
type SignatureVerifier interface {
	VerifyWebhookSignature(ctx context.Context, webhookID string, hdr paypal.SignatureHeaders, rawEvent []byte) (bool, error)
}

// Handler mirrors payment-provider subscription lifecycle events into local
// state. Every delivery is signature-verified, deduplicated by provider event
// id and logged end to end; the subscription row and the planner mirror are
// updated in one database transaction per event.
type Handler struct {
	cfg      *config.Config
	Logger   *zap.SugaredLogger
	subSvc   *subscription.Service
	logSvc   *webhooklog.Service
	verifier SignatureVerifier
}

func NewHandler(cfg *config.Config, log *zap.SugaredLogger, subSvc *subscription.Service, logSvc *webhooklog.Service, verifier SignatureVerifier) *Handler {
	return &Handler{cfg: cfg, Logger: log, subSvc: subSvc, logSvc: logSvc, verifier: verifier}
}

// HandleEvent processes one raw webhook delivery. A nil return means the
// delivery may be acknowledged with 200; unknown event types and stale
// out-of-order events are acknowledged, processing failures are not (the
// provider will redeliver).
func (h *Handler) HandleEvent(ctx context.Context, traceID string, hdr paypal.SignatureHeaders, raw []byte) error {
	log := logctx.FromCtx(ctx, h.Logger)

	if h.cfg.PayPal.WebhookID != "" {
		if h.verifier == nil {
			return errors.New("webhook id configured but no signature verifier available")
		}
		ok, err := h.verifier.VerifyWebhookSignature(ctx, h.cfg.PayPal.WebhookID, hdr, raw)
		if err != nil {
			return fmt.Errorf("signature verification call failed: %w", err)
		}
		if !ok {
			return ErrInvalidSignature
		}
	} else {
		log.Warnw("webhook signature verification disabled: no webhook id configured")
	}

	var evt paypal.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	seen, err := h.logSvc.Seen(ctx, evt.ID)
	if err != nil {
		return err
	}
	if seen {
		log.Infow("webhook_event_duplicate", "event_id", evt.ID, "event_type", evt.EventType)
		metrics.ObserveWebhookEvent(evt.EventType, "duplicate")
		return nil
	}

	sub, _ := evt.SubscriptionResource()
	var providerSubID string
	if sub != nil {
		providerSubID = sub.ID
	}
	h.logSvc.Save(ctx, &models.WebhookEventLog{
		ProviderEventID:        evt.ID,
		EventType:              evt.EventType,
		ProviderSubscriptionID: providerSubID,
		TraceID:                traceID,
		Payload:                datatypes.JSON(raw),
		Status:                 models.WebhookEventLogStatusReceived,
	})

	update, handled := h.updateForEvent(&evt, sub)
	if !handled {
		log.Infow("webhook_event_ignored", "event_id", evt.ID, "event_type", evt.EventType)
		metrics.ObserveWebhookEvent(evt.EventType, "ignored")
		h.saveResult(ctx, traceID, &evt, providerSubID, raw, models.WebhookEventLogStatusIgnored, nil)
		return h.logSvc.MarkProcessed(ctx, evt.ID, evt.EventType)
	}
	if sub == nil || sub.ID == "" {
		err := fmt.Errorf("%w: event %s carries no subscription id", ErrMalformedEvent, evt.EventType)
		h.saveResult(ctx, traceID, &evt, providerSubID, raw, models.WebhookEventLogStatusHandleFailed, err)
		return err
	}

	_, err = h.subSvc.Apply(ctx, sub.ID, *update)
	switch {
	case errors.Is(err, subscription.ErrInvalidTransition):
		// Out-of-order delivery, e.g. a stale RENEWED after a CANCELLED.
		// Acknowledge so the provider stops redelivering it.
		log.Warnw("webhook_event_stale", "event_id", evt.ID, "event_type", evt.EventType, "err", err)
		metrics.ObserveWebhookEvent(evt.EventType, "ignored")
		h.saveResult(ctx, traceID, &evt, providerSubID, raw, models.WebhookEventLogStatusIgnored, err)
		return h.logSvc.MarkProcessed(ctx, evt.ID, evt.EventType)
	case err != nil:
		metrics.ObserveWebhookEvent(evt.EventType, "failed")
		h.saveResult(ctx, traceID, &evt, providerSubID, raw, models.WebhookEventLogStatusHandleFailed, err)
		return err
	}

	metrics.ObserveWebhookEvent(evt.EventType, "handled")
	h.saveResult(ctx, traceID, &evt, providerSubID, raw, models.WebhookEventLogStatusHandled, nil)
	return h.logSvc.MarkProcessed(ctx, evt.ID, evt.EventType)
}

// updateForEvent maps a provider event onto a subscription status update.
// handled is false for event types this service does not react to.
func (h *Handler) updateForEvent(evt *paypal.Event, sub *paypal.Subscription) (update *subscription.StatusUpdate, handled bool) {
	now := time.Now()
	var nextBilling *time.Time
	if sub != nil && sub.BillingInfo != nil && !sub.BillingInfo.NextBillingTime.IsZero() {
		t := sub.BillingInfo.NextBillingTime
		nextBilling = &t
	}

	switch evt.EventType {
	case paypal.EventSubscriptionActivated:
		return &subscription.StatusUpdate{
			Status:        types.SubscriptionStatusActive,
			ActivatedAt:   &now,
			NextBillingAt: nextBilling,
			Payload:       datatypes.JSON(evt.Resource),
		}, true
	case paypal.EventSubscriptionRenewed:
		return &subscription.StatusUpdate{
			Status:        types.SubscriptionStatusActive,
			NextBillingAt: nextBilling,
			Payload:       datatypes.JSON(evt.Resource),
		}, true
	case paypal.EventSubscriptionCancelled:
		return &subscription.StatusUpdate{
			Status:      types.SubscriptionStatusCancelled,
			CancelledAt: &now,
			Payload:     datatypes.JSON(evt.Resource),
		}, true
	case paypal.EventSubscriptionPaymentFailed:
		return &subscription.StatusUpdate{
			Status:  types.SubscriptionStatusPaymentFailed,
			Payload: datatypes.JSON(evt.Resource),
		}, true
	}
	return nil, false
}

func (h *Handler) saveResult(ctx context.Context, traceID string, evt *paypal.Event, providerSubID string, raw []byte, status models.WebhookEventLogStatus, resErr error) {
	resMap := map[string]any{"status": status}
	if resErr != nil {
		resMap["error"] = resErr.Error()
	}
	resBytes, _ := json.Marshal(resMap)
	res := datatypes.JSON(resBytes)
	h.logSvc.Save(ctx, &models.WebhookEventLog{
		ProviderEventID:        evt.ID,
		EventType:              evt.EventType,
		ProviderSubscriptionID: providerSubID,
		TraceID:                traceID,
		Payload:                datatypes.JSON(raw),
		Result:                 &res,
		Status:                 status,
	})
}
