package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	wh "github.com/plannerhub/marketplace/internal/app/service/webhookhandler"
	"github.com/plannerhub/marketplace/internal/platform/paypal"
	"github.com/plannerhub/marketplace/pkg/logctx"
)

// @Summary      PayPal webhook
// @Description  Handles PayPal subscription lifecycle notifications. The body is the raw event JSON; the signature transmission headers must be present.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "PayPal webhook event JSON"
// @Success      200  {object}  map[string]bool
// @Router       /api/v1/webhooks/paypal [post]
// ApiPayPalWebhook is provider-facing: any non-2xx answer makes the provider
// redeliver, so only genuine processing failures return 500.
func ApiPayPalWebhook(h *wh.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, h.Logger)
		log.Infow("webhook_paypal_received")

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		hdr := paypal.SignatureHeaders{
			AuthAlgo:         c.GetHeader("PAYPAL-AUTH-ALGO"),
			CertURL:          c.GetHeader("PAYPAL-CERT-URL"),
			TransmissionID:   c.GetHeader("PAYPAL-TRANSMISSION-ID"),
			TransmissionSig:  c.GetHeader("PAYPAL-TRANSMISSION-SIG"),
			TransmissionTime: c.GetHeader("PAYPAL-TRANSMISSION-TIME"),
		}

		if err := h.HandleEvent(c.Request.Context(), c.GetString("traceID"), hdr, raw); err != nil {
			log.Errorw("webhook_paypal_handle_error", "error", err.Error())
			switch {
			case errors.Is(err, wh.ErrInvalidSignature):
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			case errors.Is(err, wh.ErrMalformedEvent):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		log.Infow("webhook_paypal_handled")
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *wh.Handler) {
	r.POST("/paypal", ApiPayPalWebhook(h))
}
