package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plannerhub/marketplace/internal/app/api/middleware"
	"github.com/plannerhub/marketplace/internal/app/service/billing"
	"github.com/plannerhub/marketplace/pkg/response"
)

// @Summary      Create subscription plan (Admin)
// @Description  Creates a product and a monthly recurring plan at the payment provider and mirrors the plan locally.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body billing.CreatePlanRequest true "Plan definition"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/billing/plans [post]
func ApiCreatePlan(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req billing.CreatePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		plan, err := svc.CreatePlan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(plan))
	}
}

// @Summary      Subscribe to a plan
// @Description  Creates a provider subscription for the caller's planner profile. The caller finishes authorization at the returned approval URL.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body billing.CreateSubscriptionRequest true "Subscription request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/billing/subscriptions [post]
func ApiCreateSubscription(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req billing.CreateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.CreateSubscription(c.Request.Context(), middleware.UserID(c), &req)
		if err != nil {
			if errors.Is(err, billing.ErrPlannerNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	Reason         string `json:"reason"`
}

// @Summary      Cancel subscription
// @Description  Cancels the caller's provider subscription. Ownership is checked before the provider is contacted.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body handlers.CancelSubscriptionRequest true "Cancel request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/billing/subscriptions/cancel [post]
func ApiCancelSubscription(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CancelSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		err := svc.CancelSubscription(c.Request.Context(), middleware.UserID(c), req.SubscriptionID, req.Reason)
		if err != nil {
			if errors.Is(err, billing.ErrNotSubscriptionOwner) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeForbidden, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// RegisterBillingRoutes mounts subscription endpoints on the planner-facing
// group and plan management on the admin group.
func RegisterBillingRoutes(r, admin gin.IRouter, svc *billing.Service) {
	admin.POST("/plans", ApiCreatePlan(svc))
	r.POST("/subscriptions", ApiCreateSubscription(svc))
	r.POST("/subscriptions/cancel", ApiCancelSubscription(svc))
}
