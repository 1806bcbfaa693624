package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	invsvc "github.com/plannerhub/marketplace/internal/app/service/invoice"
	"github.com/plannerhub/marketplace/internal/app/service/statistics"
	subsvc "github.com/plannerhub/marketplace/internal/app/service/subscription"
	"github.com/plannerhub/marketplace/internal/app/service/webhooklog"
	"github.com/plannerhub/marketplace/pkg/response"
)

// @Summary      Get Marketplace Statistics (Admin)
// @Description  Retrieves daily marketplace statistics such as new subscriptions, invoice GMV and request approval rate.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.MarketplaceStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespMarketplaceStatistic
// @Router       /api/v1/admin/get_marketplace_statistic [post]
func ApiGetMarketplaceStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.MarketplaceStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetMarketplaceStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Invoices (Admin)
// @Description  Retrieves a paginated and filterable list of all invoices.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body invoice.ScanRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/list_invoices [post]
func ApiAdminListInvoices(svc *invsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req invsvc.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Subscriptions (Admin)
// @Description  Retrieves a paginated and filterable list of all subscriptions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body subscription.ScanRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/list_subscriptions [post]
func ApiAdminListSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subsvc.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Webhook Events (Admin)
// @Description  Retrieves a paginated and filterable list of received webhook deliveries and their outcomes.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body webhooklog.ScanRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListWebhookEvents
// @Router       /api/v1/admin/list_webhook_events [post]
func ApiListWebhookEvents(svc *webhooklog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req webhooklog.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, stats *statistics.Service, invoices *invsvc.Service, subs *subsvc.Service, logs *webhooklog.Service) {
	r.POST("/get_marketplace_statistic", ApiGetMarketplaceStatistic(stats))
	r.POST("/list_invoices", ApiAdminListInvoices(invoices))
	r.POST("/list_subscriptions", ApiAdminListSubscriptions(subs))
	r.POST("/list_webhook_events", ApiListWebhookEvents(logs))
}
