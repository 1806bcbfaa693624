package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	budgetsvc "github.com/plannerhub/marketplace/internal/app/service/budget"
	"github.com/plannerhub/marketplace/pkg/response"
)

// @Summary      Add budget entry
// @Description  Records planned and actual spend for one category of a request's budget.
// @Tags         Budget
// @Accept       json
// @Produce      json
// @Param        id path string true "Request ID"
// @Param        request body budget.UpsertEntryRequest true "Budget entry"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests/{id}/budget [post]
func ApiCreateBudgetEntry(svc *budgetsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req budgetsvc.UpsertEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		entry, err := svc.Create(c.Request.Context(), c.Param("id"), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(entry))
	}
}

// @Summary      Budget summary
// @Description  Lists a request's budget entries with planned and actual totals.
// @Tags         Budget
// @Produce      json
// @Param        id path string true "Request ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests/{id}/budget [get]
func ApiBudgetSummary(svc *budgetsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.SummaryForRequest(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sum))
	}
}

// @Summary      Update budget entry
// @Tags         Budget
// @Accept       json
// @Produce      json
// @Param        id path string true "Budget entry ID"
// @Param        request body budget.UpsertEntryRequest true "Budget entry"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/budget/{id} [put]
func ApiUpdateBudgetEntry(svc *budgetsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req budgetsvc.UpsertEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		entry, err := svc.Update(c.Request.Context(), c.Param("id"), &req)
		if err != nil {
			if errors.Is(err, budgetsvc.ErrEntryNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(entry))
	}
}

// @Summary      Delete budget entry
// @Tags         Budget
// @Produce      json
// @Param        id path string true "Budget entry ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/budget/{id} [delete]
func ApiDeleteBudgetEntry(svc *budgetsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, budgetsvc.ErrEntryNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterBudgetRoutes(requests, budget gin.IRouter, svc *budgetsvc.Service) {
	requests.POST("/:id/budget", ApiCreateBudgetEntry(svc))
	requests.GET("/:id/budget", ApiBudgetSummary(svc))
	budget.PUT("/:id", ApiUpdateBudgetEntry(svc))
	budget.DELETE("/:id", ApiDeleteBudgetEntry(svc))
}
