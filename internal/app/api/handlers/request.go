package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plannerhub/marketplace/internal/app/api/middleware"
	reqsvc "github.com/plannerhub/marketplace/internal/app/service/request"
	"github.com/plannerhub/marketplace/pkg/response"
	"github.com/plannerhub/marketplace/pkg/types"
)

// @Summary      Create request
// @Description  Opens a pending planning request on behalf of the calling client.
// @Tags         Request
// @Accept       json
// @Produce      json
// @Param        request body request.CreateRequestRequest true "Request details"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests [post]
func ApiCreateRequest(svc *reqsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reqsvc.CreateRequestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		r, err := svc.Create(c.Request.Context(), middleware.ActorID(c), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(r))
	}
}

// @Summary      List own requests
// @Tags         Request
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests [get]
func ApiListRequests(svc *reqsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListForClient(c.Request.Context(), middleware.ActorID(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

// @Summary      List open requests
// @Description  Lists pending requests planners and helpers can respond to, optionally filtered by kind.
// @Tags         Request
// @Produce      json
// @Param        kind query string false "Request kind"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests/open [get]
func ApiListOpenRequests(svc *reqsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListOpen(c.Request.Context(), types.RequestKind(c.Query("kind")))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

// @Summary      Approve request
// @Description  Assigns the calling planner as owner and, for budgeted requests, creates a draft invoice in the same transaction.
// @Tags         Request
// @Produce      json
// @Param        id path string true "Request ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests/{id}/approve [post]
func ApiApproveRequest(svc *reqsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, inv, err := svc.Approve(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, reqsvc.ErrRequestNotFound):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			case errors.Is(err, reqsvc.ErrAlreadyDecided):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"request": r, "invoice": inv}))
	}
}

// @Summary      Reject request
// @Tags         Request
// @Produce      json
// @Param        id path string true "Request ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests/{id}/reject [post]
func ApiRejectRequest(svc *reqsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := svc.Reject(c.Request.Context(), c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, reqsvc.ErrRequestNotFound):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			case errors.Is(err, reqsvc.ErrAlreadyDecided):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(r))
	}
}

func RegisterRequestRoutes(r gin.IRouter, svc *reqsvc.Service) {
	r.POST("", ApiCreateRequest(svc))
	r.GET("", ApiListRequests(svc))
	r.GET("/open", ApiListOpenRequests(svc))
	r.POST("/:id/approve", ApiApproveRequest(svc))
	r.POST("/:id/reject", ApiRejectRequest(svc))
}
