package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plannerhub/marketplace/internal/app/api/middleware"
	invsvc "github.com/plannerhub/marketplace/internal/app/service/invoice"
	"github.com/plannerhub/marketplace/pkg/response"
)

func invoiceErrCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, invsvc.ErrInvoiceNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, invsvc.ErrNotInvoiceParty):
		return response.APIResponseCodeForbidden
	case errors.Is(err, invsvc.ErrInvalidTransition), errors.Is(err, invsvc.ErrNotDeletable):
		return response.APIResponseCodeConflict
	}
	return response.APIResponseCodeError
}

// @Summary      Create invoice
// @Description  Opens a draft invoice issued by the caller.
// @Tags         Invoice
// @Accept       json
// @Produce      json
// @Param        request body invoice.CreateInvoiceRequest true "Invoice details"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/invoices [post]
func ApiCreateInvoice(svc *invsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req invsvc.CreateInvoiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		inv, err := svc.Create(c.Request.Context(), middleware.ActorID(c), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(inv))
	}
}

// @Summary      List invoices
// @Description  Lists invoices where the caller is issuer or payer.
// @Tags         Invoice
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/invoices [get]
func ApiListInvoices(svc *invsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListForActor(c.Request.Context(), middleware.ActorID(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

func apiInvoiceTransition(step func(*gin.Context) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := step(c)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](invoiceErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

// @Summary      Send invoice
// @Description  Moves a draft to awaiting_payment. Issuer only.
// @Tags         Invoice
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/invoices/{id}/send [post]
func ApiSendInvoice(svc *invsvc.Service) gin.HandlerFunc {
	return apiInvoiceTransition(func(c *gin.Context) (any, error) {
		return svc.Send(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	})
}

// @Summary      Mark invoice paid
// @Description  Moves awaiting_payment to paid_planner. Payer only.
// @Tags         Invoice
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/invoices/{id}/pay [post]
func ApiMarkInvoicePaid(svc *invsvc.Service) gin.HandlerFunc {
	return apiInvoiceTransition(func(c *gin.Context) (any, error) {
		return svc.MarkPaid(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	})
}

// @Summary      Confirm payment received
// @Description  Moves paid_planner to completed. Issuer only.
// @Tags         Invoice
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/invoices/{id}/confirm [post]
func ApiConfirmInvoice(svc *invsvc.Service) gin.HandlerFunc {
	return apiInvoiceTransition(func(c *gin.Context) (any, error) {
		return svc.ConfirmReceived(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	})
}

// @Summary      Delete draft invoice
// @Tags         Invoice
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/invoices/{id} [delete]
func ApiDeleteInvoice(svc *invsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](invoiceErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterInvoiceRoutes(r gin.IRouter, svc *invsvc.Service) {
	r.POST("", ApiCreateInvoice(svc))
	r.GET("", ApiListInvoices(svc))
	r.POST("/:id/send", ApiSendInvoice(svc))
	r.POST("/:id/pay", ApiMarkInvoicePaid(svc))
	r.POST("/:id/confirm", ApiConfirmInvoice(svc))
	r.DELETE("/:id", ApiDeleteInvoice(svc))
}
