package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plannerhub/marketplace/internal/app/api/middleware"
	msgsvc "github.com/plannerhub/marketplace/internal/app/service/message"
	"github.com/plannerhub/marketplace/pkg/response"
)

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

// @Summary      Send message
// @Tags         Message
// @Accept       json
// @Produce      json
// @Param        request body handlers.SendMessageRequest true "Message"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/messages [post]
func ApiSendMessage(svc *msgsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		msg, err := svc.Send(c.Request.Context(), middleware.ActorID(c), req.RecipientID, req.Body)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(msg))
	}
}

// @Summary      Conversation
// @Description  Returns both directions of traffic between the caller and the other party, oldest first.
// @Tags         Message
// @Produce      json
// @Param        other_id path string true "Other party's actor ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/messages/{other_id} [get]
func ApiConversation(svc *msgsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := svc.Conversation(c.Request.Context(), middleware.ActorID(c), c.Param("other_id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(msgs))
	}
}

// @Summary      Mark conversation read
// @Tags         Message
// @Produce      json
// @Param        other_id path string true "Other party's actor ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/messages/{other_id}/read [post]
func ApiMarkConversationRead(svc *msgsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		marked, err := svc.MarkRead(c.Request.Context(), middleware.ActorID(c), c.Param("other_id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"marked": marked}))
	}
}

// @Summary      Unread message count
// @Tags         Message
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/messages/unread_count [get]
func ApiUnreadCount(svc *msgsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := svc.UnreadCount(c.Request.Context(), middleware.ActorID(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"unread": count}))
	}
}

func RegisterMessageRoutes(r gin.IRouter, svc *msgsvc.Service) {
	r.POST("", ApiSendMessage(svc))
	r.GET("/unread_count", ApiUnreadCount(svc))
	r.GET("/:other_id", ApiConversation(svc))
	r.POST("/:other_id/read", ApiMarkConversationRead(svc))
}
