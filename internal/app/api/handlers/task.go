package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plannerhub/marketplace/internal/app/api/middleware"
	tasksvc "github.com/plannerhub/marketplace/internal/app/service/task"
	"github.com/plannerhub/marketplace/pkg/response"
)

func taskErrCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, tasksvc.ErrTaskNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, tasksvc.ErrNotTaskOwner):
		return response.APIResponseCodeForbidden
	}
	return response.APIResponseCodeError
}

type CreateTaskRequest struct {
	Title string `json:"title"`
}

// @Summary      Create task
// @Description  Adds a checklist item to a request.
// @Tags         Task
// @Accept       json
// @Produce      json
// @Param        id path string true "Request ID"
// @Param        request body handlers.CreateTaskRequest true "Task title"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests/{id}/tasks [post]
func ApiCreateTask(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		task, err := svc.Create(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.Title)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(task))
	}
}

// @Summary      List tasks
// @Tags         Task
// @Produce      json
// @Param        id path string true "Request ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/requests/{id}/tasks [get]
func ApiListTasks(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := svc.ListForRequest(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(tasks))
	}
}

// @Summary      Toggle task
// @Description  Flips a task between open and done.
// @Tags         Task
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/tasks/{id}/toggle [post]
func ApiToggleTask(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := svc.Toggle(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](taskErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(task))
	}
}

// @Summary      Delete task
// @Tags         Task
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/tasks/{id} [delete]
func ApiDeleteTask(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](taskErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterTaskRoutes(requests, tasks gin.IRouter, svc *tasksvc.Service) {
	requests.POST("/:id/tasks", ApiCreateTask(svc))
	requests.GET("/:id/tasks", ApiListTasks(svc))
	tasks.POST("/:id/toggle", ApiToggleTask(svc))
	tasks.DELETE("/:id", ApiDeleteTask(svc))
}
