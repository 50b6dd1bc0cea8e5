package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	"project-planner/backend/internal/gateway"
	"project-planner/backend/internal/models"
)

type TaskGateway interface {
	GetTasks(ctx context.Context) gateway.Result[[]models.Task]
	AddTask(ctx context.Context, values models.TaskFormValues) gateway.Result[models.Task]
	UpdateTask(ctx context.Context, id uuid.UUID, values models.TaskFormValues) gateway.Result[models.Task]
	DeleteTask(ctx context.Context, id uuid.UUID) gateway.Result[struct{}]
	PlanTaskWithAI(ctx context.Context, prompt string) gateway.Result[models.TaskFormValues]
}

type TaskHandler struct {
	gateway TaskGateway
}

func NewTaskHandler(gw TaskGateway) *TaskHandler {
	return &TaskHandler{gateway: gw}
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	respond(c, http.StatusOK, h.gateway.GetTasks(c.Request.Context()))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var values models.TaskFormValues
	if err := c.ShouldBindJSON(&values); err != nil {
		badRequest(c, gateway.MsgInvalidFields)
		return
	}
	respond(c, http.StatusCreated, h.gateway.AddTask(c.Request.Context(), values))
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var values models.TaskFormValues
	if err := c.ShouldBindJSON(&values); err != nil {
		badRequest(c, gateway.MsgInvalidFields)
		return
	}
	respond(c, http.StatusOK, h.gateway.UpdateTask(c.Request.Context(), id, values))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.gateway.DeleteTask(c.Request.Context(), id))
}

// PlanTask returns AI-generated form values without saving them.
func (h *TaskHandler) PlanTask(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, gateway.MsgInvalidFields)
		return
	}
	respond(c, http.StatusOK, h.gateway.PlanTaskWithAI(c.Request.Context(), req.Prompt))
}
