package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	"project-planner/backend/internal/gateway"
	"project-planner/backend/internal/models"
)

type ProjectGateway interface {
	GetProjects(ctx context.Context) gateway.Result[[]models.Project]
	PlanProjectWithAI(ctx context.Context, prompt string) gateway.Result[models.Project]
	UpdateSubTaskStatus(ctx context.Context, id uuid.UUID, completed bool) gateway.Result[models.SubTask]
	DeleteProject(ctx context.Context, id uuid.UUID) gateway.Result[struct{}]
}

type ProjectHandler struct {
	gateway ProjectGateway
}

func NewProjectHandler(gw ProjectGateway) *ProjectHandler {
	return &ProjectHandler{gateway: gw}
}

func (h *ProjectHandler) GetProjects(c *gin.Context) {
	respond(c, http.StatusOK, h.gateway.GetProjects(c.Request.Context()))
}

// PlanProject generates a project from a prompt and saves it.
func (h *ProjectHandler) PlanProject(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, gateway.MsgInvalidFields)
		return
	}
	respond(c, http.StatusCreated, h.gateway.PlanProjectWithAI(c.Request.Context(), req.Prompt))
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, h.gateway.DeleteProject(c.Request.Context(), id))
}

func (h *ProjectHandler) UpdateSubTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Completed *bool `json:"completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, gateway.MsgInvalidFields)
		return
	}
	respond(c, http.StatusOK, h.gateway.UpdateSubTaskStatus(c.Request.Context(), id, *req.Completed))
}
