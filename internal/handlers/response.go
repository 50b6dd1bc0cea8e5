package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"

	"project-planner/backend/internal/apperrors"
	"project-planner/backend/internal/gateway"
)

const msgInvalidID = "Invalid ID."

// statusFor maps the category of a failed result to an HTTP status.
func statusFor(cause error, success int) int {
	switch {
	case cause == nil:
		return success
	case errors.Is(cause, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(cause, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(cause, apperrors.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respond[T any](c *gin.Context, success int, result gateway.Result[T]) {
	c.JSON(statusFor(result.Cause(), success), result)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gateway.Fail[struct{}](msg, apperrors.Validation(msg)))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil || id == uuid.Nil {
		badRequest(c, msgInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

type planRequest struct {
	Prompt string `json:"prompt"`
}
