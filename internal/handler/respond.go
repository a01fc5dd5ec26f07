package handler

import (
	"errors"
	"net/http"

	"expenses/internal/log"
	"expenses/internal/middleware"
	"expenses/internal/service"
	"expenses/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps a service error to a status code. Unknown errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, response.Invalid(http.StatusBadRequest, verr.Fields))
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, service.ErrAccessDenied.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	default:
		log.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// actorID reads the user set by middleware.RequireAuth.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
	}
	return id, ok
}
