package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError maps a service error onto a status code and a short message.
// Details of internal failures are logged, never returned.
func (h *Handler) writeError(c *gin.Context, err error, internalMsg string) {
	status, msg := http.StatusInternalServerError, internalMsg

	switch {
	case errors.Is(err, common.ErrorValidation):
		status, msg = http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "Session not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, msg = http.StatusConflict, "User already exists"
	case errors.Is(err, common.ErrorUnavailable):
		status, msg = http.StatusServiceUnavailable, "Archive storage is not configured"
	case errors.Is(err, common.ErrorRateLimited):
		status, msg = http.StatusTooManyRequests, "Too many requests"
	}

	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), internalMsg, "error", err.Error(), "path", c.FullPath())
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// validationMessage strips the sentinel prefix, leaving "message is required"
// and the like.
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
}
