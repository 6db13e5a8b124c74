package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youruser/potwapp/internal/capture"
	"github.com/youruser/potwapp/internal/challenge"
	"github.com/youruser/potwapp/internal/student"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondDomainError maps package sentinel errors onto HTTP statuses.
func respondDomainError(c *gin.Context, err error) {
	var ce *capture.CaptureError
	switch {
	case errors.Is(err, student.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, student.ErrNameRequired):
		RespondError(c, http.StatusBadRequest, "invalid_student", err)
	case errors.Is(err, challenge.ErrDayNotFound):
		RespondError(c, http.StatusNotFound, "day_not_found", err)
	case errors.Is(err, capture.ErrInvalidOptions):
		RespondError(c, http.StatusBadRequest, "invalid_options", err)
	case errors.Is(err, capture.ErrBusy):
		RespondError(c, http.StatusConflict, "capture_in_progress", err)
	case errors.Is(err, capture.ErrNotReady):
		RespondError(c, http.StatusConflict, "not_ready", err)
	case errors.As(err, &ce):
		RespondError(c, http.StatusInternalServerError, "capture_failed", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
