package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobflow/internal/apperr"
	"github.com/justsurfingit/jobflow/internal/services"
)

// statusOf maps an error to the HTTP status and the message the client sees.
func statusOf(err error) (int, string) {
	if errors.Is(err, services.ErrLLMDisabled) {
		return http.StatusServiceUnavailable, "AI extraction is not configured"
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound, apperr.Message(err)
	case apperr.KindValidation, apperr.KindDuplicate:
		return http.StatusBadRequest, apperr.Message(err)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON format: " + err.Error()})
}
