package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/app"
	"github.com/dkeye/voiceroom/internal/result"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, result.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, result.ErrInvalidState), errors.Is(err, result.ErrDuplicateMediaStream):
		return http.StatusConflict
	case errors.Is(err, result.ErrInvalidToken),
		errors.Is(err, result.ErrInvalidGateway),
		errors.Is(err, result.ErrInvalidMediaHandle):
		return http.StatusBadRequest
	case errors.Is(err, result.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
