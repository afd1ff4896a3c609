package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Krishna8167/volcanocache"
)

type errorBody struct {
	Kind    volcanocache.ErrorKind `json:"kind"`
	Message string                 `json:"message"`
	Detail  string                 `json:"detail,omitempty"`
}

func statusFor(kind volcanocache.ErrorKind) int {
	switch kind {
	case volcanocache.KindValidation:
		return http.StatusBadRequest
	case volcanocache.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bindError reports a malformed request body or query string.
func bindError(err error) *volcanocache.Error {
	return &volcanocache.Error{
		Kind:    volcanocache.KindValidation,
		Message: "malformed request",
		Detail:  err.Error(),
		Err:     volcanocache.ErrInvalidParams,
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	e := volcanocache.AsError(err)
	status := statusFor(e.Kind)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(c.Request.Context(), level, "request failed",
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.String("kind", string(e.Kind)),
		slog.String("message", e.Message),
		slog.String("detail", e.Detail))

	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{
		Kind:    e.Kind,
		Message: e.Message,
		Detail:  e.Detail,
	}})
}
