// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridesched/internal/modules/scheduling"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the ids used for batches: up to 64 letters, digits, '-' or '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidInput), errors.Is(err, scheduling.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduling.ErrSearchAborted):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
