package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lexflow/internal/services"
)

func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID int64, role string) {
	if id, ok := getInt64FromCtx(c, "user_id"); ok {
		userID = id
	}
	if v, ok := c.Get("role"); ok {
		if s, ok := v.(string); ok {
			role = s
		}
	}
	return
}

// statusFor maps the engine's sentinel errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCaseNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrWorkflowNotFound),
		errors.Is(err, services.ErrDeadlineNotFound),
		errors.Is(err, services.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, services.ErrWorkflowInactive),
		errors.Is(err, services.ErrNoEligibleUser):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
