package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/services"
	appErrors "github.com/charlesng35/metastore-admin/pkg/errors"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

// bindJSON binds the JSON payload into dest. Field rules are enforced by the
// services so that failures carry per field messages.
func bindJSON[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	return true
}

// validationError maps a service validation failure onto an AppError.
func validationError(err error) (*appErrors.AppError, bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return appErrors.NewValidation(verr.Fields), true
	}
	return nil, false
}

func parseIDParam(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(key)), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.NewBadRequest("invalid "+key))
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
