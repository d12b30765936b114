package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/middleware"
	"github.com/charlesng35/metastore-admin/internal/services"
	appErrors "github.com/charlesng35/metastore-admin/pkg/errors"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

// ScheduleHandler serves task schedule endpoints.
type ScheduleHandler struct {
	svc *services.ScheduleService
}

// NewScheduleHandler wires a ScheduleHandler.
func NewScheduleHandler(svc *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// GET /schedule/name/:name/
func (h *ScheduleHandler) GetByName(c *gin.Context) {
	schedule, err := h.svc.GetByName(requestContext(c), c.Param("name"))
	if err != nil {
		response.Error(c, scheduleError(err))
		return
	}
	response.OK(c, schedule)
}

// POST /schedule/
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req services.ScheduleInput
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.svc.Create(requestContext(c), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, scheduleError(err))
		return
	}
	response.Success(c, http.StatusCreated, schedule)
}

// PUT /schedule/:id/
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ScheduleUpdate
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.svc.Update(requestContext(c), id, req, middleware.Actor(c))
	if err != nil {
		response.Error(c, scheduleError(err))
		return
	}
	response.OK(c, schedule)
}

func scheduleError(err error) error {
	if appErr, ok := validationError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, services.ErrScheduleNotFound):
		return appErrors.ErrNotFound.WithMessage("Schedule not found")
	case errors.Is(err, services.ErrScheduleExists):
		return appErrors.ErrConflict.WithMessage("A schedule with this name already exists")
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}
