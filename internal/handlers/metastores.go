package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/metastore"
	"github.com/charlesng35/metastore-admin/internal/middleware"
	"github.com/charlesng35/metastore-admin/internal/services"
	appErrors "github.com/charlesng35/metastore-admin/pkg/errors"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

// MetastoreHandler serves the admin metastore endpoints.
type MetastoreHandler struct {
	svc *services.MetastoreService
}

// NewMetastoreHandler wires a MetastoreHandler.
func NewMetastoreHandler(svc *services.MetastoreService) *MetastoreHandler {
	return &MetastoreHandler{svc: svc}
}

type createMetastoreRequest struct {
	Name            string               `json:"name"`
	Loader          string               `json:"loader"`
	MetastoreParams map[string]any       `json:"metastore_params"`
	ACLControl      metastore.ACLControl `json:"acl_control"`
}

// GET /admin/query_metastore_loader/
func (h *MetastoreHandler) Loaders(c *gin.Context) {
	response.OK(c, h.svc.Loaders())
}

// GET /admin/query_metastore/
func (h *MetastoreHandler) List(c *gin.Context) {
	metastores, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, metastoreError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, metastores, &response.Meta{Total: len(metastores)})
}

// GET /admin/query_metastore/:id/
func (h *MetastoreHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, metastoreError(err))
		return
	}
	response.OK(c, m)
}

// POST /admin/query_metastore/
func (h *MetastoreHandler) Create(c *gin.Context) {
	var req createMetastoreRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.Create(requestContext(c), services.CreateMetastoreInput{
		Name:            req.Name,
		Loader:          req.Loader,
		MetastoreParams: req.MetastoreParams,
		ACLControl:      req.ACLControl,
	}, middleware.Actor(c))
	if err != nil {
		response.Error(c, metastoreError(err))
		return
	}
	response.Success(c, http.StatusCreated, m)
}

// PUT /admin/query_metastore/:id/
func (h *MetastoreHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var fields map[string]any
	if !bindJSON(c, &fields) {
		return
	}

	m, err := h.svc.Update(requestContext(c), id, fields, middleware.Actor(c))
	if err != nil {
		response.Error(c, metastoreError(err))
		return
	}
	response.OK(c, m)
}

// DELETE /admin/query_metastore/:id/
func (h *MetastoreHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(requestContext(c), id, middleware.Actor(c)); err != nil {
		response.Error(c, metastoreError(err))
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// POST /admin/query_metastore/:id/recover/
func (h *MetastoreHandler) Recover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Recover(requestContext(c), id, middleware.Actor(c))
	if err != nil {
		response.Error(c, metastoreError(err))
		return
	}
	response.OK(c, m)
}

func metastoreError(err error) error {
	if appErr, ok := validationError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, services.ErrMetastoreNotFound):
		return appErrors.ErrNotFound.WithMessage("Metastore not found")
	case errors.Is(err, services.ErrMetastoreExists):
		return appErrors.ErrConflict.WithMessage("A metastore with this name already exists")
	case errors.Is(err, services.ErrMetastoreDeleted):
		return appErrors.ErrConflict.WithMessage("Metastore is deleted")
	case errors.Is(err, services.ErrMetastoreNotDeleted):
		return appErrors.ErrConflict.WithMessage("Metastore is not deleted")
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}
