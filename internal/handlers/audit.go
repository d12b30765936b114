package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/models"
	"github.com/charlesng35/metastore-admin/internal/services"
	"github.com/charlesng35/metastore-admin/pkg/errors"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

type auditLogDTO struct {
	ID        string         `json:"id"`
	ItemType  string         `json:"item_type"`
	ItemID    int64          `json:"item_id"`
	Action    string         `json:"action"`
	Username  string         `json:"username"`
	Result    string         `json:"result"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

func mapAuditLog(log *models.AuditLog) auditLogDTO {
	dto := auditLogDTO{
		ID:        log.ID,
		ItemType:  log.ItemType,
		ItemID:    log.ItemID,
		Action:    log.Action,
		Username:  log.Username,
		Result:    log.Result,
		CreatedAt: log.CreatedAt.Unix(),
	}
	if len(log.Metadata) > 0 {
		_ = json.Unmarshal(log.Metadata, &dto.Metadata)
	}
	return dto
}

// GET /admin/audit_log/?item_type=&item_id=
func (h *AuditHandler) List(c *gin.Context) {
	filters := services.AuditFilters{
		ItemType: strings.TrimSpace(c.Query("item_type")),
		Action:   strings.TrimSpace(c.Query("action")),
		Limit:    parseIntQuery(c, "limit", 100),
	}
	if raw := strings.TrimSpace(c.Query("item_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, errors.NewBadRequest("invalid item_id"))
			return
		}
		filters.ItemID = id
	}

	logs, err := h.svc.List(requestContext(c), filters)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	out := make([]auditLogDTO, 0, len(logs))
	for i := range logs {
		out = append(out, mapAuditLog(&logs[i]))
	}
	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{Total: len(out), Limit: filters.Limit})
}
