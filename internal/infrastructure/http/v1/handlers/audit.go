package handlers

import (
	"github.com/gin-gonic/gin"

	"kota/internal/domain/audit"
)

// AuditHandler serves read-only audit trail endpoints.
type AuditHandler struct {
	*BaseHandler
	repo audit.Repository
}

// NewAuditHandler creates the audit handler.
func NewAuditHandler(repo audit.Repository) *AuditHandler {
	return &AuditHandler{BaseHandler: NewBaseHandler(), repo: repo}
}

// ListByEntity handles GET /audit/:entityType/:id.
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.repo.ListByEntity(c.Request.Context(), c.Param("entityType"), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}

// ListRecent handles GET /audit.
func (h *AuditHandler) ListRecent(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 100)

	entries, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
