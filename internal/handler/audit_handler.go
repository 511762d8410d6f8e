package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/pkg/response"
)

type auditService interface {
	Query(ctx context.Context, brandID, apiKey string, limit int) ([]models.AuditRecord, error)
}

// AuditHandler lets a tenant read its own forwarding audit trail.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service auditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// Query godoc
// @Summary List recent forwarding audit records for a brand
// @Tags Audit
// @Produce json
// @Param brandId path string true "Brand id"
// @Param limit query int false "Maximum records"
// @Param X-Api-Key header string true "Tenant API key"
// @Success 200 {object} response.Envelope
// @Router /audit/{brandId} [get]
func (h *AuditHandler) Query(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.service.Query(
		c.Request.Context(),
		c.Param("brandId"),
		c.GetHeader(headerAPIKey),
		limit,
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}
