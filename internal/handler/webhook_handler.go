package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zarchive/ticket-gateway/internal/dto"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
	"github.com/zarchive/ticket-gateway/pkg/response"
)

const (
	headerSignature = "X-Webhook-Signature"
	headerTimestamp = "X-Webhook-Timestamp"
)

type webhookService interface {
	HandleWebhook(ctx context.Context, rawBody []byte, timestamp, signature string) (*dto.ForwardResponse, error)
}

// WebhookHandler receives signed ticket-close notifications.
type WebhookHandler struct {
	service webhookService
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(service webhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Receive godoc
// @Summary Receive a signed ticket-close notification
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC-SHA256 signature"
// @Param X-Webhook-Timestamp header string true "Signing timestamp"
// @Success 200 {object} response.Envelope
// @Router /webhooks/ticket-closed [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, "request body too large"))
		return
	}

	resp, err := h.service.HandleWebhook(
		c.Request.Context(),
		rawBody,
		c.GetHeader(headerTimestamp),
		c.GetHeader(headerSignature),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}
