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

const headerAPIKey = "X-Api-Key"

type forwardService interface {
	HandleOnDemand(ctx context.Context, rawBody []byte, apiKey string) (*dto.ForwardResponse, error)
}

// ForwardHandler serves the on-demand attachment-forwarding flow.
type ForwardHandler struct {
	service forwardService
}

// NewForwardHandler constructs the handler.
func NewForwardHandler(service forwardService) *ForwardHandler {
	return &ForwardHandler{service: service}
}

// Forward godoc
// @Summary Forward a ticket to an archive backend on demand
// @Tags Forward
// @Accept json
// @Produce json
// @Param X-Api-Key header string true "Tenant API key"
// @Success 200 {object} response.Envelope
// @Router /forward [post]
func (h *ForwardHandler) Forward(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, "request body too large"))
		return
	}

	resp, err := h.service.HandleOnDemand(c.Request.Context(), rawBody, c.GetHeader(headerAPIKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}
