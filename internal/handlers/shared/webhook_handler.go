package handlers

import (
	"context"
	"io"
	"net/http"

	"razorpay-provider/internal/models"
	"razorpay-provider/internal/utils"
	"razorpay-provider/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookProcessor classifies a delivery and runs its side effects.
type WebhookProcessor interface {
	Process(ctx context.Context, envelope *models.WebhookEnvelope) *models.WebhookResult
}

type WebhookHandler struct {
	processor WebhookProcessor
	logger    *logger.Logger
}

func NewWebhookHandler(processor WebhookProcessor, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    log,
	}
}

// HandleRazorpayWebhook answers 200 with the classification for every
// readable delivery, including ones that fail verification, so the gateway
// does not retry them.
func (h *WebhookHandler) HandleRazorpayWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, utils.MaxWebhookBodySize+1))
	if err != nil {
		utils.BadRequestResponse(c, "Unable to read webhook body")
		return
	}
	if len(body) > utils.MaxWebhookBodySize {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Webhook body too large")
		return
	}

	envelope := &models.WebhookEnvelope{
		Headers: c.Request.Header.Clone(),
		RawBody: body,
	}

	result := h.processor.Process(c.Request.Context(), envelope)

	h.logger.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
		"action":    string(result.Action),
		"event_id":  envelope.EventID(),
		"duplicate": result.Duplicate,
	}).Debug("webhook delivery handled")

	c.JSON(http.StatusOK, result)
}
