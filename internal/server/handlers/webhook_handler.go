package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
	service "github.com/mamadbah2/fueldepot/internal/service/whatsapp"
)

const whatsAppObject = "whatsapp_business_account"

// WebhookHandler carries operator commands in from WhatsApp and manual
// depot messages out.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler wires the WhatsApp routes to the messaging service.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Verify answers the hub.challenge sent when the webhook is registered.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook verification rejected", zap.String("mode", c.Query("hub.mode")), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive hands operator messages to the command pipeline. Notifications
// for other Meta products are acknowledged and dropped.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.Object != whatsAppObject {
		h.logger.Debug("webhook object ignored", zap.String("object", payload.Object))
		c.Status(http.StatusOK)
		return
	}

	// Meta redelivers on non-2xx responses; failures are only logged.
	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("operator command failed", zap.Int("entries", len(payload.Entry)), zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes a depot message. Without a recipient it goes to the
// depot manager.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	err := h.svc.SendOutbound(c.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrNoManager):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Error("depot message not sent", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
	default:
		c.Status(http.StatusAccepted)
	}
}
