package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/payments"
)

type WebhookHandler struct {
	logger     *slog.Logger
	webhookSvc *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{logger: logger, webhookSvc: svc}
}

// POST /webhooks/gateway
//
// Raw body in, three outcomes out: 401 for a bad signature, 400 for a
// payload we will never be able to apply, 500 for anything transient so the
// gateway redelivers. Duplicates are a 200.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	sig := c.GetHeader(payments.SignatureHeader)
	if err := h.webhookSvc.HandleWebhook(c.Request.Context(), body, sig); err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid signature"})
		case errors.Is(err, payments.ErrUnknownEventType):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown event type"})
		default:
			h.logger.Error("webhook apply failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
