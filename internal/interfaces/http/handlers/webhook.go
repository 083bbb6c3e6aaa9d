// internal/interfaces/http/handlers/webhook.go
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v80"
	"github.com/ves-sport/commerce-backend/internal/domain/payment"
)

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// EventVerifier authenticates a raw webhook delivery
type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

// EventHandler applies a verified payment event
type EventHandler interface {
	Handle(ctx context.Context, evt *payment.Event) (payment.Outcome, error)
}

// WebhookHandler receives Stripe webhook deliveries
type WebhookHandler struct {
	verifier EventVerifier
	handler  EventHandler
	logger   logrus.FieldLogger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(verifier EventVerifier, handler EventHandler, logger logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		handler:  handler,
		logger:   logger,
	}
}

// StripeWebhook handles POST /webhooks/stripe. Any failure answers 400 so that
// Stripe retries the delivery.
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	signature := c.GetHeader(StripeSignatureHeader)
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No signature provided",
		})
		return
	}

	raw, err := h.verifier.ConstructEvent(body, signature)
	if err != nil {
		h.logger.WithError(err).Warn("Webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Webhook signature verification failed",
		})
		return
	}

	evt, err := payment.DecodeEvent(raw)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":   raw.ID,
			"event_type": raw.Type,
		}).Warn("Malformed webhook event")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Malformed webhook event",
		})
		return
	}

	if _, err := h.handler.Handle(c.Request.Context(), evt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Webhook handler failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
	})
}
