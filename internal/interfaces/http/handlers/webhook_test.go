package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stripe/stripe-go/v80/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ves-sport/commerce-backend/internal/config"
	"github.com/ves-sport/commerce-backend/internal/domain/payment"
)

const webhookSecret = "whsec_test_handler_secret"

type recordingHandler struct {
	events []*payment.Event
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, evt *payment.Event) (payment.Outcome, error) {
	h.events = append(h.events, evt)
	if h.err != nil {
		return payment.Outcome{}, h.err
	}
	return payment.Outcome{Action: payment.ActionIgnored}, nil
}

func newWebhookRouter(handler *recordingHandler) *gin.Engine {
	log, _ := test.NewNullLogger()
	gateway := payment.NewStripeService(config.StripeConfig{SecretKey: "sk_test_dummy", WebhookSecret: webhookSecret, Currency: "eur"})
	h := NewWebhookHandler(gateway, handler, log)

	r := gin.New()
	r.POST("/webhooks/stripe", h.StripeWebhook)
	return r
}

func postWebhook(r http.Handler, payload, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	if signature != "" {
		req.Header.Set(StripeSignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sign(payload string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	}).Header
}

const checkoutCompleted = `{
	"id": "evt_handler_1",
	"object": "event",
	"type": "checkout.session.completed",
	"data": {"object": {"id": "cs_test_1", "amount_total": 7260, "currency": "eur", "payment_intent": "pi_1", "metadata": {"userId": "u1"}}}
}`

func TestWebhookHandler_Accepts(t *testing.T) {
	handler := &recordingHandler{}
	w := postWebhook(newWebhookRouter(handler), checkoutCompleted, sign(checkoutCompleted))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"received": true}`, w.Body.String())
	require.Len(t, handler.events, 1)
	assert.Equal(t, payment.KindCheckoutCompleted, handler.events[0].Kind)
	assert.Equal(t, "cs_test_1", handler.events[0].Checkout.SessionID)
}

func TestWebhookHandler_UnknownEventAcknowledged(t *testing.T) {
	payload := `{"id": "evt_2", "object": "event", "type": "customer.created", "data": {"object": {"id": "cus_1"}}}`
	handler := &recordingHandler{}
	w := postWebhook(newWebhookRouter(handler), payload, sign(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, handler.events, 1)
	assert.Equal(t, payment.KindIgnored, handler.events[0].Kind)
}

func TestWebhookHandler_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		signature func(string) string
		wantError string
	}{
		{
			name:      "missing signature",
			payload:   checkoutCompleted,
			signature: func(string) string { return "" },
			wantError: "No signature provided",
		},
		{
			name:      "bad signature",
			payload:   checkoutCompleted,
			signature: func(string) string { return "t=1,v1=deadbeef" },
			wantError: "Webhook signature verification failed",
		},
		{
			name:      "signed for another body",
			payload:   checkoutCompleted,
			signature: func(string) string { return sign(`{"id":"evt_other"}`) },
			wantError: "Webhook signature verification failed",
		},
		{
			name:      "checkout without id",
			payload:   `{"id": "evt_3", "object": "event", "type": "checkout.session.completed", "data": {"object": {"amount_total": 100}}}`,
			signature: sign,
			wantError: "Malformed webhook event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &recordingHandler{}
			w := postWebhook(newWebhookRouter(handler), tt.payload, tt.signature(tt.payload))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantError, decode(t, w)["error"])
			assert.Empty(t, handler.events, "nothing reaches the reconciler")
		})
	}
}

func TestWebhookHandler_HandlerFailureAsksForRetry(t *testing.T) {
	handler := &recordingHandler{err: errors.New("database unavailable")}
	w := postWebhook(newWebhookRouter(handler), checkoutCompleted, sign(checkoutCompleted))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, handler.events, 1)
}
