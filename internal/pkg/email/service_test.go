package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ves-sport/commerce-backend/internal/config"
)

func newResendService(t *testing.T, handler http.HandlerFunc) *EmailService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, _ := test.NewNullLogger()
	svc := NewEmailService(config.EmailConfig{
		Provider:         "resend",
		APIKey:           "re_test",
		FromEmail:        "noreply@vessport.com",
		FromName:         "VES Sport",
		ContactRecipient: "info@vessport.com",
	}, log)
	svc.resendURL = srv.URL
	return svc
}

func TestSendContactNotification_Resend(t *testing.T) {
	var got ResendEmailRequest
	var auth string
	svc := newResendService(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := svc.SendContactNotification(context.Background(), ContactNotification{
		Name:       "Ana",
		Email:      "ana@club.es",
		Team:       "CD Leganés Sub-16",
		Message:    "<script>alert(1)</script> Queremos 20 camisetas",
		ImageURLs:  []string{"https://cdn.example.com/contact/a.png"},
		ReceivedAt: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, "VES Sport <noreply@vessport.com>", got.From)
	assert.Equal(t, []string{"info@vessport.com"}, got.To)
	assert.Equal(t, "ana@club.es", got.ReplyTo)
	assert.Equal(t, "Nuevo mensaje de contacto de Ana (CD Leganés Sub-16)", got.Subject)
	assert.Contains(t, got.HTML, "https://cdn.example.com/contact/a.png")
	assert.Contains(t, got.HTML, "01/06/2024 10:30")
	assert.NotContains(t, got.HTML, "<script>")
	assert.Contains(t, got.HTML, "&lt;script&gt;")
}

func TestSendEmail_ResendFailure(t *testing.T) {
	svc := newResendService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	err := svc.SendEmail(context.Background(), &Email{To: []string{"a@b.c"}, Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestSendEmail_UnknownProvider(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewEmailService(config.EmailConfig{Provider: "pigeon"}, log)

	err := svc.SendEmail(context.Background(), &Email{To: []string{"a@b.c"}})
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewEmailService(config.EmailConfig{FromEmail: "noreply@vessport.com"}, log)

	msg := string(svc.buildMessage(&Email{
		To:          []string{"info@vessport.com", "ops@vessport.com"},
		ReplyTo:     "ana@club.es",
		Subject:     "Equipación",
		HTMLContent: "<p>hola</p>",
	}))

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "<p>hola</p>", body)
	assert.Contains(t, head, "From: noreply@vessport.com\r\n")
	assert.Contains(t, head, "To: info@vessport.com, ops@vessport.com\r\n")
	assert.Contains(t, head, "Reply-To: ana@club.es\r\n")
	assert.Contains(t, head, "Subject: =?utf-8?q?")
}
