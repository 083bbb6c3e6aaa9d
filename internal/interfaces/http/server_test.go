package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ves-sport/commerce-backend/internal/config"
	"github.com/ves-sport/commerce-backend/internal/domain/contact"
	"github.com/ves-sport/commerce-backend/internal/domain/payment"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/handlers"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/routes"
)

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

type noopEvents struct{}

func (noopEvents) Handle(context.Context, *payment.Event) (payment.Outcome, error) {
	return payment.Outcome{Action: payment.ActionIgnored}, nil
}

func newTestServer(t *testing.T, checks map[string]HealthChecker) *Server {
	t.Helper()
	return newTestServerWith(t, checks, func(*config.Config) {})
}

func newTestServerWith(t *testing.T, checks map[string]HealthChecker, tweak func(*config.Config)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	cfg := &config.Config{
		App:    config.AppConfig{Name: "VES Sport Commerce", Version: "test", Environment: "test"},
		Server: config.ServerConfig{Port: "0", MaxRequestBytes: 1 << 20},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: []string{"https://ves.example.com"},
		},
	}
	tweak(cfg)
	gateway := payment.NewStripeService(config.StripeConfig{WebhookSecret: "whsec_server_test"})
	return NewServer(cfg, &routes.Handlers{
		Webhook: handlers.NewWebhookHandler(gateway, noopEvents{}, log),
		Contact: handlers.NewContactHandler(contact.NewService(nil, nil, nil, 2, log), log),
	}, nil, checks, log)
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestHealthCheck(t *testing.T) {
	healthy := newTestServer(t, map[string]HealthChecker{
		"database": checkFunc(func(context.Context) error { return nil }),
	})
	w := serve(healthy, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	unhealthy := newTestServer(t, map[string]HealthChecker{
		"redis": checkFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	w = serve(unhealthy, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis ping failed")
}

func TestReadinessCheck(t *testing.T) {
	w := serve(newTestServer(t, nil), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready"`)
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, http.MethodPost, "/api/v1/checkout/session", `{"items":[]}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "checkout requires a bearer token")

	w = serve(s, http.MethodGet, "/api/v1/admin/orders", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(s, http.MethodPost, "/api/v1/webhooks/stripe", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No signature provided")

	w = serve(s, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBodyLimits(t *testing.T) {
	s := newTestServerWith(t, nil, func(cfg *config.Config) {
		cfg.Storage = config.StorageConfig{MaxUploadBytes: 1 << 20, MaxImages: 2}
	})
	large := "message=" + strings.Repeat("a", 3<<19)

	w := serve(s, http.MethodPost, "/api/v1/webhooks/stripe", large)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(large))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "contact form reaches validation")

	huge := strings.Repeat("a", 4<<20)
	w = serve(s, http.MethodPost, "/api/v1/contact", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLocalUploadsAreServed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "contact"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "contact", "a.png"), []byte("png"), 0o644))

	s := newTestServerWith(t, nil, func(cfg *config.Config) {
		cfg.Storage = config.StorageConfig{Provider: "local", LocalPath: root}
	})
	w := serve(s, http.MethodGet, "/uploads/contact/a.png", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = serve(newTestServer(t, nil), http.MethodGet, "/uploads/contact/a.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
