// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ves-sport/commerce-backend/internal/config"
)

const resendEndpoint = "https://api.resend.com/emails"

var contactTemplate = template.Must(template.New("contact_notification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Nuevo mensaje de contacto</title></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Nuevo mensaje de contacto</h2>
  <p><strong>Nombre:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  {{if .Phone}}<p><strong>Teléfono:</strong> {{.Phone}}</p>{{end}}
  {{if .Team}}<p><strong>Equipo:</strong> {{.Team}}</p>{{end}}
  {{if .Service}}<p><strong>Servicio:</strong> {{.Service}}</p>{{end}}
  <p><strong>Mensaje:</strong></p>
  <p style="white-space: pre-wrap;">{{.Message}}</p>
  {{if .ImageURLs}}<p><strong>Imágenes:</strong></p>
  <ul>{{range .ImageURLs}}<li><a href="{{.}}">{{.}}</a></li>{{end}}</ul>{{end}}
  <hr>
  <p style="font-size: 12px; color: #666;">Recibido {{.ReceivedAt.Format "02/01/2006 15:04"}} UTC</p>
</body>
</html>`))

// EmailService sends notification emails through the configured provider
type EmailService struct {
	config    config.EmailConfig
	client    *http.Client
	resendURL string
	logger    logrus.FieldLogger
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig, logger logrus.FieldLogger) *EmailService {
	return &EmailService{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		resendURL: resendEndpoint,
		logger:    logger,
	}
}

// SendEmail sends an email using the configured provider
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	switch s.config.Provider {
	case "smtp":
		return s.sendSMTPEmail(email)
	case "resend":
		return s.sendResendEmail(ctx, email)
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Provider)
	}
}

// SendContactNotification forwards a contact form to the team inbox
func (s *EmailService) SendContactNotification(ctx context.Context, n ContactNotification) error {
	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, n); err != nil {
		return fmt.Errorf("failed to render contact notification: %w", err)
	}

	subject := "Nuevo mensaje de contacto de " + n.Name
	if n.Team != "" {
		subject += " (" + n.Team + ")"
	}

	err := s.SendEmail(ctx, &Email{
		To:          []string{s.config.ContactRecipient},
		ReplyTo:     n.Email,
		Subject:     subject,
		HTMLContent: buf.String(),
		Type:        EmailTypeContactNotification,
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"type":     EmailTypeContactNotification,
		"provider": s.config.Provider,
	}).Info("Notification email sent")
	return nil
}

func (s *EmailService) fromAddress() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	return s.config.FromEmail
}
