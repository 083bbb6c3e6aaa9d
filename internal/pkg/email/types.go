// internal/pkg/email/types.go
package email

import "time"

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeContactNotification EmailType = "contact_notification"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	ReplyTo     string    `json:"reply_to,omitempty"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// ContactNotification is what the team receives when a contact form arrives
type ContactNotification struct {
	Name       string
	Email      string
	Phone      string
	Team       string
	Service    string
	Message    string
	ImageURLs  []string
	ReceivedAt time.Time
}
