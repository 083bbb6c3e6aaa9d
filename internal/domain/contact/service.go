// internal/domain/contact/service.go
package contact

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ves-sport/commerce-backend/internal/domain/upload"
	"github.com/ves-sport/commerce-backend/internal/pkg/email"
	"gorm.io/gorm"
)

// ImageCategory is the storage prefix for contact form images
const ImageCategory = "contact"

var ErrTooManyImages = errors.New("too many images")

// Uploader stores an image and returns its record
type Uploader interface {
	SaveImage(ctx context.Context, header *multipart.FileHeader, category string) (*upload.UploadedFile, error)
}

// Notifier forwards a saved message to the team
type Notifier interface {
	SendContactNotification(ctx context.Context, n email.ContactNotification) error
}

// SubmitRequest is the contact form payload
type SubmitRequest struct {
	Name    string `form:"name" binding:"required,max=255"`
	Email   string `form:"email" binding:"required,email,max=255"`
	Phone   string `form:"phone" binding:"max=50"`
	Team    string `form:"team" binding:"max=255"`
	Service string `form:"service" binding:"max=100"`
	Message string `form:"message" binding:"required,max=5000"`
}

// ListResponse is a page of contact messages
type ListResponse struct {
	Messages []ContactMessage `json:"messages"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// Service handles contact form business logic
type Service struct {
	db        *gorm.DB
	uploader  Uploader
	notifier  Notifier
	maxImages int
	logger    logrus.FieldLogger
}

// NewService creates a new contact service. notifier may be nil when email is
// not configured.
func NewService(db *gorm.DB, uploader Uploader, notifier Notifier, maxImages int, logger logrus.FieldLogger) *Service {
	return &Service{
		db:        db,
		uploader:  uploader,
		notifier:  notifier,
		maxImages: maxImages,
		logger:    logger,
	}
}

// Submit stores a contact message with its images. Images that fail to
// upload are skipped, and notification failures never fail the submission.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest, images []*multipart.FileHeader) (*ContactMessage, error) {
	if s.maxImages > 0 && len(images) > s.maxImages {
		return nil, fmt.Errorf("%w: %d sent, at most %d allowed", ErrTooManyImages, len(images), s.maxImages)
	}

	var urls StringList
	for _, header := range images {
		f, err := s.uploader.SaveImage(ctx, header, ImageCategory)
		if err != nil {
			s.logger.WithError(err).WithField("filename", header.Filename).Warn("Skipping contact image")
			continue
		}
		urls = append(urls, f.URL)
	}

	msg := ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Team:    strings.TrimSpace(req.Team),
		Service: strings.TrimSpace(req.Service),
		Message: strings.TrimSpace(req.Message),
		Images:  urls,
	}
	if userID != "" {
		msg.UserID = &userID
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save contact message: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"contact_id": msg.ID,
		"images":     len(urls),
		"service":    msg.Service,
	}).Info("Contact message received")

	if s.notifier != nil {
		err := s.notifier.SendContactNotification(ctx, email.ContactNotification{
			Name:       msg.Name,
			Email:      msg.Email,
			Phone:      msg.Phone,
			Team:       msg.Team,
			Service:    msg.Service,
			Message:    msg.Message,
			ImageURLs:  msg.Images,
			ReceivedAt: msg.CreatedAt.UTC(),
		})
		if err != nil {
			s.logger.WithError(err).WithField("contact_id", msg.ID).Error("Failed to send contact notification")
		}
	}

	return &msg, nil
}

// ListMessages returns contact messages newest first
func (s *Service) ListMessages(ctx context.Context, page, limit int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	query := s.db.WithContext(ctx).Model(&ContactMessage{})
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count contact messages: %w", err)
	}

	var messages []ContactMessage
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve contact messages: %w", err)
	}

	return &ListResponse{
		Messages: messages,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}
