// internal/domain/upload/service.go
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Service handles file upload business logic
type Service struct {
	db       *gorm.DB
	store    Store
	maxBytes int64
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new upload service
func NewService(db *gorm.DB, store Store, maxBytes int64, logger logrus.FieldLogger) *Service {
	return &Service{
		db:       db,
		store:    store,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

// SaveImage validates an image from a multipart form, stores it under
// category and records it
func (s *Service) SaveImage(ctx context.Context, header *multipart.FileHeader, category string) (*UploadedFile, error) {
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %s", ErrFileTooLarge, header.Filename, formatSize(header.Size))
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	contentType := mime.String()
	if !IsImageType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	filename := s.generateFilename(category, header.Filename, mime.Extension())
	key := category + "/" + filename

	url, err := s.store.Put(ctx, key, file, header.Size, contentType)
	if err != nil {
		return nil, err
	}

	record := UploadedFile{
		OriginalName: header.Filename,
		Filename:     filename,
		Key:          key,
		URL:          url,
		MimeType:     contentType,
		Size:         header.Size,
		Category:     category,
		Storage:      s.store.Name(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		// Clean up the object if the database insert fails
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.WithError(delErr).WithField("key", key).Warn("Failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("failed to save file info: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"key":  key,
		"size": record.GetFormattedSize(),
	}).Info("Image uploaded")
	return &record, nil
}

// generateFilename returns <category>-<unix millis>-<random>-<clean name>
func (s *Service) generateFilename(category, original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "image"
	}
	if len(base) > 80 {
		base = base[:80]
	}
	return fmt.Sprintf("%s-%d-%s-%s%s", category, s.now().UnixMilli(), uuid.NewString()[:8], base, ext)
}
