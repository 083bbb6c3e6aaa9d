// internal/domain/upload/entity.go
package upload

import (
	"fmt"
	"time"
)

// UploadedFile represents a stored upload
type UploadedFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OriginalName string    `gorm:"not null;size:255" json:"original_name"`
	Filename     string    `gorm:"not null;size:255;uniqueIndex" json:"filename"`
	Key          string    `gorm:"not null;size:500" json:"key"`
	URL          string    `gorm:"not null;size:500" json:"url"`
	MimeType     string    `gorm:"not null;size:100" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	Category     string    `gorm:"size:50;index" json:"category"`
	Storage      string    `gorm:"size:20" json:"storage"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides
func (UploadedFile) TableName() string { return "uploaded_files" }

var imageTypes = []string{
	"image/jpeg", "image/png", "image/gif", "image/webp",
}

// IsImageType reports whether mimeType is an accepted image format
func IsImageType(mimeType string) bool {
	for _, t := range imageTypes {
		if mimeType == t {
			return true
		}
	}
	return false
}

// IsImage checks if the file is an image
func (f *UploadedFile) IsImage() bool {
	return IsImageType(f.MimeType)
}

// GetFormattedSize returns human-readable file size
func (f *UploadedFile) GetFormattedSize() string {
	return formatSize(f.Size)
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
