// internal/domain/contact/entity.go
package contact

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ContactMessage is a message left through the storefront contact form
type ContactMessage struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    *string    `gorm:"index;size:64" json:"user_id,omitempty"`
	Name      string     `gorm:"not null;size:255" json:"name"`
	Email     string     `gorm:"not null;size:255" json:"email"`
	Phone     string     `gorm:"size:50" json:"phone,omitempty"`
	Team      string     `gorm:"size:255" json:"team,omitempty"`
	Service   string     `gorm:"size:100" json:"service,omitempty"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Images    StringList `gorm:"type:jsonb" json:"images"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName overrides
func (ContactMessage) TableName() string { return "contact_messages" }

// StringList is a list of strings stored as jsonb. An empty list is stored
// as NULL.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported string list type %T", value)
	}
	return json.Unmarshal(data, (*[]string)(l))
}
