// internal/domain/design/entity.go
package design

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DesignStatus represents the publication state of a design
type DesignStatus string

const (
	DesignStatusDraft        DesignStatus = "draft"
	DesignStatusPublished    DesignStatus = "published"
	DesignStatusInProgress   DesignStatus = "in_progress"
	DesignStatusFreeAchieved DesignStatus = "free_achieved"
)

// Design is a custom artwork that can be printed on a product for a per-unit fee
type Design struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	DesignerID  string          `gorm:"not null;index;size:64" json:"designer_id"`
	ProductID   string          `gorm:"index;size:64" json:"product_id"`
	Title       string          `gorm:"not null;size:255" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	PreviewURL  string          `gorm:"size:500" json:"preview_url"`
	Status      DesignStatus    `gorm:"not null;default:'draft';size:20" json:"status"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	SalesCount  int             `gorm:"not null;default:0" json:"sales_count"`
	TargetSales int             `gorm:"not null;default:0" json:"target_sales"`
	IsPublic    bool            `gorm:"default:false" json:"is_public"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// DesignSale records units of a design sold in an order
type DesignSale struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	DesignID  string          `gorm:"not null;index;size:36" json:"design_id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName overrides
func (Design) TableName() string     { return "designs" }
func (DesignSale) TableName() string { return "design_sales" }

// BeforeCreate assigns a UUID when none was supplied
func (d *Design) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// IsAvailable reports whether shoppers may see and buy the design.
// Private drafts belong to their designer only.
func (d *Design) IsAvailable() bool {
	return d.IsPublic || d.Status != DesignStatusDraft
}

// IsFree reports whether the design has reached its sales target
func (d *Design) IsFree() bool {
	if d.Status == DesignStatusFreeAchieved {
		return true
	}
	return d.TargetSales > 0 && d.SalesCount >= d.TargetSales
}

// CurrentFee returns the per-unit fee charged for the design right now
func (d *Design) CurrentFee() decimal.Decimal {
	if d.IsFree() {
		return decimal.Zero
	}
	return d.Price
}
