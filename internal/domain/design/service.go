// internal/domain/design/service.go
package design

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrDesignNotFound = errors.New("design not found")

// Service handles design lookups and sales accounting
type Service struct {
	db *gorm.DB
}

// NewService creates a new design service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Sale is a quantity of a design sold at a unit fee
type Sale struct {
	DesignID  string
	Quantity  int
	UnitPrice decimal.Decimal
}

// GetDesign retrieves a design by ID
func (s *Service) GetDesign(ctx context.Context, id string) (*Design, error) {
	var d Design
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to retrieve design: %w", err)
	}
	return &d, nil
}

// GetAvailableDesign retrieves a design shoppers may buy. Private drafts
// are reported as not found.
func (s *Service) GetAvailableDesign(ctx context.Context, id string) (*Design, error) {
	d, err := s.GetDesign(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsAvailable() {
		return nil, ErrDesignNotFound
	}
	return d, nil
}

// DesignFee returns the per-unit fee currently charged for a design
func (s *Service) DesignFee(ctx context.Context, id string) (decimal.Decimal, error) {
	d, err := s.GetAvailableDesign(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return d.CurrentFee(), nil
}

// RecordSales stores one DesignSale per entry and bumps the design counters.
// tx is the caller's transaction so sales commit together with the order.
func RecordSales(tx *gorm.DB, orderID uint, sales []Sale) error {
	for _, sale := range sales {
		if sale.DesignID == "" || sale.Quantity <= 0 {
			continue
		}

		record := DesignSale{
			DesignID:  sale.DesignID,
			OrderID:   orderID,
			Quantity:  sale.Quantity,
			UnitPrice: sale.UnitPrice,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record design sale: %w", err)
		}

		if err := tx.Model(&Design{}).
			Where("id = ?", sale.DesignID).
			UpdateColumn("sales_count", gorm.Expr("sales_count + ?", sale.Quantity)).Error; err != nil {
			return fmt.Errorf("failed to update design sales count: %w", err)
		}

		if err := tx.Model(&Design{}).
			Where("id = ? AND target_sales > 0 AND sales_count >= target_sales AND status <> ?",
				sale.DesignID, DesignStatusFreeAchieved).
			UpdateColumn("status", DesignStatusFreeAchieved).Error; err != nil {
			return fmt.Errorf("failed to update design status: %w", err)
		}
	}
	return nil
}
