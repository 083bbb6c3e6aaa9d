// internal/domain/payment/store.go
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/ves-sport/commerce-backend/internal/domain/design"
	"github.com/ves-sport/commerce-backend/internal/domain/order"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutRecord is everything written for one completed checkout
type CheckoutRecord struct {
	Order   *order.Order
	Payment *order.Payment // nil when the session carried no payment intent
	Sales   []design.Sale
}

// Store persists reconciliation results
type Store interface {
	// RecordCheckout writes the order, its payment and design sales atomically.
	// When an order already exists for the session it returns that order and false.
	RecordCheckout(ctx context.Context, rec *CheckoutRecord) (*order.Order, bool, error)
	// UpsertPayment inserts or updates the payment keyed by its payment intent id
	UpsertPayment(ctx context.Context, p *order.Payment) error
	// MarkPaymentFailed flips an existing payment to failed and reports whether one existed
	MarkPaymentFailed(ctx context.Context, paymentIntentID string) (bool, error)
}

// GormStore is the PostgreSQL implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new gorm-backed store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var paymentIntentConflict = []clause.Column{{Name: "stripe_payment_intent_id"}}

// RecordCheckout implements Store
func (s *GormStore) RecordCheckout(ctx context.Context, rec *CheckoutRecord) (*order.Order, bool, error) {
	sessionID := ""
	if rec.Order.StripeSessionID != nil {
		sessionID = *rec.Order.StripeSessionID
	}

	var existing *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found order.Order
		err := tx.Where("stripe_session_id = ?", sessionID).First(&found).Error
		if err == nil {
			existing = &found
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing order: %w", err)
		}

		if err := tx.Create(rec.Order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if rec.Payment != nil {
			rec.Payment.OrderID = &rec.Order.ID
			if err := tx.Clauses(clause.OnConflict{
				Columns:   paymentIntentConflict,
				DoUpdates: clause.AssignmentColumns([]string{"order_id", "amount", "currency", "status", "payment_method", "updated_at"}),
			}).Create(rec.Payment).Error; err != nil {
				return fmt.Errorf("failed to record payment: %w", err)
			}
		}

		return design.RecordSales(tx, rec.Order.ID, rec.Sales)
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent delivery of the same session committed first
		var found order.Order
		if lookupErr := s.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&found).Error; lookupErr == nil {
			return &found, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return rec.Order, true, nil
}

// UpsertPayment implements Store
func (s *GormStore) UpsertPayment(ctx context.Context, p *order.Payment) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   paymentIntentConflict,
		DoUpdates: clause.AssignmentColumns([]string{"amount", "currency", "status", "payment_method", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

// MarkPaymentFailed implements Store
func (s *GormStore) MarkPaymentFailed(ctx context.Context, paymentIntentID string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&order.Payment{}).
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		Update("status", order.PaymentStatusFailed)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
