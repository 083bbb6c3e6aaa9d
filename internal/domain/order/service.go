// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotRefundable     = errors.New("order cannot be refunded")
)

// Refunder issues refunds against the payment provider
type Refunder interface {
	Refund(ctx context.Context, paymentIntentID string, amount decimal.Decimal) (string, error)
}

// Service handles order queries and back-office changes. Orders themselves are
// only created by webhook reconciliation.
type Service struct {
	db       *gorm.DB
	refunder Refunder
	logger   logrus.FieldLogger
}

// NewService creates a new order service
func NewService(db *gorm.DB, refunder Refunder, logger logrus.FieldLogger) *Service {
	return &Service{
		db:       db,
		refunder: refunder,
		logger:   logger,
	}
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page      int         `form:"page,default=1"`
	Limit     int         `form:"limit,default=20"`
	Status    OrderStatus `form:"status"`
	UserID    string      `form:"user_id"`
	SortBy    string      `form:"sort_by,default=created_at"`
	SortOrder string      `form:"sort_order,default=desc"`
	DateFrom  string      `form:"date_from"`
	DateTo    string      `form:"date_to"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.WithContext(ctx).Model(&Order{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID != "" {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.DateFrom != "" {
		query = query.Where("created_at >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("created_at <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	err := query.Preload("Items").
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetUserOrders retrieves orders for a specific user
func (s *Service) GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderResponse, error) {
	return s.GetOrders(ctx, &OrderListRequest{
		Page:   page,
		Limit:  limit,
		UserID: userID,
	})
}

// GetOrderByNumber retrieves a single order by order number
func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.findOrder(ctx, "order_number = ?", orderNumber)
}

// GetOrderBySession retrieves the order reconciled from a checkout session
func (s *Service) GetOrderBySession(ctx context.Context, sessionID string) (*Order, error) {
	return s.findOrder(ctx, "stripe_session_id = ?", sessionID)
}

// GetUserOrder retrieves an order only if it belongs to userID
func (s *Service) GetUserOrder(ctx context.Context, userID, orderNumber string) (*Order, error) {
	o, err := s.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) findOrder(ctx context.Context, cond string, arg interface{}) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where(cond, arg).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// UpdateOrderStatus moves an order to status if the transition is allowed
func (s *Service) UpdateOrderStatus(ctx context.Context, orderNumber string, status OrderStatus) (*Order, error) {
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	o, err := s.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if !o.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w from %s to %s", ErrInvalidTransition, o.Status, status)
	}

	updates := map[string]interface{}{"status": status}
	now := time.Now().UTC()
	switch status {
	case OrderStatusShipped:
		updates["shipped_at"] = now
	case OrderStatusDelivered:
		updates["delivered_at"] = now
	case OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	// The status guard makes concurrent transitions from the same state lose cleanly
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"from":         o.Status,
		"to":           status,
	}).Info("Order status updated")

	o.Status = status
	return o, nil
}

// RefundOrder refunds the full payment of an order and cancels it
func (s *Service) RefundOrder(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := s.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if o.StripePaymentIntentID == nil || *o.StripePaymentIntentID == "" || !o.CanBeCancelled() {
		return nil, ErrNotRefundable
	}
	if s.refunder == nil {
		return nil, fmt.Errorf("%w: no payment provider configured", ErrNotRefundable)
	}

	refundID, err := s.refunder.Refund(ctx, *o.StripePaymentIntentID, o.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Payment{}).
			Where("stripe_payment_intent_id = ?", *o.StripePaymentIntentID).
			Update("status", PaymentStatusRefunded).Error; err != nil {
			return fmt.Errorf("failed to mark payment refunded: %w", err)
		}
		return tx.Model(&Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
			"status":       OrderStatusCancelled,
			"cancelled_at": now,
		}).Error
	})
	if err != nil {
		// Money has already moved at this point; the rows need manual reconciliation
		s.logger.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"refund_id":    refundID,
		}).WithError(err).Error("Refund issued but order not updated")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"refund_id":    refundID,
		"amount":       o.TotalAmount.StringFixed(2),
	}).Info("Order refunded")

	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	return o, nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
