// internal/domain/order/entity.go
package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Order is created once per completed checkout session
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderNumber string      `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID      *string     `gorm:"index;size:64" json:"user_id"` // Nullable for guest checkouts
	Email       string      `gorm:"size:255" json:"email"`
	Phone       string      `gorm:"size:50" json:"phone"`
	Status      OrderStatus `gorm:"not null;default:'pending';size:20" json:"status"`

	// Financial Information
	Subtotal     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"subtotal"`
	DesignFee    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"design_fee"`
	ShippingCost decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"shipping_cost"`
	TaxAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"tax_amount"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Currency     string          `gorm:"size:3;default:'eur'" json:"currency"`

	// Addresses
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	Notes    string   `gorm:"type:text" json:"notes"`
	Metadata Metadata `gorm:"type:jsonb" json:"metadata"`

	// Stripe correlation
	StripeSessionID       *string `gorm:"uniqueIndex;size:255" json:"stripe_session_id"`
	StripePaymentIntentID *string `gorm:"uniqueIndex;size:255" json:"stripe_payment_intent_id"`

	// Timestamps
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

// OrderItem is a cart line frozen into an order
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	ProductID  string          `gorm:"not null;index;size:64" json:"product_id"`
	DesignID   *string         `gorm:"index;size:36" json:"design_id"`
	Name       string          `gorm:"not null;size:255" json:"name"`
	Size       string          `gorm:"size:20" json:"size"`
	Color      string          `gorm:"size:50" json:"color"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	DesignFee  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"design_fee"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"` // (UnitPrice + DesignFee) * Quantity
	CreatedAt  time.Time       `json:"created_at"`
}

// Payment is keyed by the Stripe payment intent; status is last write wins
type Payment struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	OrderID               *uint           `gorm:"index" json:"order_id"`
	StripePaymentIntentID string          `gorm:"uniqueIndex;not null;size:255" json:"stripe_payment_intent_id"`
	Amount                decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency              string          `gorm:"size:3;default:'eur'" json:"currency"`
	Status                PaymentStatus   `gorm:"not null;size:20" json:"status"`
	PaymentMethod         string          `gorm:"size:50" json:"payment_method"`
	Metadata              Metadata        `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Address represents shipping/billing address (embedded in Order)
type Address struct {
	Name         string `gorm:"size:200" json:"name"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
}

// Metadata is a free-form string map stored as jsonb
type Metadata map[string]string

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", value)
	}
	return json.Unmarshal(data, m)
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }
func (Payment) TableName() string   { return "payments" }

// GenerateOrderNumber returns VES-<unix millis>-<0..999>
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("VES-%d-%d", now.UnixMilli(), rand.Intn(1000))
}

var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransitionTo reports whether status may follow the current one.
// Fulfilment only moves forward; cancellation is possible until shipping.
func (o *Order) CanTransitionTo(status OrderStatus) bool {
	for _, allowed := range validTransitions[o.Status] {
		if allowed == status {
			return true
		}
	}
	return false
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.CanTransitionTo(OrderStatusCancelled)
}

// IsValidStatus reports whether s names a known order status
func IsValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
