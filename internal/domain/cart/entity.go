// internal/domain/cart/entity.go
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine is one purchasable configuration in a shopper's cart
type CartLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	DesignID  string          `json:"designId,omitempty"` // empty means no custom design
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	DesignFee decimal.Decimal `json:"designFee"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// LineConfig describes a configuration being added to the cart
type LineConfig struct {
	ProductID string          `json:"productId" binding:"required"`
	DesignID  string          `json:"designId"`
	Name      string          `json:"name" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	DesignFee decimal.Decimal `json:"designFee"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Image     string          `json:"image"`
}

// matches reports whether the line holds the same product/design/size/color configuration
func (l CartLine) matches(cfg LineConfig) bool {
	return l.ProductID == cfg.ProductID &&
		l.DesignID == cfg.DesignID &&
		l.Size == cfg.Size &&
		l.Color == cfg.Color
}

// LineTotal returns (price + design fee) * quantity
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Add(l.DesignFee).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotals is derived from the lines on every read and never stored
type CartTotals struct {
	Subtotal   decimal.Decimal
	DesignFees decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

// MarshalJSON renders every amount as a number with two decimals
func (t CartTotals) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]json.Number{
		"subtotal":   json.Number(t.Subtotal.StringFixed(2)),
		"designFees": json.Number(t.DesignFees.StringFixed(2)),
		"shipping":   json.Number(t.Shipping.StringFixed(2)),
		"tax":        json.Number(t.Tax.StringFixed(2)),
		"total":      json.Number(t.Total.StringFixed(2)),
	})
}

// EventType identifies a cart mutation notification
type EventType string

const (
	EventItemAdded       EventType = "item_added"
	EventQuantityUpdated EventType = "quantity_updated"
	EventQuantityChanged EventType = "quantity_changed"
	EventItemRemoved     EventType = "item_removed"
	EventCleared         EventType = "cleared"
)

// Event is emitted after every mutation. Lines is the collection after the change.
type Event struct {
	Type  EventType
	Line  CartLine
	Lines []CartLine
}

// Message returns the shopper-facing text for the notification, if any
func (e Event) Message() string {
	switch e.Type {
	case EventItemAdded:
		return "Producto agregado al carrito"
	case EventQuantityUpdated:
		return "Cantidad actualizada en el carrito"
	case EventItemRemoved:
		return "Producto eliminado del carrito"
	case EventCleared:
		return "Carrito vaciado"
	}
	return ""
}

// Listener receives cart notifications
type Listener func(Event)
