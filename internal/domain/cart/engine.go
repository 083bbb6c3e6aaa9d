// internal/domain/cart/engine.go
package cart

import (
	"fmt"
	"time"
)

const noDesign = "no-design"

// Cart owns one shopper's line collection. It is not safe for concurrent use;
// callers hold one Cart per request.
type Cart struct {
	lines     []CartLine
	pricing   Pricing
	listeners []Listener
	now       func() time.Time
}

// NewCart creates a cart seeded with previously persisted lines
func NewCart(pricing Pricing, lines []CartLine) *Cart {
	c := &Cart{
		pricing: pricing,
		now:     time.Now,
	}
	c.lines = append(c.lines, lines...)
	return c
}

// Subscribe registers a listener for mutation notifications
func (c *Cart) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Lines returns a copy of the current lines in insertion order
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// AddItem merges cfg into an existing line with the same configuration or
// appends a new line. Price, name and fee of an existing line are kept.
func (c *Cart) AddItem(cfg LineConfig) CartLine {
	for i := range c.lines {
		if c.lines[i].matches(cfg) {
			c.lines[i].Quantity += cfg.Quantity
			line := c.lines[i]
			c.emit(EventQuantityUpdated, line)
			return line
		}
	}

	line := CartLine{
		ID:        c.newLineID(cfg),
		ProductID: cfg.ProductID,
		DesignID:  cfg.DesignID,
		Name:      cfg.Name,
		Price:     cfg.Price,
		DesignFee: cfg.DesignFee,
		Size:      cfg.Size,
		Color:     cfg.Color,
		Quantity:  cfg.Quantity,
		Image:     cfg.Image,
	}
	c.lines = append(c.lines, line)
	c.emit(EventItemAdded, line)
	return line
}

// RemoveItem deletes the line with id. Unknown ids are a no-op.
func (c *Cart) RemoveItem(id string) bool {
	for i := range c.lines {
		if c.lines[i].ID == id {
			line := c.lines[i]
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			c.emit(EventItemRemoved, line)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) UpdateQuantity(id string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(id)
	}
	for i := range c.lines {
		if c.lines[i].ID == id {
			c.lines[i].Quantity = quantity
			c.emit(EventQuantityChanged, c.lines[i])
			return true
		}
	}
	return false
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
	c.emit(EventCleared, CartLine{})
}

// Totals computes the derived amounts for the current lines
func (c *Cart) Totals() CartTotals {
	return c.pricing.Calculate(c.lines)
}

// ItemCount is the sum of quantities across lines
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Item returns the first line for productID and designID. Size and color only
// narrow the match when non-empty.
func (c *Cart) Item(productID, designID, size, color string) (CartLine, bool) {
	for _, line := range c.lines {
		if line.ProductID != productID || line.DesignID != designID {
			continue
		}
		if size != "" && line.Size != size {
			continue
		}
		if color != "" && line.Color != color {
			continue
		}
		return line, true
	}
	return CartLine{}, false
}

func (c *Cart) newLineID(cfg LineConfig) string {
	design := cfg.DesignID
	if design == "" {
		design = noDesign
	}
	return fmt.Sprintf("%s-%s-%s-%s-%d", cfg.ProductID, design, cfg.Size, cfg.Color, c.now().UnixMilli())
}

func (c *Cart) emit(t EventType, line CartLine) {
	if len(c.listeners) == 0 {
		return
	}
	event := Event{Type: t, Line: line, Lines: c.Lines()}
	for _, l := range c.listeners {
		l(event)
	}
}
