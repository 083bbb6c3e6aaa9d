// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrSessionRequired = errors.New("cart session id required")
	ErrLineNotFound    = errors.New("item not found in cart")
)

// FeeResolver looks up the current per-unit fee of a design
type FeeResolver interface {
	DesignFee(ctx context.Context, designID string) (decimal.Decimal, error)
}

// Service handles cart business logic for server-side cart sessions
type Service struct {
	storage Storage
	designs FeeResolver
	pricing Pricing
	logger  logrus.FieldLogger
}

// NewService creates a new cart service. designs may be nil, in which case the
// fee supplied with the configuration is used as is.
func NewService(storage Storage, designs FeeResolver, pricing Pricing, logger logrus.FieldLogger) *Service {
	return &Service{
		storage: storage,
		designs: designs,
		pricing: pricing,
		logger:  logger,
	}
}

// CartResponse represents a cart with its derived totals
type CartResponse struct {
	SessionID    string     `json:"sessionId"`
	Items        []CartLine `json:"items"`
	Totals       CartTotals `json:"totals"`
	ItemCount    int        `json:"itemCount"`
	Notification string     `json:"notification,omitempty"`
}

// session is a loaded cart plus the last notification it emitted
type session struct {
	id      string
	cart    *Cart
	message string
}

func (s *Service) open(ctx context.Context, sessionID string) (*session, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	lines, err := s.storage.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess := &session{id: sessionID, cart: NewCart(s.pricing, lines)}
	sess.cart.Subscribe(Persister(ctx, s.storage, sessionID, s.logger))
	sess.cart.Subscribe(func(e Event) {
		sess.message = e.Message()
	})
	return sess, nil
}

func (sess *session) response() *CartResponse {
	return &CartResponse{
		SessionID:    sess.id,
		Items:        sess.cart.Lines(),
		Totals:       sess.cart.Totals(),
		ItemCount:    sess.cart.ItemCount(),
		Notification: sess.message,
	}
}

// GetCart returns the cart for a session
func (s *Service) GetCart(ctx context.Context, sessionID string) (*CartResponse, error) {
	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.response(), nil
}

// AddItem adds a configuration to the cart, merging with an identical line
func (s *Service) AddItem(ctx context.Context, sessionID string, cfg LineConfig) (*CartResponse, error) {
	if cfg.DesignID != "" && s.designs != nil {
		fee, err := s.designs.DesignFee(ctx, cfg.DesignID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve design fee: %w", err)
		}
		cfg.DesignFee = fee
	}

	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.cart.AddItem(cfg)
	return sess.response(), nil
}

// UpdateQuantity sets the quantity of a line; zero or less removes it
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*CartResponse, error) {
	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.cart.UpdateQuantity(lineID, quantity)
	return sess.response(), nil
}

// RemoveItem removes a line. Unknown line ids leave the cart untouched.
func (s *Service) RemoveItem(ctx context.Context, sessionID, lineID string) (*CartResponse, error) {
	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.cart.RemoveItem(lineID)
	return sess.response(), nil
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, sessionID string) (*CartResponse, error) {
	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.cart.Clear()
	return sess.response(), nil
}

// ClearSession empties the cart of a session after its checkout has been paid
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	_, err := s.Clear(ctx, sessionID)
	return err
}

// ItemCount returns the total quantity in the cart
func (s *Service) ItemCount(ctx context.Context, sessionID string) (int, error) {
	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return sess.cart.ItemCount(), nil
}

// FindItem returns the line holding a product/design configuration
func (s *Service) FindItem(ctx context.Context, sessionID, productID, designID, size, color string) (*CartLine, error) {
	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	line, ok := sess.cart.Item(productID, designID, size, color)
	if !ok {
		return nil, ErrLineNotFound
	}
	return &line, nil
}
