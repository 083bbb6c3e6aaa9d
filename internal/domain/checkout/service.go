// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ves-sport/commerce-backend/internal/config"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
	"github.com/ves-sport/commerce-backend/internal/domain/design"
	"github.com/ves-sport/commerce-backend/internal/domain/order"
	"github.com/ves-sport/commerce-backend/internal/domain/payment"
)

var (
	ErrEmptyCart       = errors.New("no items provided")
	ErrInvalidItem     = errors.New("invalid cart item")
	ErrSessionNotFound = errors.New("checkout session not found")
)

// OrderLookup finds the order reconciled from a checkout session
type OrderLookup interface {
	GetOrderBySession(ctx context.Context, sessionID string) (*order.Order, error)
}

// Service opens hosted checkouts and reports their outcome
type Service struct {
	gateway   payment.Gateway
	snapshots payment.SnapshotStore
	orders    OrderLookup
	designs   cart.FeeResolver
	pricing   cart.Pricing
	config    *config.Config
	logger    logrus.FieldLogger
}

// NewService creates a new checkout service
func NewService(gateway payment.Gateway, snapshots payment.SnapshotStore, orders OrderLookup, designs cart.FeeResolver, cfg *config.Config, logger logrus.FieldLogger) *Service {
	return &Service{
		gateway:   gateway,
		snapshots: snapshots,
		orders:    orders,
		designs:   designs,
		pricing:   cart.PricingFromConfig(cfg.Pricing),
		config:    cfg,
		logger:    logger,
	}
}

// CreateSessionRequest represents the checkout request body
type CreateSessionRequest struct {
	Items      []cart.CartLine   `json:"items"`
	SuccessURL string            `json:"successUrl"`
	CancelURL  string            `json:"cancelUrl"`
	Metadata   map[string]string `json:"metadata"`
}

// CreateSessionResponse carries the hosted checkout id back to the storefront
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
}

// Customer identifies the authenticated shopper and their cart session
type Customer struct {
	UserID        string
	Email         string
	CartSessionID string
}

// SessionStatus is what the success page shows
type SessionStatus struct {
	Session *payment.Session `json:"session"`
	Order   *order.Order     `json:"order,omitempty"`
}

// CreateSession validates the submitted lines, opens a Stripe checkout session
// and stores a snapshot of the lines for reconciliation
func (s *Service) CreateSession(ctx context.Context, customer Customer, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for i, item := range req.Items {
		if err := validateItem(item); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidItem, i, err)
		}
	}

	items, err := s.resolveDesignFees(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	// The authenticated identity always wins over client-supplied metadata
	metadata[payment.MetadataUserID] = customer.UserID
	if customer.CartSessionID != "" {
		metadata[payment.MetadataCartSessionID] = customer.CartSessionID
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.config.CheckoutSuccessURL()
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.config.CheckoutCancelURL()
	}

	totals := s.pricing.Calculate(items)
	sess, err := s.gateway.CreateCheckoutSession(ctx, &payment.SessionRequest{
		Lines:         items,
		Totals:        totals,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		CustomerEmail: customer.Email,
		Metadata:      metadata,
	})
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		snap := &payment.Snapshot{
			UserID:        customer.UserID,
			CartSessionID: customer.CartSessionID,
			Items:         items,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.snapshots.Save(ctx, sess.ID, snap); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"user_id":    customer.UserID,
		"items":      len(items),
		"total":      totals.Total.StringFixed(2),
	}).Info("Checkout session created")

	return &CreateSessionResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

// GetSessionStatus returns a session owned by userID plus its order once reconciled
func (s *Service) GetSessionStatus(ctx context.Context, userID, sessionID string) (*SessionStatus, error) {
	sess, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Metadata[payment.MetadataUserID] != userID {
		return nil, ErrSessionNotFound
	}

	status := &SessionStatus{Session: sess}
	o, err := s.orders.GetOrderBySession(ctx, sessionID)
	switch {
	case err == nil:
		status.Order = o
	case errors.Is(err, order.ErrOrderNotFound):
		// webhook not delivered yet
	default:
		return nil, err
	}
	return status, nil
}

// resolveDesignFees replaces the fee submitted with each line by the one
// currently stored for its design. Lines without a design carry no fee.
func (s *Service) resolveDesignFees(ctx context.Context, lines []cart.CartLine) ([]cart.CartLine, error) {
	out := make([]cart.CartLine, len(lines))
	copy(out, lines)

	for i := range out {
		if out[i].DesignID == "" {
			out[i].DesignFee = decimal.Zero
			continue
		}
		if s.designs == nil {
			continue
		}
		fee, err := s.designs.DesignFee(ctx, out[i].DesignID)
		if err != nil {
			if errors.Is(err, design.ErrDesignNotFound) {
				return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidItem, i, err)
			}
			return nil, fmt.Errorf("failed to resolve design fee: %w", err)
		}
		out[i].DesignFee = fee
	}
	return out, nil
}

func validateItem(item cart.CartLine) error {
	if item.ProductID == "" {
		return errors.New("productId is required")
	}
	if item.Name == "" {
		return errors.New("name is required")
	}
	if item.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	if item.Price.IsNegative() || item.DesignFee.IsNegative() {
		return errors.New("amounts cannot be negative")
	}
	return nil
}
