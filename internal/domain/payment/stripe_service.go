// internal/domain/payment/stripe_service.go
package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/refund"
	"github.com/stripe/stripe-go/v80/webhook"
	"github.com/ves-sport/commerce-backend/internal/config"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
)

const (
	descriptionWithDesign = "Con diseño personalizado"
	descriptionBase       = "Producto base"
	shippingLineName      = "Envío"
	taxLineName           = "IVA"
)

// SessionRequest describes a hosted checkout to open
type SessionRequest struct {
	Lines         []cart.CartLine
	Totals        cart.CartTotals
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

// Session is the subset of a Stripe checkout session the storefront uses
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url,omitempty"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Gateway is the payment provider surface used by checkout, webhooks and refunds
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
	Refund(ctx context.Context, paymentIntentID string, amount decimal.Decimal) (string, error)
}

// StripeService talks to the Stripe API
type StripeService struct {
	webhookSecret    string
	currency         string
	allowedCountries []string
}

// NewStripeService creates a Stripe gateway and sets the process-wide API key
func NewStripeService(cfg config.StripeConfig) *StripeService {
	stripe.Key = cfg.SecretKey
	return &StripeService{
		webhookSecret:    cfg.WebhookSecret,
		currency:         cfg.Currency,
		allowedCountries: cfg.AllowedCountries,
	}
}

// CreateCheckoutSession opens a hosted checkout for the given lines
func (s *StripeService) CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	params := s.buildSessionParams(req)
	params.Context = ctx

	cs, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return toSession(cs), nil
}

// RetrieveSession fetches a checkout session by id
func (s *StripeService) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}
	return toSession(cs), nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw payload
func (s *StripeService) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// Refund refunds amount of a payment intent and returns the refund id.
// Repeated calls for the same intent resolve to the same refund.
func (s *StripeService) Refund(ctx context.Context, paymentIntentID string, amount decimal.Decimal) (string, error) {
	params := refundParams(paymentIntentID, amount)
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create refund: %w", err)
	}
	return r.ID, nil
}

func refundParams(paymentIntentID string, amount decimal.Decimal) *stripe.RefundParams {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount.IsPositive() {
		params.Amount = stripe.Int64(ToCents(amount))
	}
	params.SetIdempotencyKey("refund-" + paymentIntentID)
	return params
}

func (s *StripeService) buildSessionParams(req *SessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines)+2)
	for _, line := range req.Lines {
		description := descriptionBase
		if line.DesignID != "" {
			description = descriptionWithDesign
		}

		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(line.Name),
			Description: stripe.String(description),
			Metadata: map[string]string{
				"productId": line.ProductID,
				"designId":  line.DesignID,
				"size":      line.Size,
				"color":     line.Color,
			},
		}
		if line.Image != "" {
			product.Images = stripe.StringSlice([]string{line.Image})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(ToCents(line.Price.Add(line.DesignFee))),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}

	// Shipping and IVA travel as their own lines so the hosted total equals CartTotals.Total
	if req.Totals.Shipping.IsPositive() {
		lineItems = append(lineItems, s.chargeLine(shippingLineName, req.Totals.Shipping))
	}
	if req.Totals.Tax.IsPositive() {
		lineItems = append(lineItems, s.chargeLine(taxLineName, req.Totals.Tax))
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(s.allowedCountries),
		},
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func (s *StripeService) chargeLine(name string, amount decimal.Decimal) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(s.currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(ToCents(amount)),
		},
		Quantity: stripe.Int64(1),
	}
}

func toSession(cs *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		Status:        string(cs.Status),
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		CustomerEmail: cs.CustomerEmail,
		Metadata:      cs.Metadata,
	}
	if out.CustomerEmail == "" && cs.CustomerDetails != nil {
		out.CustomerEmail = cs.CustomerDetails.Email
	}
	return out
}

// ToCents converts a euro amount to the smallest currency unit, rounding half away from zero
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromCents converts a smallest-unit amount to an exact decimal
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
