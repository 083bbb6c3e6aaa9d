// internal/domain/payment/events.go
package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v80"
)

// Stripe event types the reconciler acts on
const (
	EventTypeCheckoutCompleted = "checkout.session.completed"
	EventTypePaymentSucceeded  = "payment_intent.succeeded"
	EventTypePaymentFailed     = "payment_intent.payment_failed"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// EventKind is the closed set of webhook events the reconciler understands
type EventKind string

const (
	KindCheckoutCompleted EventKind = "checkout_completed"
	KindPaymentSucceeded  EventKind = "payment_succeeded"
	KindPaymentFailed     EventKind = "payment_failed"
	KindIgnored           EventKind = "ignored"
)

// AllKinds lists every event kind; the dispatch table must cover all of them
var AllKinds = []EventKind{KindCheckoutCompleted, KindPaymentSucceeded, KindPaymentFailed, KindIgnored}

// Event is a verified webhook event decoded into its kind.
// Exactly one of Checkout or Intent is set for the non-ignored kinds.
type Event struct {
	ID       string
	Type     string
	Kind     EventKind
	Checkout *CheckoutCompleted
	Intent   *PaymentIntentEvent
}

// CheckoutCompleted carries what the order is built from
type CheckoutCompleted struct {
	SessionID          string
	PaymentIntentID    string
	AmountTotal        int64
	Currency           string
	Metadata           map[string]string
	CustomerEmail      string
	CustomerPhone      string
	ShippingName       string
	ShippingAddress    *stripe.Address
	BillingName        string
	BillingAddress     *stripe.Address
	PaymentMethodTypes []string
}

// PaymentIntentEvent carries the payment intent fields needed for payment rows
type PaymentIntentEvent struct {
	ID            string
	Amount        int64
	Currency      string
	PaymentMethod string
	Metadata      map[string]string
}

type partyDetails struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Address *stripe.Address `json:"address"`
}

// checkoutSessionPayload mirrors the webhook JSON. Shipping details moved under
// collected_information in newer API versions, so both places are read.
type checkoutSessionPayload struct {
	ID                   string            `json:"id"`
	AmountTotal          int64             `json:"amount_total"`
	Currency             string            `json:"currency"`
	Metadata             map[string]string `json:"metadata"`
	PaymentIntent        json.RawMessage   `json:"payment_intent"`
	PaymentMethodTypes   []string          `json:"payment_method_types"`
	CustomerEmail        string            `json:"customer_email"`
	CustomerDetails      *partyDetails     `json:"customer_details"`
	ShippingDetails      *partyDetails     `json:"shipping_details"`
	CollectedInformation *struct {
		ShippingDetails *partyDetails `json:"shipping_details"`
	} `json:"collected_information"`
}

// DecodeEvent turns a verified Stripe event into an Event
func DecodeEvent(e stripe.Event) (*Event, error) {
	evt := &Event{ID: e.ID, Type: string(e.Type), Kind: KindIgnored}
	if e.Data == nil {
		if e.Type == EventTypeCheckoutCompleted || e.Type == EventTypePaymentSucceeded || e.Type == EventTypePaymentFailed {
			return nil, fmt.Errorf("%w: %s has no data", ErrMalformedEvent, e.Type)
		}
		return evt, nil
	}

	switch e.Type {
	case EventTypeCheckoutCompleted:
		checkout, err := decodeCheckout(e.Data.Raw)
		if err != nil {
			return nil, err
		}
		evt.Kind = KindCheckoutCompleted
		evt.Checkout = checkout
	case EventTypePaymentSucceeded, EventTypePaymentFailed:
		intent, err := decodeIntent(e.Data.Raw)
		if err != nil {
			return nil, err
		}
		evt.Kind = KindPaymentSucceeded
		if e.Type == EventTypePaymentFailed {
			evt.Kind = KindPaymentFailed
		}
		evt.Intent = intent
	}
	return evt, nil
}

func decodeCheckout(raw json.RawMessage) (*CheckoutCompleted, error) {
	var p checkoutSessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: checkout session without id", ErrMalformedEvent)
	}

	intentID, err := expandableID(p.PaymentIntent)
	if err != nil {
		return nil, err
	}

	c := &CheckoutCompleted{
		SessionID:          p.ID,
		PaymentIntentID:    intentID,
		AmountTotal:        p.AmountTotal,
		Currency:           p.Currency,
		Metadata:           p.Metadata,
		CustomerEmail:      p.CustomerEmail,
		PaymentMethodTypes: p.PaymentMethodTypes,
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}

	if p.CustomerDetails != nil {
		if p.CustomerDetails.Email != "" {
			c.CustomerEmail = p.CustomerDetails.Email
		}
		c.CustomerPhone = p.CustomerDetails.Phone
		c.BillingName = p.CustomerDetails.Name
		c.BillingAddress = p.CustomerDetails.Address
	}

	shipping := p.ShippingDetails
	if shipping == nil && p.CollectedInformation != nil {
		shipping = p.CollectedInformation.ShippingDetails
	}
	if shipping != nil {
		c.ShippingName = shipping.Name
		c.ShippingAddress = shipping.Address
	}
	return c, nil
}

func decodeIntent(raw json.RawMessage) (*PaymentIntentEvent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if pi.ID == "" {
		return nil, fmt.Errorf("%w: payment intent without id", ErrMalformedEvent)
	}

	intent := &PaymentIntentEvent{
		ID:       pi.ID,
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
		Metadata: pi.Metadata,
	}
	if pi.PaymentMethod != nil {
		intent.PaymentMethod = pi.PaymentMethod.ID
	}
	return intent, nil
}

// expandableID reads a field that is either an id string or an expanded object
func expandableID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return id, nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return obj.ID, nil
}
