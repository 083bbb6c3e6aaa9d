// internal/domain/payment/reconciler.go
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v80"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
	"github.com/ves-sport/commerce-backend/internal/domain/design"
	"github.com/ves-sport/commerce-backend/internal/domain/order"
)

// Metadata keys written into the checkout session
const (
	MetadataUserID        = "userId"
	MetadataCartSessionID = "cartSessionId"
)

// Action describes what reconciling an event did
type Action string

const (
	ActionOrderCreated    Action = "order_created"
	ActionDuplicate       Action = "duplicate"
	ActionPaymentRecorded Action = "payment_recorded"
	ActionPaymentFailed   Action = "payment_failed"
	ActionPaymentUnknown  Action = "payment_unknown"
	ActionIgnored         Action = "ignored"
)

// Outcome is the result of handling one event
type Outcome struct {
	Action      Action
	OrderNumber string
}

// CartClearer empties a shopper's server-side cart
type CartClearer interface {
	ClearSession(ctx context.Context, sessionID string) error
}

type handlerFunc func(ctx context.Context, evt *Event) (Outcome, error)

// Reconciler turns verified webhook events into orders and payments.
// It holds no mutable state; duplicates are absorbed by the store's unique keys.
type Reconciler struct {
	store     Store
	snapshots SnapshotStore
	carts     CartClearer
	pricing   cart.Pricing
	logger    logrus.FieldLogger
	now       func() time.Time
	handlers  map[EventKind]handlerFunc
}

// NewReconciler creates a reconciler. snapshots and carts may be nil.
func NewReconciler(store Store, snapshots SnapshotStore, carts CartClearer, pricing cart.Pricing, logger logrus.FieldLogger) *Reconciler {
	r := &Reconciler{
		store:     store,
		snapshots: snapshots,
		carts:     carts,
		pricing:   pricing,
		logger:    logger,
		now:       time.Now,
	}
	r.handlers = map[EventKind]handlerFunc{
		KindCheckoutCompleted: r.handleCheckoutCompleted,
		KindPaymentSucceeded:  r.handlePaymentSucceeded,
		KindPaymentFailed:     r.handlePaymentFailed,
		KindIgnored:           r.handleIgnored,
	}
	for _, kind := range AllKinds {
		if _, ok := r.handlers[kind]; !ok {
			panic(fmt.Sprintf("payment: no handler for event kind %q", kind))
		}
	}
	return r
}

// Handle dispatches evt to its handler
func (r *Reconciler) Handle(ctx context.Context, evt *Event) (Outcome, error) {
	h, ok := r.handlers[evt.Kind]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown event kind %q", evt.Kind)
	}

	outcome, err := h(ctx, evt)
	fields := logrus.Fields{
		"event_id":   evt.ID,
		"event_type": evt.Type,
		"action":     outcome.Action,
	}
	if outcome.OrderNumber != "" {
		fields["order_number"] = outcome.OrderNumber
	}
	if err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Webhook reconciliation failed")
		return outcome, err
	}
	r.logger.WithFields(fields).Info("Webhook reconciled")
	return outcome, nil
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, evt *Event) (Outcome, error) {
	c := evt.Checkout
	if c == nil {
		return Outcome{}, fmt.Errorf("%w: checkout event without session", ErrMalformedEvent)
	}

	var lines []cart.CartLine
	cartSessionID := c.Metadata[MetadataCartSessionID]
	if r.snapshots != nil {
		snap, err := r.snapshots.Load(ctx, c.SessionID)
		if err != nil {
			return Outcome{}, err
		}
		if snap == nil {
			r.logger.WithField("session_id", c.SessionID).Warn("No checkout snapshot; order recorded without items")
		} else {
			lines = snap.Items
			if cartSessionID == "" {
				cartSessionID = snap.CartSessionID
			}
		}
	}

	rec := r.buildCheckoutRecord(c, lines)
	created, isNew, err := r.store.RecordCheckout(ctx, rec)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to record checkout %s: %w", c.SessionID, err)
	}
	if !isNew {
		return Outcome{Action: ActionDuplicate, OrderNumber: created.OrderNumber}, nil
	}

	if cartSessionID != "" && r.carts != nil {
		if err := r.carts.ClearSession(ctx, cartSessionID); err != nil {
			r.logger.WithField("cart_session", cartSessionID).WithError(err).Warn("Failed to clear cart after payment")
		}
	}

	return Outcome{Action: ActionOrderCreated, OrderNumber: created.OrderNumber}, nil
}

func (r *Reconciler) buildCheckoutRecord(c *CheckoutCompleted, lines []cart.CartLine) *CheckoutRecord {
	total := FromCents(c.AmountTotal)
	sessionID := c.SessionID

	o := &order.Order{
		OrderNumber:     order.GenerateOrderNumber(r.now()),
		Status:          order.OrderStatusProcessing,
		Email:           c.CustomerEmail,
		Phone:           c.CustomerPhone,
		TotalAmount:     total,
		Currency:        c.Currency,
		ShippingAddress: toAddress(c.ShippingName, c.ShippingAddress),
		BillingAddress:  toAddress(c.BillingName, c.BillingAddress),
		Metadata:        order.Metadata(c.Metadata),
		StripeSessionID: &sessionID,
	}
	if uid := c.Metadata[MetadataUserID]; uid != "" {
		o.UserID = &uid
	}
	if c.PaymentIntentID != "" {
		pi := c.PaymentIntentID
		o.StripePaymentIntentID = &pi
	}

	var sales []design.Sale
	if len(lines) > 0 {
		totals := r.pricing.Calculate(lines)
		o.Subtotal = totals.Subtotal
		o.DesignFee = totals.DesignFees
		o.ShippingCost = totals.Shipping
		o.TaxAmount = totals.Tax

		for _, line := range lines {
			item := order.OrderItem{
				ProductID:  line.ProductID,
				Name:       line.Name,
				Size:       line.Size,
				Color:      line.Color,
				Quantity:   line.Quantity,
				UnitPrice:  line.Price,
				DesignFee:  line.DesignFee,
				TotalPrice: line.LineTotal().Round(2),
			}
			if line.DesignID != "" {
				designID := line.DesignID
				item.DesignID = &designID
				sales = append(sales, design.Sale{
					DesignID:  line.DesignID,
					Quantity:  line.Quantity,
					UnitPrice: line.DesignFee,
				})
			}
			o.Items = append(o.Items, item)
		}
	}

	rec := &CheckoutRecord{Order: o, Sales: sales}
	if c.PaymentIntentID != "" {
		method := ""
		if len(c.PaymentMethodTypes) > 0 {
			method = c.PaymentMethodTypes[0]
		}
		rec.Payment = &order.Payment{
			StripePaymentIntentID: c.PaymentIntentID,
			Amount:                total,
			Currency:              c.Currency,
			Status:                order.PaymentStatusCompleted,
			PaymentMethod:         method,
		}
	}
	return rec
}

func (r *Reconciler) handlePaymentSucceeded(ctx context.Context, evt *Event) (Outcome, error) {
	pi := evt.Intent
	if pi == nil {
		return Outcome{}, fmt.Errorf("%w: payment event without intent", ErrMalformedEvent)
	}

	p := &order.Payment{
		StripePaymentIntentID: pi.ID,
		Amount:                FromCents(pi.Amount),
		Currency:              pi.Currency,
		Status:                order.PaymentStatusCompleted,
		PaymentMethod:         pi.PaymentMethod,
		Metadata:              order.Metadata(pi.Metadata),
	}
	if err := r.store.UpsertPayment(ctx, p); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: ActionPaymentRecorded}, nil
}

func (r *Reconciler) handlePaymentFailed(ctx context.Context, evt *Event) (Outcome, error) {
	pi := evt.Intent
	if pi == nil {
		return Outcome{}, fmt.Errorf("%w: payment event without intent", ErrMalformedEvent)
	}

	found, err := r.store.MarkPaymentFailed(ctx, pi.ID)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		r.logger.WithField("payment_intent", pi.ID).Warn("Payment failure for unknown payment intent")
		return Outcome{Action: ActionPaymentUnknown}, nil
	}
	return Outcome{Action: ActionPaymentFailed}, nil
}

func (r *Reconciler) handleIgnored(_ context.Context, _ *Event) (Outcome, error) {
	return Outcome{Action: ActionIgnored}, nil
}

func toAddress(name string, a *stripe.Address) order.Address {
	if a == nil {
		return order.Address{Name: name}
	}
	return order.Address{
		Name:         name,
		AddressLine1: a.Line1,
		AddressLine2: a.Line2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
}
