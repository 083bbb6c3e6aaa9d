package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
)

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(2000), ToCents(decimal.NewFromInt(20)))
	assert.Equal(t, int64(599), ToCents(decimal.RequireFromString("5.99")))
	assert.Equal(t, int64(1), ToCents(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(2450), ToCents(decimal.RequireFromString("24.499")))
	assert.Equal(t, "72.60", FromCents(7260).StringFixed(2))
}

func TestRefundParams(t *testing.T) {
	params := refundParams("pi_123", decimal.RequireFromString("72.60"))
	assert.Equal(t, "pi_123", *params.PaymentIntent)
	assert.Equal(t, int64(7260), *params.Amount)
	require.NotNil(t, params.IdempotencyKey)
	assert.Equal(t, "refund-pi_123", *params.IdempotencyKey)

	again := refundParams("pi_123", decimal.RequireFromString("72.60"))
	assert.Equal(t, *params.IdempotencyKey, *again.IdempotencyKey, "concurrent refunds share one key")

	full := refundParams("pi_456", decimal.Zero)
	assert.Nil(t, full.Amount)
}

func TestBuildSessionParams(t *testing.T) {
	lines := []cart.CartLine{
		{ProductID: "p1", Name: "Camiseta", Price: decimal.NewFromInt(20), Size: "M", Color: "blue", Quantity: 1},
		{ProductID: "p2", DesignID: "d1", Name: "Sudadera", Price: decimal.NewFromInt(25), DesignFee: decimal.RequireFromString("4.50"), Size: "L", Color: "red", Quantity: 1, Image: "https://cdn.example.com/p2.png"},
	}
	totals := cart.DefaultPricing().Calculate(lines)
	req := &SessionRequest{
		Lines:      lines,
		Totals:     totals,
		SuccessURL: "https://ves.example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://ves.example.com/cart",
		Metadata:   map[string]string{"userId": "u1"},
	}

	params := newTestGateway().buildSessionParams(req)

	require.Len(t, params.LineItems, 4, "two products plus shipping and IVA")
	first := params.LineItems[0]
	assert.Equal(t, int64(2000), *first.PriceData.UnitAmount)
	assert.Equal(t, "Producto base", *first.PriceData.ProductData.Description)
	assert.Empty(t, first.PriceData.ProductData.Images)

	second := params.LineItems[1]
	assert.Equal(t, int64(2950), *second.PriceData.UnitAmount)
	assert.Equal(t, "Con diseño personalizado", *second.PriceData.ProductData.Description)
	assert.Equal(t, "d1", second.PriceData.ProductData.Metadata["designId"])
	assert.Equal(t, "L", second.PriceData.ProductData.Metadata["size"])

	var sum int64
	for _, item := range params.LineItems {
		sum += *item.PriceData.UnitAmount * *item.Quantity
	}
	assert.Equal(t, ToCents(totals.Total), sum, "hosted total matches cart total")

	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "required", *params.BillingAddressCollection)
	assert.True(t, *params.PhoneNumberCollection.Enabled)
	assert.Len(t, params.ShippingAddressCollection.AllowedCountries, 5)
	assert.Equal(t, "u1", params.Metadata["userId"])
	assert.Equal(t, req.CancelURL, *params.CancelURL)
}

func TestBuildSessionParams_FreeShippingOmitsShippingLine(t *testing.T) {
	lines := []cart.CartLine{{ProductID: "p1", Name: "Camiseta", Price: decimal.NewFromInt(60), Quantity: 1}}
	params := newTestGateway().buildSessionParams(&SessionRequest{
		Lines:  lines,
		Totals: cart.DefaultPricing().Calculate(lines),
	})

	require.Len(t, params.LineItems, 2)
	assert.Equal(t, "IVA", *params.LineItems[1].PriceData.ProductData.Name)
}
