package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func TestCalculate_Example(t *testing.T) {
	totals := DefaultPricing().Calculate([]CartLine{
		{Price: d("20"), Quantity: 3},
	})

	assertAmount(t, "60.00", totals.Subtotal)
	assertAmount(t, "0.00", totals.DesignFees)
	assertAmount(t, "0.00", totals.Shipping)
	assertAmount(t, "12.60", totals.Tax)
	assertAmount(t, "72.60", totals.Total)
}

func TestCalculate_ShippingThreshold(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		shipping string
		tax      string
		total    string
	}{
		{"just below", "49.99", "5.99", "11.76", "67.74"},
		{"at threshold", "50.00", "0.00", "10.50", "60.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := DefaultPricing().Calculate([]CartLine{{Price: d(tt.price), Quantity: 1}})
			assertAmount(t, tt.shipping, totals.Shipping)
			assertAmount(t, tt.tax, totals.Tax)
			assertAmount(t, tt.total, totals.Total)
		})
	}
}

func TestCalculate_DesignFeesDoNotCountTowardThreshold(t *testing.T) {
	totals := DefaultPricing().Calculate([]CartLine{
		{Price: d("40"), DesignFee: d("15"), Quantity: 1},
	})

	assertAmount(t, "40.00", totals.Subtotal)
	assertAmount(t, "15.00", totals.DesignFees)
	assertAmount(t, "5.99", totals.Shipping)
	// (40 + 15 + 5.99) * 0.21 = 12.8079
	assertAmount(t, "12.81", totals.Tax)
	assertAmount(t, "73.80", totals.Total)
}

func TestCalculate_TotalRoundedOnceFromUnroundedSums(t *testing.T) {
	totals := DefaultPricing().Calculate([]CartLine{
		{Price: d("0.005"), DesignFee: d("0.005"), Quantity: 1},
	})

	// components round to 0.01 + 0.01 + 5.99 + 1.26 = 7.27, the real total is 7.26
	assertAmount(t, "0.01", totals.Subtotal)
	assertAmount(t, "0.01", totals.DesignFees)
	assertAmount(t, "1.26", totals.Tax)
	assertAmount(t, "7.26", totals.Total)
}

func TestCalculate_EmptyCartStillCharges(t *testing.T) {
	totals := DefaultPricing().Calculate(nil)

	assertAmount(t, "0.00", totals.Subtotal)
	assertAmount(t, "5.99", totals.Shipping)
	assertAmount(t, "1.26", totals.Tax)
	assertAmount(t, "7.25", totals.Total)
}

func TestCartTotals_MarshalJSON(t *testing.T) {
	totals := DefaultPricing().Calculate([]CartLine{{Price: d("20"), Quantity: 3}})

	data, err := json.Marshal(totals)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtotal":60.00,"designFees":0.00,"shipping":0.00,"tax":12.60,"total":72.60}`, string(data))
}
