package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnknownDesign = errors.New("design not found")

type stubFees map[string]decimal.Decimal

func (s stubFees) DesignFee(_ context.Context, id string) (decimal.Decimal, error) {
	fee, ok := s[id]
	if !ok {
		return decimal.Zero, errUnknownDesign
	}
	return fee, nil
}

func newTestService(t *testing.T) (*Service, *RedisStorage) {
	t.Helper()
	_, client := newTestRedis(t)
	storage := NewRedisStorage(client, "ves-sport-cart", time.Hour)
	log, _ := test.NewNullLogger()
	fees := stubFees{"d1": d("4.50")}
	return NewService(storage, fees, DefaultPricing(), log), storage
}

func TestService_AddItemPersistsAndMerges(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	resp, err := svc.AddItem(ctx, "s1", shirt(1))
	require.NoError(t, err)
	assert.Equal(t, "Producto agregado al carrito", resp.Notification)

	resp, err = svc.AddItem(ctx, "s1", shirt(2))
	require.NoError(t, err)
	assert.Equal(t, "Cantidad actualizada en el carrito", resp.Notification)
	assert.Equal(t, 3, resp.ItemCount)
	assertAmount(t, "60.00", resp.Totals.Subtotal)
	assertAmount(t, "72.60", resp.Totals.Total)

	stored, err := storage.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Quantity)
}

func TestService_AddItemResolvesDesignFee(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cfg := shirt(1)
	cfg.DesignID = "d1"
	cfg.DesignFee = d("100")
	resp, err := svc.AddItem(ctx, "s1", cfg)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assertAmount(t, "4.50", resp.Items[0].DesignFee)

	cfg.DesignID = "ghost"
	_, err = svc.AddItem(ctx, "s1", cfg)
	assert.ErrorIs(t, err, errUnknownDesign)
}

func TestService_RequiresSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestService_UpdateRemoveClear(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	resp, err := svc.AddItem(ctx, "s1", shirt(1))
	require.NoError(t, err)
	id := resp.Items[0].ID

	resp, err = svc.UpdateQuantity(ctx, "s1", id, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.ItemCount)

	resp, err = svc.RemoveItem(ctx, "s1", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 4, resp.ItemCount)
	assert.Empty(t, resp.Notification)

	count, err := svc.ItemCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, svc.ClearSession(ctx, "s1"))
	stored, err := storage.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestService_FindItem(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "s1", shirt(1))
	require.NoError(t, err)

	line, err := svc.FindItem(ctx, "s1", "p1", "", "M", "")
	require.NoError(t, err)
	assert.Equal(t, "blue", line.Color)

	_, err = svc.FindItem(ctx, "s1", "p9", "", "", "")
	assert.ErrorIs(t, err, ErrLineNotFound)
}
