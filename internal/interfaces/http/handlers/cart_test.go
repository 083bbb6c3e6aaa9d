package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
)

func newCartRouter(t *testing.T) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log, _ := test.NewNullLogger()
	storage := cart.NewRedisStorage(client, "ves-sport-cart", time.Hour)
	h := NewCartHandler(cart.NewService(storage, nil, cart.DefaultPricing(), log))

	r := gin.New()
	r.GET("/cart", h.GetCart)
	r.DELETE("/cart", h.ClearCart)
	r.GET("/cart/count", h.GetCartCount)
	r.GET("/cart/item", h.FindItem)
	r.POST("/cart/items", h.AddToCart)
	r.PUT("/cart/items/:id", h.UpdateCartItem)
	r.DELETE("/cart/items/:id", h.RemoveFromCart)
	return r
}

func TestCartHandler_IssuesSession(t *testing.T) {
	r := newCartRouter(t)

	w := doJSON(r, http.MethodGet, "/cart", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := w.Header().Get(CartSessionHeader)
	assert.NotEmpty(t, sessionID)
	assert.Contains(t, w.Header().Get("Set-Cookie"), CartSessionCookie+"="+sessionID)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, sessionID, data["sessionId"])
	assert.Equal(t, float64(0), data["itemCount"])
}

func TestCartHandler_AddMergeUpdateRemove(t *testing.T) {
	r := newCartRouter(t)
	session := map[string]string{CartSessionHeader: "cart-abc"}
	item := map[string]interface{}{
		"productId": "p1",
		"name":      "Camiseta",
		"price":     "20",
		"size":      "M",
		"color":     "blue",
		"quantity":  2,
	}

	w := doJSON(r, http.MethodPost, "/cart/items", item, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Producto agregado al carrito", data["notification"])

	item["quantity"] = 1
	w = doJSON(r, http.MethodPost, "/cart/items", item, session)
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Cantidad actualizada en el carrito", data["notification"])
	assert.Equal(t, float64(3), data["itemCount"])
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	lineID := items[0].(map[string]interface{})["id"].(string)

	totals := data["totals"].(map[string]interface{})
	assert.Equal(t, 72.6, totals["total"])

	w = doJSON(r, http.MethodGet, "/cart/item?productId=p1&size=M", nil, session)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/cart/item?productId=p1&designId=d9", nil, session)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, "/cart/items/"+lineID, map[string]int{"quantity": 5}, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), decode(t, w)["data"].(map[string]interface{})["itemCount"])

	w = doJSON(r, http.MethodGet, "/cart/count", nil, session)
	assert.Equal(t, float64(5), decode(t, w)["data"].(map[string]interface{})["count"])

	w = doJSON(r, http.MethodPut, "/cart/items/"+lineID, map[string]int{"quantity": 0}, session)
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Producto eliminado del carrito", data["notification"])
	assert.Empty(t, data["items"])
}

func TestCartHandler_Validation(t *testing.T) {
	r := newCartRouter(t)
	session := map[string]string{CartSessionHeader: "cart-abc"}

	w := doJSON(r, http.MethodPost, "/cart/items", map[string]interface{}{"productId": "p1", "name": "X", "quantity": 0}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/cart/items", map[string]interface{}{"productId": "p1", "name": "X", "price": "-1", "quantity": 1}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/cart/items/x", map[string]interface{}{}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/cart/item", nil, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartHandler_Clear(t *testing.T) {
	r := newCartRouter(t)
	session := map[string]string{CartSessionHeader: "cart-abc"}

	doJSON(r, http.MethodPost, "/cart/items", map[string]interface{}{"productId": "p1", "name": "X", "price": "10", "quantity": 1}, session)
	w := doJSON(r, http.MethodDelete, "/cart", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Carrito vaciado", data["notification"])
	assert.Equal(t, float64(0), data["itemCount"])
}
