// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
	"github.com/ves-sport/commerce-backend/internal/domain/design"
)

const (
	// CartSessionCookie holds the cart session id for browsers
	CartSessionCookie = "session_id"
	// CartSessionHeader carries the cart session id for API clients
	CartSessionHeader = "X-Cart-Session"

	cartSessionMaxAge = 30 * 24 * 60 * 60
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// UpdateQuantityRequest is the body of PUT /cart/items/:id
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	cartResponse, err := h.cartService.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	var req cart.LineConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if req.Price.IsNegative() || req.DesignFee.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Prices cannot be negative",
		})
		return
	}

	cartResponse, err := h.cartService.AddItem(c.Request.Context(), sessionID, req)
	if err != nil {
		if errors.Is(err, design.ErrDesignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Design not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to add item to cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartResponse,
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.UpdateQuantity(c.Request.Context(), sessionID, c.Param("id"), *req.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update cart item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartResponse,
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	cartResponse, err := h.cartService.RemoveItem(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to remove cart item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartResponse,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	cartResponse, err := h.cartService.Clear(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    cartResponse,
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	count, err := h.cartService.ItemCount(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get cart count",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": count,
		},
	})
}

// FindItem handles GET /cart/item?productId=&designId=&size=&color=
func (h *CartHandler) FindItem(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	productID := c.Query("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "productId is required",
		})
		return
	}

	line, err := h.cartService.FindItem(c.Request.Context(), sessionID,
		productID, c.Query("designId"), c.Query("size"), c.Query("color"))
	if err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item not found in cart",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to look up cart item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item retrieved successfully",
		"data":    line,
	})
}

// getOrCreateSessionID reads the cart session from the header or cookie, or
// starts a new one
func getOrCreateSessionID(c *gin.Context) string {
	if sessionID := cartSessionID(c); sessionID != "" {
		return sessionID
	}

	sessionID := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CartSessionCookie, sessionID, cartSessionMaxAge, "/", "", false, true)
	c.Header(CartSessionHeader, sessionID)
	return sessionID
}

// cartSessionID returns the caller's cart session without creating one
func cartSessionID(c *gin.Context) string {
	if sessionID := c.GetHeader(CartSessionHeader); sessionID != "" {
		return sessionID
	}
	if sessionID, err := c.Cookie(CartSessionCookie); err == nil {
		return sessionID
	}
	return ""
}
