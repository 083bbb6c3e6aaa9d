// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/ves-sport/commerce-backend/internal/domain/checkout"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	logger          logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, logger logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// CreateSession handles POST /checkout/session
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	var req checkout.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	customer := checkout.Customer{
		UserID:        userID,
		Email:         email,
		CartSessionID: cartSessionID(c),
	}

	resp, err := h.checkoutService.CreateSession(c.Request.Context(), customer, &req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "No items provided",
			})
		case errors.Is(err, checkout.ErrInvalidItem):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		default:
			h.logger.WithError(err).WithField("user_id", userID).Error("Failed to create checkout session")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create checkout session",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSession handles GET /checkout/session/:id
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}

	status, err := h.checkoutService.GetSessionStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Checkout session not found",
			})
			return
		}
		h.logger.WithError(err).WithField("session_id", c.Param("id")).Error("Failed to retrieve checkout session")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve checkout session",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout session retrieved successfully",
		"data":    status,
	})
}
