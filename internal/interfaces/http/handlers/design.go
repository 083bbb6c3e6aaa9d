// internal/interfaces/http/handlers/design.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ves-sport/commerce-backend/internal/domain/design"
)

// DesignHandler exposes design pricing to the storefront
type DesignHandler struct {
	designService *design.Service
}

// NewDesignHandler creates a new design handler
func NewDesignHandler(designService *design.Service) *DesignHandler {
	return &DesignHandler{designService: designService}
}

// GetDesign handles GET /designs/:id
func (h *DesignHandler) GetDesign(c *gin.Context) {
	d, err := h.designService.GetAvailableDesign(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, design.ErrDesignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Design not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve design",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Design retrieved successfully",
		"data": gin.H{
			"design":     d,
			"currentFee": d.CurrentFee().StringFixed(2),
			"isFree":     d.IsFree(),
		},
	})
}
