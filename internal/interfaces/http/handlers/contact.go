// internal/interfaces/http/handlers/contact.go
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/ves-sport/commerce-backend/internal/domain/contact"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/middleware"
)

// imageFieldPrefix marks the multipart fields that carry contact images
const imageFieldPrefix = "image_"

// ContactHandler handles the storefront contact form
type ContactHandler struct {
	contactService *contact.Service
	logger         logrus.FieldLogger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *contact.Service, logger logrus.FieldLogger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// Submit handles POST /contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contact.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid contact form",
			"details": err.Error(),
		})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	msg, err := h.contactService.Submit(c.Request.Context(), userID, req, formImages(c.Request.MultipartForm))
	if err != nil {
		if errors.Is(err, contact.ErrTooManyImages) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.logger.WithError(err).Error("Failed to save contact message")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error saving message",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message sent successfully",
		"data": gin.H{
			"id":     msg.ID,
			"images": len(msg.Images),
		},
	})
}

// AdminGetMessages handles GET /admin/contact-messages
func (h *ContactHandler) AdminGetMessages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.contactService.ListMessages(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to retrieve contact messages")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve contact messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contact messages retrieved successfully",
		"data":    response,
	})
}

// formImages collects the image_* files in field name order
func formImages(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}

	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		if strings.HasPrefix(key, imageFieldPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var images []*multipart.FileHeader
	for _, key := range keys {
		images = append(images, form.File[key]...)
	}
	return images
}
