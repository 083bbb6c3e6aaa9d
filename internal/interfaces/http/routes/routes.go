// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ves-sport/commerce-backend/internal/config"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/handlers"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler the API exposes
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Webhook  *handlers.WebhookHandler
	Order    *handlers.OrderHandler
	Design   *handlers.DesignHandler
	Contact  *handlers.ContactHandler
}

// SetupCartRoutes sets up the server-side cart routes. Carts are keyed by the
// cart session, so authentication is optional.
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler, cfg *config.Config) {
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", h.GetCart)
		cart.DELETE("", h.ClearCart)
		cart.GET("/count", h.GetCartCount)
		cart.GET("/item", h.FindItem)
		cart.POST("/items", h.AddToCart)
		cart.PUT("/items/:id", h.UpdateCartItem)
		cart.DELETE("/items/:id", h.RemoveFromCart)
	}
}

// SetupCheckoutRoutes sets up hosted checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h *handlers.CheckoutHandler, cfg *config.Config) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(cfg))
	{
		checkout.POST("/session", h.CreateSession)
		checkout.GET("/session/:id", h.GetSession)
	}
}

// SetupWebhookRoutes sets up payment provider webhooks. Deliveries authenticate
// with their signature, never with a bearer token.
func SetupWebhookRoutes(rg *gin.RouterGroup, h *handlers.WebhookHandler) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/stripe", h.StripeWebhook)
	}
}

// SetupOrderRoutes sets up customer order routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler, cfg *config.Config) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", h.GetOrders)
		orders.GET("/:number", h.GetOrder)
	}
}

// SetupDesignRoutes sets up public design routes
func SetupDesignRoutes(rg *gin.RouterGroup, h *handlers.DesignHandler) {
	designs := rg.Group("/designs")
	{
		designs.GET("/:id", h.GetDesign)
	}
}

// SetupContactRoutes sets up the contact form. It accepts image uploads, so it
// carries its own body limit.
func SetupContactRoutes(rg *gin.RouterGroup, h *handlers.ContactHandler, cfg *config.Config) {
	maxBody := cfg.Storage.MaxUploadBytes*int64(cfg.Storage.MaxImages) + 1<<20
	contact := rg.Group("/contact")
	contact.Use(middleware.RequestSizeLimit(maxBody))
	contact.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		contact.POST("", h.Submit)
	}
}

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		orders := admin.Group("/orders")
		{
			orders.GET("", h.Order.AdminGetOrders)
			orders.GET("/:number", h.Order.AdminGetOrder)
			orders.PUT("/:number/status", h.Order.AdminUpdateOrderStatus)
			orders.POST("/:number/refund", h.Order.AdminRefundOrder)
		}
		admin.GET("/contact-messages", h.Contact.AdminGetMessages)
	}
}

// SetupRoutes sets up all API routes. Everything except the contact form is
// JSON and shares the default body limit.
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	api := rg.Group("", middleware.RequestSizeLimit(cfg.Server.MaxRequestBytes))
	SetupCartRoutes(api, h.Cart, cfg)
	SetupCheckoutRoutes(api, h.Checkout, cfg)
	SetupWebhookRoutes(api, h.Webhook)
	SetupOrderRoutes(api, h.Order, cfg)
	SetupDesignRoutes(api, h.Design)
	SetupAdminRoutes(api, h, cfg)
	SetupContactRoutes(rg, h.Contact, cfg)
}
