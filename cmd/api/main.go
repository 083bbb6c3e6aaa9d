// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ves-sport/commerce-backend/internal/config"
	"github.com/ves-sport/commerce-backend/internal/domain/cart"
	"github.com/ves-sport/commerce-backend/internal/domain/checkout"
	"github.com/ves-sport/commerce-backend/internal/domain/contact"
	"github.com/ves-sport/commerce-backend/internal/domain/design"
	"github.com/ves-sport/commerce-backend/internal/domain/order"
	"github.com/ves-sport/commerce-backend/internal/domain/payment"
	"github.com/ves-sport/commerce-backend/internal/domain/upload"
	"github.com/ves-sport/commerce-backend/internal/infrastructure/database/postgres"
	"github.com/ves-sport/commerce-backend/internal/infrastructure/database/redis"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/handlers"
	"github.com/ves-sport/commerce-backend/internal/interfaces/http/routes"
	"github.com/ves-sport/commerce-backend/internal/pkg/email"
	"github.com/ves-sport/commerce-backend/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(config.LoggingConfig{Level: "info", Format: "json"}).
			WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting service")

	// Money travels as JSON numbers to the storefront
	decimal.MarshalJSONWithoutQuotes = true

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	migration.CreateIndexes()
	if cfg.IsDevelopment() {
		if err := migration.GetTableInfo(); err != nil {
			log.WithError(err).Warn("Failed to read table info")
		}
	}

	pricing := cart.PricingFromConfig(cfg.Pricing)

	designService := design.NewService(db.GetDB())
	cartStorage := cart.NewRedisStorage(redisClient.GetClient(), cfg.Cart.StorageNamespace, cfg.Cart.TTL)
	cartService := cart.NewService(cartStorage, designService, pricing, log)

	stripeService := payment.NewStripeService(cfg.Stripe)
	snapshots := payment.NewRedisSnapshotStore(redisClient.GetClient(), cfg.Cart.SnapshotTTL)
	orderService := order.NewService(db.GetDB(), stripeService, log)
	checkoutService := checkout.NewService(stripeService, snapshots, orderService, designService, cfg, log)
	reconciler := payment.NewReconciler(payment.NewGormStore(db.GetDB()), snapshots, cartService, pricing, log)

	store, err := upload.NewStore(context.Background(), cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise upload storage")
	}
	uploadService := upload.NewService(db.GetDB(), store, cfg.Storage.MaxUploadBytes, log)

	var notifier contact.Notifier
	if cfg.Email.Provider != "" {
		notifier = email.NewEmailService(cfg.Email, log)
	} else {
		log.Warn("Email provider not configured, contact notifications disabled")
	}
	contactService := contact.NewService(db.GetDB(), uploadService, notifier, cfg.Storage.MaxImages, log)

	server := http.NewServer(cfg, &routes.Handlers{
		Cart:     handlers.NewCartHandler(cartService),
		Checkout: handlers.NewCheckoutHandler(checkoutService, log),
		Webhook:  handlers.NewWebhookHandler(stripeService, reconciler, log),
		Order:    handlers.NewOrderHandler(orderService, log),
		Design:   handlers.NewDesignHandler(designService),
		Contact:  handlers.NewContactHandler(contactService, log),
	}, redisClient.GetClient(), map[string]http.HealthChecker{
		"database": db,
		"redis":    redisClient,
	}, log)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
