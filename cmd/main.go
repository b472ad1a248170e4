package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/boutique-commerce/backoffice/config"
	"github.com/boutique-commerce/backoffice/internal/handlers"
	"github.com/boutique-commerce/backoffice/internal/messaging"
	"github.com/boutique-commerce/backoffice/internal/repository"
	"github.com/boutique-commerce/backoffice/internal/service"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.LogLevel)
	log.Info().Str("app", cfg.AppName).Msg("Starting")

	db, err := repository.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Str("database", cfg.DBName).Msg("Database connected")

	store := repository.NewStore(db)

	events, closeEvents := setupEvents(cfg)
	defer closeEvents()

	ledger := service.NewStockLedger(store, events)
	workflow := service.NewOrderWorkflow(store, ledger, events, cfg.Currency)
	catalog := service.NewCatalogService(store, ledger)
	coupons := service.NewCouponService(store)
	customers := service.NewCustomerService(store)

	app := setupFiberApp(cfg)
	setupRoutes(app,
		handlers.NewOrderHandler(workflow),
		handlers.NewProductHandler(catalog),
		handlers.NewCouponHandler(coupons),
		handlers.NewCustomerHandler(customers, workflow),
	)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
}

// setupEvents wires the RabbitMQ publisher when event publishing is enabled.
// A broker outage at startup is not fatal; the services fall back to a no-op
// publisher so order processing keeps working.
func setupEvents(cfg config.Config) (service.EventPublisher, func()) {
	if !cfg.EventsEnabled {
		return service.NopPublisher{}, func() {}
	}

	client := messaging.NewRabbitMQClient(&messaging.RabbitMQConfig{
		Host:     cfg.RabbitMQHost,
		Port:     cfg.RabbitMQPort,
		Username: cfg.RabbitMQUser,
		Password: cfg.RabbitMQPassword,
		VHost:    cfg.RabbitMQVHost,
		Exchange: cfg.RabbitMQExchange,
	})
	if err := client.Connect(); err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
		return service.NopPublisher{}, func() {}
	}
	return messaging.NewPublisher(client), func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("RabbitMQ close error")
		}
	}
}

func setupFiberApp(cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func setupRoutes(app *fiber.App, orders *handlers.OrderHandler, products *handlers.ProductHandler, coupons *handlers.CouponHandler, customers *handlers.CustomerHandler) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	productGroup := api.Group("/products")
	productGroup.Post("/", products.Create)
	productGroup.Get("/", products.List)
	productGroup.Get("/:id", products.GetByID)
	productGroup.Put("/:id", products.Update)
	productGroup.Delete("/:id", products.Deactivate)
	productGroup.Put("/:id/stock", products.AdjustStock)
	productGroup.Get("/:id/inventory", products.InventoryHistory)

	orderGroup := api.Group("/orders")
	orderGroup.Post("/", orders.Create)
	orderGroup.Get("/", orders.List)
	orderGroup.Get("/:id", orders.GetByID)
	orderGroup.Put("/:id", orders.Update)
	orderGroup.Delete("/:id", orders.Cancel)

	couponGroup := api.Group("/coupons")
	couponGroup.Post("/", coupons.Create)
	couponGroup.Get("/", coupons.List)
	couponGroup.Post("/validate", coupons.Validate)
	couponGroup.Get("/:id", coupons.GetByID)
	couponGroup.Put("/:id", coupons.Update)

	customerGroup := api.Group("/customers")
	customerGroup.Post("/", customers.Create)
	customerGroup.Get("/", customers.List)
	customerGroup.Get("/:id", customers.GetByID)
	customerGroup.Put("/:id", customers.Update)
	customerGroup.Get("/:id/orders", customers.Orders)

	app.Use("*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found",
		})
	})
}
