package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/zeldalab/zelda/internal/config"
	"github.com/zeldalab/zelda/internal/handlers"
	"github.com/zeldalab/zelda/internal/middleware"
	"github.com/zeldalab/zelda/internal/store"

	_ "github.com/zeldalab/zelda/docs/api" // Swagger docs
)

// @title Zelda Run Registry API
// @version 1.0.0
// @description Test-result tracking service over a document store

// @license.name MIT

// @host localhost:12321
// @BasePath /zelda
// @schemes http

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the document store
	sess, err := store.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}
	defer store.Close(sess)

	// Create database, tables and indexes if missing
	if err := store.EnsureDatabase(sess, cfg.DBName); err != nil {
		log.Fatalf("Failed to ensure database: %v", err)
	}
	if err := store.EnsureTables(sess); err != nil {
		log.Fatalf("Failed to ensure tables: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(cors.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("zelda")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health probe
	healthHandler := &handlers.HealthHandler{Cfg: cfg, DB: sess}
	app.Get("/healthz", healthHandler.Healthz)

	// API routes under /zelda
	zelda := app.Group("/zelda")

	// Version middleware
	zelda.Use(middleware.VersionMiddleware())

	// Create handlers
	runHandler := &handlers.RunHandler{DB: sess}
	productHandler := &handlers.ProductHandler{DB: sess}
	caseHandler := &handlers.CaseHandler{DB: sess}

	// Run routes
	zelda.Put("/runs/:run_name", runHandler.SubmitRun)
	zelda.Get("/runs/:run_name", runHandler.GetRun)
	zelda.Delete("/runs/:run_name", runHandler.DeleteRun)

	// Product routes
	zelda.Get("/products", productHandler.ListProducts)
	zelda.Get("/products/:product_name", productHandler.GetProduct)
	zelda.Get("/products/:product_name/runs/summaries", productHandler.ListSummaries)

	// Case routes
	zelda.Delete("/runs/:run_name/cases/:case_id", caseHandler.DeleteCase)
	zelda.Post("/runs/:run_name/cases/:case_id/update", caseHandler.UpdateCase)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}
