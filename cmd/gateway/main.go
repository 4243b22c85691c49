package main

import (
	"fmt"
	"log"
	"time"

	"floorplan-editor/internal/common/config"
	"floorplan-editor/internal/common/handlers"
	"floorplan-editor/internal/common/middleware"
	"floorplan-editor/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "API Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(middleware.Logger("gateway"))

	// ============================================================
	// Health Check Routes
	// ============================================================

	handlers.RegisterProbes(app, nil)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Floor Plan Editor API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	p := proxy.New(cfg.ProxyTimeout())

	// Editor Service
	api.All("/editor/*", p.Prefix(cfg.Gateway.EditorURL, "/api/v1/editor"))

	// Simplifier Service
	api.Post("/simplify-polygon", p.To(cfg.Simplifier.URL+"/simplify-polygon"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying /editor to %s, /simplify-polygon to %s", cfg.Gateway.EditorURL, cfg.Simplifier.URL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
