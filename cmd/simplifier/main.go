package main

import (
	"fmt"
	"log"
	"time"

	"floorplan-editor/internal/common/config"
	"floorplan-editor/internal/common/handlers"
	"floorplan-editor/internal/common/middleware"
	"floorplan-editor/internal/simplifier"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Simplifier Service
// ============================================================

func main() {
	cfg := config.LoadService("3001")

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Simplifier Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("simplifier"))

	// ============================================================
	// Health Check Routes
	// ============================================================

	handlers.RegisterProbes(app, nil)

	// ============================================================
	// Simplifier Routes
	// ============================================================

	h := simplifier.NewHandler(cfg.Simplifier.Tolerance)
	app.Post("/simplify-polygon", h.SimplifyPolygon)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Simplifier Service on %s (env: %s, tolerance: %g)", addr, cfg.Environment, cfg.Simplifier.Tolerance)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
