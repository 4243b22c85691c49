package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"floorplan-editor/internal/common/config"
	commonhandlers "floorplan-editor/internal/common/handlers"
	"floorplan-editor/internal/common/middleware"
	"floorplan-editor/internal/editor/geometry"
	"floorplan-editor/internal/editor/handlers"
	"floorplan-editor/internal/editor/identity"
	"floorplan-editor/internal/editor/persistence"
	"floorplan-editor/internal/editor/session"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Editor Service
// ============================================================

func main() {
	cfg := config.LoadService("3002")

	checks := map[string]commonhandlers.Check{}

	var gw persistence.Gateway
	switch cfg.Editor.Storage {
	case "file":
		gw = persistence.NewFileStore(cfg.Editor.DataDir)
		log.Printf("[EDITOR] Using file storage in %s", cfg.Editor.DataDir)
	default:
		db, err := persistence.OpenSQLite(cfg.Editor.DBPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()

		store := persistence.NewSQLiteStore(db)
		if err := store.Init(context.Background()); err != nil {
			log.Fatalf("init db: %v", err)
		}
		gw = store
		checks["db"] = pingCheck(db)
		log.Printf("[EDITOR] Using sqlite storage at %s", cfg.Editor.DBPath)
	}

	sessions := session.NewManager(gw, cfg.SaveTimeout())
	simplifier := geometry.NewHTTPSimplifier(cfg.Simplifier.URL, cfg.SimplifierTimeout())
	editorHandler := handlers.NewEditorHandler(sessions, simplifier, identity.UUIDAllocator)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Editor Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(middleware.Logger("editor"))

	// ============================================================
	// Health Check Routes
	// ============================================================

	commonhandlers.RegisterProbes(app, checks)

	// ============================================================
	// Editor Routes
	// ============================================================

	handlers.Register(app, editorHandler)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Editor Service on %s (env: %s)", addr, cfg.Environment)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		if err != nil {
			log.Printf("Failed to start server: %v", err)
		}
	case <-stop:
		log.Printf("[EDITOR] Shutting down, %d open sessions", sessions.Len())
		if err := app.Shutdown(); err != nil {
			log.Printf("[EDITOR] shutdown: %v", err)
		}
	}

	// CloseAll ждёт фоновые сохранения
	sessions.CloseAll()
}

func pingCheck(db *sql.DB) commonhandlers.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}
}
