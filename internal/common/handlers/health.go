package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Check: проверка готовности зависимости (БД, внешний сервис).
type Check func() error

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe проверяет готовность приложения обрабатывать запросы
func ReadinessProbe(checks map[string]Check) fiber.Handler {
	return func(c fiber.Ctx) error {
		failed := fiber.Map{}
		for name, check := range checks {
			if err := check(); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": failed,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

// RegisterProbes вешает health-пробы и /metrics.
func RegisterProbes(app *fiber.App, checks map[string]Check) {
	app.Get("/health/live", LivenessProbe)
	app.Get("/health/ready", ReadinessProbe(checks))
	app.Get("/health/startup", StartupProbe)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
