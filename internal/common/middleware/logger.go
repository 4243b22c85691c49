package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger возвращает middleware для логирования запросов с именем сервиса в префиксе.
func Logger(service string) fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] [" + service + "] ${status} - ${latency} ${method} ${path} | session: ${reqHeader:X-Session-ID}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
