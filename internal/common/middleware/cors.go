package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS разрешает указанные источники; пустой список или "*" разрешают все (dev).
func CORS(origins string) fiber.Handler {
	allow := []string{"*"}
	if origins != "" && origins != "*" {
		allow = strings.Split(origins, ",")
		for i := range allow {
			allow[i] = strings.TrimSpace(allow[i])
		}
	}
	return cors.New(cors.Config{
		AllowOrigins: allow,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Session-ID"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	})
}
