package simplifier

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v3"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Simplify Handler
// ============================================================

type Handler struct {
	tolerance float64
}

func NewHandler(tolerance float64) *Handler {
	return &Handler{tolerance: tolerance}
}

type simplifyRequest struct {
	Polygon   *models.Polygon `json:"polygon"`
	Tolerance *float64        `json:"tolerance,omitempty"`
}

type simplifyResponse struct {
	Polygon models.Polygon `json:"polygon"`
}

// SimplifyPolygon упрощает контур комнаты: {polygon, tolerance?} -> {polygon}
func (h *Handler) SimplifyPolygon(c fiber.Ctx) error {
	log.Printf("[SIMPLIFIER] Received request, Content-Length: %d", len(c.Body()))

	if len(c.Body()) == 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "body required",
		})
	}

	var req simplifyRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Printf("[SIMPLIFIER] Decode error: %v", err)
		return c.Status(400).JSON(fiber.Map{
			"error": "invalid JSON payload",
		})
	}
	if req.Polygon == nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "polygon required",
		})
	}
	if req.Polygon.Type != "" && req.Polygon.Type != models.PolygonType {
		return c.Status(422).JSON(fiber.Map{
			"error": "unsupported geometry type " + req.Polygon.Type,
		})
	}

	tolerance := h.tolerance
	if req.Tolerance != nil {
		if *req.Tolerance < 0 {
			return c.Status(400).JSON(fiber.Map{
				"error": "tolerance must not be negative",
			})
		}
		tolerance = *req.Tolerance
	}

	out := Simplify(*req.Polygon, tolerance)
	log.Printf("[SIMPLIFIER] Rings: %d, vertices: %d -> %d",
		len(out.Coordinates), VertexCount(*req.Polygon), VertexCount(out))

	return c.JSON(simplifyResponse{Polygon: out})
}
