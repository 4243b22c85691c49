package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Routes
// ============================================================

func Register(app *fiber.App, h *EditorHandler) {
	app.Get("/room-types", h.RoomTypes)
	app.Post("/geometry/distance", h.Distance)

	app.Post("/sessions", h.OpenSession)
	app.Get("/sessions/:id", h.GetSession)
	app.Delete("/sessions/:id", h.CloseSession)

	s := app.Group("/sessions/:id")
	s.Get("/graph", h.GetGraph)
	s.Put("/graph", h.ReplaceGraph)
	s.Get("/rooms", h.GetRooms)
	s.Put("/rooms", h.ReplaceRooms)
	s.Get("/history", h.GetHistory)
	s.Get("/notifications", h.Notifications)

	// История правок
	s.Post("/edits", h.ApplyEdit)
	s.Post("/undo", h.Undo)
	s.Post("/redo", h.Redo)

	// Комнаты
	s.Post("/rooms", h.CreateRoom)
	s.Get("/rooms/lookup", h.LookupRoom)
	s.Put("/rooms/:roomId", h.SaveRoom)

	// Контур комнаты
	s.Delete("/rooms/:roomId/polygon", h.ClearPolygon)
	s.Post("/rooms/:roomId/polygon/holes", h.AddHole)
	s.Delete("/rooms/:roomId/polygon/holes/:ring", h.DeleteHole)
	s.Post("/rooms/:roomId/polygon/vertices", h.InsertVertex)
	s.Post("/rooms/:roomId/polygon/vertices/delete", h.DeleteVertex)
	s.Post("/rooms/:roomId/polygon/trace", h.TracePolygon)
	s.Post("/rooms/:roomId/polygon/simplify", h.SimplifyPolygon)
}
