package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"floorplan-editor/internal/editor/document"
	"floorplan-editor/internal/editor/geometry"
	"floorplan-editor/internal/editor/identity"
	"floorplan-editor/internal/editor/metrics"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/patch"
)

const simplifyTimeout = 30 * time.Second

// ============================================================
// Polygon Handlers
// ============================================================

type vertexRequest struct {
	Ring  int          `json:"ring"`
	Point models.Point `json:"point"`
}

type polygonResponse struct {
	ActiveRing int `json:"activeRing"`
	stateResponse
}

type traceRequest struct {
	Path string `json:"path"`
}

type distanceRequest struct {
	P models.Point `json:"p"`
	A models.Point `json:"a"`
	B models.Point `json:"b"`
}

// AddHole добавляет пустое отверстие; новые вершины пойдут в него.
func (h *EditorHandler) AddHole(c fiber.Ctx) error {
	return h.polygonEdit(c, func(poly models.Polygon) (models.Polygon, int, error) {
		out, active := geometry.AddHole(poly)
		return out, active, nil
	})
}

func (h *EditorHandler) DeleteHole(c fiber.Ctx) error {
	ring, err := strconv.Atoi(c.Params("ring"))
	if err != nil {
		return writeError(c, fmt.Errorf("%w: ring must be an integer", errBadRequest))
	}
	return h.polygonEdit(c, func(poly models.Polygon) (models.Polygon, int, error) {
		return geometry.DeleteHole(poly, ring)
	})
}

// InsertVertex вставляет точку в кольцо на ближайшее ребро.
func (h *EditorHandler) InsertVertex(c fiber.Ctx) error {
	var req vertexRequest
	if err := decode(c, &req); err != nil {
		return writeError(c, err)
	}
	return h.polygonEdit(c, func(poly models.Polygon) (models.Polygon, int, error) {
		out, err := geometry.InsertVertex(poly, req.Ring, req.Point.Orb())
		return out, req.Ring, err
	})
}

func (h *EditorHandler) DeleteVertex(c fiber.Ctx) error {
	var req vertexRequest
	if err := decode(c, &req); err != nil {
		return writeError(c, err)
	}
	return h.polygonEdit(c, func(poly models.Polygon) (models.Polygon, int, error) {
		out, err := geometry.DeleteVertex(poly, req.Ring, req.Point.Orb())
		return out, req.Ring, err
	})
}

// ClearPolygon стирает контур комнаты.
func (h *EditorHandler) ClearPolygon(c fiber.Ctx) error {
	return h.polygonEdit(c, func(models.Polygon) (models.Polygon, int, error) {
		return geometry.ClearPolygon(), 0, nil
	})
}

// TracePolygon заменяет контур комнаты контуром из SVG path (атрибут d) подложки плана.
func (h *EditorHandler) TracePolygon(c fiber.Ctx) error {
	var req traceRequest
	if err := decode(c, &req); err != nil {
		return writeError(c, err)
	}
	traced, err := geometry.PolygonFromPath(req.Path)
	if err != nil {
		return writeError(c, err)
	}
	return h.polygonEdit(c, func(models.Polygon) (models.Polygon, int, error) {
		return traced, 0, nil
	})
}

// SimplifyPolygon отправляет контур во внешний сервис. Сессия не блокируется на время
// запроса; результат применяется, только если контур за это время не изменился.
func (h *EditorHandler) SimplifyPolygon(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	roomID := c.Params("roomId")

	var current models.Polygon
	err = s.Do(func(store *document.Store) error {
		current, err = roomPolygon(store, roomID)
		return err
	})
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), simplifyTimeout)
	defer cancel()

	simplified, err := geometry.SimplifyPolygon(ctx, h.simplifier, current)
	if err != nil {
		metrics.SimplifyTotal.WithLabelValues("error").Inc()
		return writeError(c, err)
	}
	metrics.SimplifyTotal.WithLabelValues("ok").Inc()

	path := patch.Join(models.RootRooms, roomID, "polygon")
	var resp polygonResponse
	err = s.Do(func(store *document.Store) error {
		err := store.ApplyEdit([]patch.Operation{
			patch.NewTest(path, current),
			patch.NewReplace(path, simplified),
		})
		if err != nil {
			return err
		}
		return fillState(store, &resp.stateResponse)
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// Distance: расстояние от точки до отрезка, для подсветки ближайшего ребра в UI.
func (h *EditorHandler) Distance(c fiber.Ctx) error {
	var req distanceRequest
	if err := decode(c, &req); err != nil {
		return writeError(c, err)
	}
	d := geometry.DistancePointToSegment(req.P.Orb(), req.A.Orb(), req.B.Orb())
	return c.JSON(fiber.Map{"distance": d})
}

// polygonEdit считает новый контур чистой функцией и коммитит его одной заменой.
func (h *EditorHandler) polygonEdit(c fiber.Ctx, fn func(poly models.Polygon) (models.Polygon, int, error)) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	roomID := c.Params("roomId")

	var resp polygonResponse
	err = s.Do(func(store *document.Store) error {
		poly, err := roomPolygon(store, roomID)
		if err != nil {
			return err
		}
		next, active, err := fn(poly)
		if err != nil {
			return err
		}
		if err := store.ApplyEdit([]patch.Operation{
			patch.NewReplace(patch.Join(models.RootRooms, roomID, "polygon"), next),
		}); err != nil {
			return err
		}
		resp.ActiveRing = active
		return fillState(store, &resp.stateResponse)
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

func roomPolygon(store *document.Store, roomID models.ID) (models.Polygon, error) {
	rooms, err := store.Rooms()
	if err != nil {
		return models.Polygon{}, err
	}
	room, ok := rooms[roomID]
	if !ok {
		return models.Polygon{}, fmt.Errorf("%w: %q", identity.ErrRoomNotFound, roomID)
	}
	return room.Polygon, nil
}
