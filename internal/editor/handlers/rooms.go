package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"floorplan-editor/internal/editor/document"
	"floorplan-editor/internal/editor/identity"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/session"
)

// ============================================================
// Room Handlers
// ============================================================

type createRoomRequest struct {
	NodeID models.ID `json:"nodeId"`
}

type roomResponse struct {
	RoomID models.ID `json:"roomId"`
	stateResponse
}

// SaveRoom сохраняет поля комнаты. Если из нового имени получается другой RoomID,
// переименование каскадом переносит roomId всех узлов комнаты; всё это одна правка.
func (h *EditorHandler) SaveRoom(c fiber.Ctx) error {
	var info models.RoomInfo
	if err := decode(c, &info); err != nil {
		return writeError(c, err)
	}
	oldID := c.Params("roomId")

	var newID models.ID
	return h.roomMutation(c, &newID, func(s *session.Session, store *document.Store) error {
		doc, err := store.Snapshot()
		if err != nil {
			return err
		}
		ops, id, err := identity.RenameBatch(doc, s.FloorCode, oldID, info)
		if err != nil {
			return err
		}
		if err := store.ApplyEdit(ops); err != nil {
			return err
		}
		newID = id
		return nil
	})
}

// CreateRoom заводит новую комнату для узла без комнаты.
func (h *EditorHandler) CreateRoom(c fiber.Ctx) error {
	var req createRoomRequest
	if err := decode(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.NodeID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "nodeId required"})
	}

	var roomID models.ID
	return h.roomMutation(c.Status(http.StatusCreated), &roomID, func(_ *session.Session, store *document.Store) error {
		doc, err := store.Snapshot()
		if err != nil {
			return err
		}
		ops, id, err := identity.CreateRoomBatch(doc, req.NodeID, h.alloc)
		if err != nil {
			return err
		}
		if err := store.ApplyEdit(ops); err != nil {
			return err
		}
		roomID = id
		return nil
	})
}

// LookupRoom ищет комнату по имени (?name=) и возвращает её ID и первый узел.
func (h *EditorHandler) LookupRoom(c fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}

	return h.read(c, func(store *document.Store) (any, error) {
		doc, err := store.Snapshot()
		if err != nil {
			return nil, err
		}
		roomID, ok := identity.RoomIDByName(doc.Rooms, name)
		if !ok {
			return nil, fmt.Errorf("%w: name %q", identity.ErrRoomNotFound, name)
		}
		nodeID, _ := identity.NodeIDByRoomID(doc.Graph, roomID)
		return fiber.Map{
			"roomId":     roomID,
			"nodeId":     nodeID,
			"floorLevel": identity.FloorLevel(doc.Rooms[roomID].Name),
		}, nil
	})
}

// RoomTypes отдаёт список допустимых типов комнат.
func (h *EditorHandler) RoomTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"types": identity.RoomTypes})
}

func (h *EditorHandler) roomMutation(c fiber.Ctx, roomID *models.ID, fn func(s *session.Session, store *document.Store) error) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var resp roomResponse
	err = s.Do(func(store *document.Store) error {
		if err := fn(s, store); err != nil {
			return err
		}
		return fillState(store, &resp.stateResponse)
	})
	if err != nil {
		return writeError(c, err)
	}
	resp.RoomID = *roomID
	return c.JSON(resp)
}
