package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"floorplan-editor/internal/editor/document"
	"floorplan-editor/internal/editor/geometry"
	"floorplan-editor/internal/editor/identity"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/patch"
	"floorplan-editor/internal/editor/persistence"
	"floorplan-editor/internal/editor/session"
)

const openTimeout = 10 * time.Second

// ============================================================
// Editor Handler
// ============================================================

type EditorHandler struct {
	sessions   *session.Manager
	simplifier geometry.Simplifier
	alloc      identity.Allocator
}

func NewEditorHandler(sessions *session.Manager, simplifier geometry.Simplifier, alloc identity.Allocator) *EditorHandler {
	if alloc == nil {
		alloc = identity.UUIDAllocator
	}
	return &EditorHandler{
		sessions:   sessions,
		simplifier: simplifier,
		alloc:      alloc,
	}
}

type openRequest struct {
	FloorCode string `json:"floorCode"`
}

type stateResponse struct {
	Session  *session.Session `json:"session,omitempty"`
	Document models.Document  `json:"document"`
	History  document.History `json:"history"`
}

type editRequest struct {
	Ops []patch.Operation `json:"ops"`
}

// OpenSession загружает этаж и открывает для него сессию редактирования.
func (h *EditorHandler) OpenSession(c fiber.Ctx) error {
	var req openRequest
	if err := decode(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.FloorCode == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "floorCode required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	s, err := h.sessions.Open(ctx, req.FloorCode)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("[EDITOR] Session %s opened for floor %s", s.ID, s.FloorCode)

	return h.respondState(c.Status(http.StatusCreated), s)
}

func (h *EditorHandler) CloseSession(c fiber.Ctx) error {
	if err := h.sessions.Close(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetSession отдаёт снимок документа и состояние истории.
func (h *EditorHandler) GetSession(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return h.respondState(c, s)
}

func (h *EditorHandler) GetGraph(c fiber.Ctx) error {
	return h.read(c, func(store *document.Store) (any, error) {
		return store.Graph()
	})
}

func (h *EditorHandler) GetRooms(c fiber.Ctx) error {
	return h.read(c, func(store *document.Store) (any, error) {
		return store.Rooms()
	})
}

func (h *EditorHandler) GetHistory(c fiber.Ctx) error {
	return h.read(c, func(store *document.Store) (any, error) {
		return store.History()
	})
}

// ============================================================
// Edits
// ============================================================

// ApplyEdit применяет пакет операций одной отменяемой правкой.
func (h *EditorHandler) ApplyEdit(c fiber.Ctx) error {
	var req editRequest
	if err := decode(c, &req); err != nil {
		return writeError(c, err)
	}
	return h.mutate(c, func(_ *session.Session, store *document.Store) error {
		return store.ApplyEdit(req.Ops)
	})
}

func (h *EditorHandler) Undo(c fiber.Ctx) error {
	return h.mutate(c, func(_ *session.Session, store *document.Store) error {
		return store.Undo()
	})
}

func (h *EditorHandler) Redo(c fiber.Ctx) error {
	return h.mutate(c, func(_ *session.Session, store *document.Store) error {
		return store.Redo()
	})
}

// ReplaceGraph: массовая замена графа (например, вставка дверей). В историю не попадает.
func (h *EditorHandler) ReplaceGraph(c fiber.Ctx) error {
	var graph models.Graph
	if err := decode(c, &graph); err != nil {
		return writeError(c, err)
	}
	return h.mutate(c, func(_ *session.Session, store *document.Store) error {
		return store.ReplaceGraph(graph)
	})
}

func (h *EditorHandler) ReplaceRooms(c fiber.Ctx) error {
	var rooms models.Rooms
	if err := decode(c, &rooms); err != nil {
		return writeError(c, err)
	}
	return h.mutate(c, func(_ *session.Session, store *document.Store) error {
		return store.ReplaceRooms(rooms)
	})
}

// Notifications отдаёт ошибки фоновых сохранений с номером больше ?since.
func (h *EditorHandler) Notifications(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	since, _ := strconv.ParseInt(c.Query("since", "0"), 10, 64)
	notes := s.Saver().Notifications(since)
	if notes == nil {
		notes = []persistence.Notification{}
	}
	return c.JSON(fiber.Map{"notifications": notes})
}

// ============================================================
// Helpers
// ============================================================

func (h *EditorHandler) session(c fiber.Ctx) (*session.Session, error) {
	id := c.Params("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return s, nil
}

func (h *EditorHandler) read(c fiber.Ctx, fn func(store *document.Store) (any, error)) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var out any
	err = s.Do(func(store *document.Store) error {
		var err error
		out, err = fn(store)
		return err
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// mutate выполняет изменение под блокировкой сессии и отвечает новым состоянием.
func (h *EditorHandler) mutate(c fiber.Ctx, fn func(s *session.Session, store *document.Store) error) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}

	var resp stateResponse
	err = s.Do(func(store *document.Store) error {
		if err := fn(s, store); err != nil {
			return err
		}
		return fillState(store, &resp)
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

func (h *EditorHandler) respondState(c fiber.Ctx, s *session.Session) error {
	resp := stateResponse{Session: s}
	if err := s.Do(func(store *document.Store) error {
		return fillState(store, &resp)
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

func fillState(store *document.Store, resp *stateResponse) error {
	doc, err := store.Snapshot()
	if err != nil {
		return err
	}
	history, err := store.History()
	if err != nil {
		return err
	}
	resp.Document = doc
	resp.History = history
	return nil
}

func decode(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	return nil
}
