package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"floorplan-editor/internal/editor/document"
	"floorplan-editor/internal/editor/geometry"
	"floorplan-editor/internal/editor/identity"
	"floorplan-editor/internal/editor/patch"
	"floorplan-editor/internal/editor/session"
)

// ============================================================
// Error mapping
// ============================================================

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	var (
		noop     *patch.NoOpError
		applyErr *patch.ApplyError
		conflict *identity.IdentityConflictError
	)

	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound), errors.Is(err, document.ErrClosed):
		return http.StatusNotFound
	case errors.As(err, &noop), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &applyErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, geometry.ErrSimplifyFailed):
		return http.StatusBadGateway
	case errors.Is(err, identity.ErrRoomNotFound), errors.Is(err, identity.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrNodeHasRoom):
		return http.StatusConflict
	case errors.Is(err, identity.ErrRoomType),
		errors.Is(err, geometry.ErrExteriorRing),
		errors.Is(err, geometry.ErrRingIndex),
		errors.Is(err, geometry.ErrEmptyRing),
		errors.Is(err, geometry.ErrBadPath):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[EDITOR] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
