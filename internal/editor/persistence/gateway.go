package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"floorplan-editor/internal/editor/models"
)

var (
	ErrSaveFailed = errors.New("failed to save")
	ErrNotFound   = errors.New("document part not found")
	ErrBadPath    = errors.New("invalid document path")
)

// Gateway хранит части документа по путям вида floors/<floorCode>/graph.
type Gateway interface {
	Save(ctx context.Context, path string, payload []byte) error
	Load(ctx context.Context, path string) ([]byte, error)
}

func GraphPath(floorCode string) string {
	return "floors/" + floorCode + "/graph"
}

func RoomsPath(floorCode string) string {
	return "floors/" + floorCode + "/rooms"
}

// LoadDocument читает граф и комнаты этажа. Отсутствующая часть считается пустой.
func LoadDocument(ctx context.Context, gw Gateway, floorCode string) (models.Document, error) {
	doc := models.NewDocument()

	if err := loadPart(ctx, gw, GraphPath(floorCode), &doc.Graph); err != nil {
		return doc, err
	}
	if err := loadPart(ctx, gw, RoomsPath(floorCode), &doc.Rooms); err != nil {
		return doc, err
	}
	doc.Normalize()
	return doc, nil
}

func loadPart(ctx context.Context, gw Gateway, path string, dst any) error {
	data, err := gw.Load(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
