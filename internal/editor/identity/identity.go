package identity

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/patch"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNodeNotFound = errors.New("node not found")
	ErrNodeHasRoom  = errors.New("node already belongs to a room")
	ErrRoomType     = errors.New("unknown room type")
)

// IdentityConflictError: производный RoomID уже занят другой комнатой.
type IdentityConflictError struct {
	OldID models.ID
	NewID models.ID
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("cannot rename room %q: id %q belongs to another room", e.OldID, e.NewID)
}

// Allocator выдаёт глобально уникальный идентификатор для новой комнаты.
type Allocator func() string

func UUIDAllocator() string {
	return uuid.NewString()
}

// ============================================================
// Identifiers
// ============================================================

// BuildingCode возвращает часть кода этажа до первого "-" ("A-1" -> "A").
func BuildingCode(floorCode string) string {
	building, _, _ := strings.Cut(floorCode, "-")
	return building
}

func DeriveRoomID(buildingCode, name string) models.ID {
	return buildingCode + "-" + name
}

func RoomIDFromInfo(floorCode string, info models.RoomInfo) models.ID {
	return DeriveRoomID(BuildingCode(floorCode), info.Name)
}

// RoomNameFromID возвращает всё после кода здания ("A-102a" -> "102a").
func RoomNameFromID(id models.ID) string {
	_, name, _ := strings.Cut(id, "-")
	return name
}

var floorLevelRe = regexp.MustCompile(`^(LL|EV|PH|M|[A-F0-9])`)

// FloorLevel извлекает этаж из начала имени комнаты ("LL05" -> "LL"); "" если не распознан.
func FloorLevel(roomName string) string {
	return floorLevelRe.FindString(roomName)
}

// RoomTypes: допустимые значения RoomInfo.Type.
var RoomTypes = []string{
	"",
	"default",
	"corridor",
	"auditorium",
	"office",
	"classroom",
	"operational",
	"conference",
	"study",
	"laboratory",
	"computer lab",
	"studio",
	"workshop",
	"vestibule",
	"storage",
	"restroom",
	"stairs",
	"elevator",
	"ramp",
	"dining",
	"food",
	"store",
	"library",
	"sport",
	"parking",
	"inaccessible",
}

func ValidateRoomType(t string) error {
	if !slices.Contains(RoomTypes, t) {
		return fmt.Errorf("%w: %q", ErrRoomType, t)
	}
	return nil
}

// ============================================================
// Lookups
// ============================================================

// RoomIDByName ищет комнату по имени; при совпадениях выигрывает меньший ID.
func RoomIDByName(rooms models.Rooms, name string) (models.ID, bool) {
	for _, id := range slices.Sorted(maps.Keys(rooms)) {
		if rooms[id].Name == name {
			return id, true
		}
	}
	return "", false
}

// NodeIDByRoomID возвращает первый (по ID) узел комнаты.
func NodeIDByRoomID(graph models.Graph, roomID models.ID) (models.ID, bool) {
	for _, id := range slices.Sorted(maps.Keys(graph)) {
		if graph[id].HasRoom(roomID) {
			return id, true
		}
	}
	return "", false
}

// ============================================================
// Batches
// ============================================================

// RenameBatch собирает одну правку для сохранения newInfo комнаты oldID.
// Если производный ID не меняется, это одна замена rooms/<id>. Иначе в пакет входят
// перепривязка roomId у всех узлов комнаты, удаление старой записи и вставка новой.
func RenameBatch(doc models.Document, floorCode string, oldID models.ID, newInfo models.RoomInfo) ([]patch.Operation, models.ID, error) {
	if _, ok := doc.Rooms[oldID]; !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrRoomNotFound, oldID)
	}
	if err := ValidateRoomType(newInfo.Type); err != nil {
		return nil, "", err
	}
	info := normalizeInfo(newInfo)

	newID := RoomIDFromInfo(floorCode, info)
	if newID == oldID {
		return []patch.Operation{patch.NewReplace(patch.Join(models.RootRooms, oldID), info)}, oldID, nil
	}
	if _, taken := doc.Rooms[newID]; taken {
		return nil, "", &IdentityConflictError{OldID: oldID, NewID: newID}
	}

	var ops []patch.Operation
	for _, nodeID := range slices.Sorted(maps.Keys(doc.Graph)) {
		if doc.Graph[nodeID].HasRoom(oldID) {
			ops = append(ops, patch.NewReplace(patch.Join(models.RootGraph, nodeID, "roomId"), newID))
		}
	}
	ops = append(ops,
		patch.NewRemove(patch.Join(models.RootRooms, oldID)),
		patch.NewAdd(patch.Join(models.RootRooms, newID), info),
	)
	return ops, newID, nil
}

// CreateRoomBatch заводит пустую комнату для узла без комнаты.
func CreateRoomBatch(doc models.Document, nodeID models.ID, alloc Allocator) ([]patch.Operation, models.ID, error) {
	node, ok := doc.Graph[nodeID]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	if node.RoomID != nil && *node.RoomID != "" {
		return nil, "", fmt.Errorf("%w: %q in %q", ErrNodeHasRoom, nodeID, *node.RoomID)
	}
	if alloc == nil {
		alloc = UUIDAllocator
	}

	roomID := alloc()
	info := models.RoomInfo{
		Aliases:       []string{},
		LabelPosition: node.Pos,
		Polygon:       models.EmptyPolygon(),
	}
	return []patch.Operation{
		patch.NewAdd(patch.Join(models.RootRooms, roomID), info),
		patch.NewReplace(patch.Join(models.RootGraph, nodeID, "roomId"), roomID),
	}, roomID, nil
}

func normalizeInfo(info models.RoomInfo) models.RoomInfo {
	if info.Aliases == nil {
		info.Aliases = []string{}
	}
	if info.Polygon.Type == "" {
		info.Polygon.Type = models.PolygonType
	}
	if info.Polygon.Coordinates == nil {
		info.Polygon.Coordinates = models.EmptyPolygon().Coordinates
	}
	return info
}
