package identity

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/patch"
)

func floorDoc() models.Document {
	doc := models.Document{
		Graph: models.Graph{
			"n1": {ID: "n1", Pos: models.Point{X: 1, Y: 1}, RoomID: models.StrPtr("A-101")},
			"n2": {ID: "n2", Pos: models.Point{X: 2, Y: 2}, RoomID: models.StrPtr("A-101")},
			"n3": {ID: "n3", Pos: models.Point{X: 3, Y: 3}, RoomID: models.StrPtr("A-200")},
			"n4": {ID: "n4", Pos: models.Point{X: 4, Y: 4}},
		},
		Rooms: models.Rooms{
			"A-101": {Name: "101", Type: "office", Aliases: []string{"lab"}},
			"A-200": {Name: "200", Type: "corridor"},
		},
	}
	doc.Normalize()
	return doc
}

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, "A", BuildingCode("A-1"))
	assert.Equal(t, "GHC", BuildingCode("GHC-LL"))
	assert.Equal(t, "B", BuildingCode("B"))
	assert.Equal(t, "A-102a", DeriveRoomID("A", "102a"))
	assert.Equal(t, "A-102a", RoomIDFromInfo("A-1", models.RoomInfo{Name: "102a"}))
	assert.Equal(t, "102a", RoomNameFromID("A-102a"))
}

func TestFloorLevel(t *testing.T) {
	tests := map[string]string{
		"101":   "1",
		"A12":   "A",
		"LL05":  "LL",
		"M203":  "M",
		"EV1":   "EV",
		"PH2":   "PH",
		"Z100":  "",
		"":      "",
		"G-101": "",
	}
	for name, want := range tests {
		assert.Equal(t, want, FloorLevel(name), name)
	}
}

func TestRenameCascade(t *testing.T) {
	doc := floorDoc()
	engine := patch.NewEngine(doc)

	info := doc.Rooms["A-101"]
	info.Name = "102a"

	ops, newID, err := RenameBatch(engine.State(), "A-1", "A-101", info)
	require.NoError(t, err)
	assert.Equal(t, "A-102a", newID)
	require.Len(t, ops, 4)
	assert.Equal(t, patch.Path{"graph", "n1", "roomId"}, ops[0].Path)
	assert.Equal(t, patch.Path{"graph", "n2", "roomId"}, ops[1].Path)

	require.NoError(t, engine.ApplyEdit(ops))
	state := engine.State()
	assert.NotContains(t, state.Rooms, "A-101")
	require.Contains(t, state.Rooms, "A-102a")
	assert.Equal(t, "102a", state.Rooms["A-102a"].Name)
	for _, id := range []string{"n1", "n2"} {
		assert.True(t, state.Graph[id].HasRoom("A-102a"), id)
	}
	assert.True(t, state.Graph["n3"].HasRoom("A-200"))
	assert.Nil(t, state.Graph["n4"].RoomID)

	// Переименование откатывается одним шагом.
	require.NoError(t, engine.Undo())
	assert.Equal(t, floorDoc(), engine.State())
	assert.Equal(t, -1, engine.Cursor())
}

func TestRenameSameIDReplacesRoom(t *testing.T) {
	doc := floorDoc()
	info := doc.Rooms["A-101"]
	info.Aliases = append(info.Aliases, "den")
	info.Type = "laboratory"

	ops, newID, err := RenameBatch(doc, "A-1", "A-101", info)
	require.NoError(t, err)
	assert.Equal(t, "A-101", newID)
	require.Len(t, ops, 1)
	assert.Equal(t, patch.Replace, ops[0].Kind)

	next, err := patch.Apply(doc, ops)
	require.NoError(t, err)
	assert.Equal(t, []string{"lab", "den"}, next.Rooms["A-101"].Aliases)
	assert.Equal(t, "laboratory", next.Rooms["A-101"].Type)
}

func TestRenameConflict(t *testing.T) {
	doc := floorDoc()
	info := doc.Rooms["A-101"]
	info.Name = "200"

	ops, _, err := RenameBatch(doc, "A-1", "A-101", info)
	assert.Nil(t, ops)

	var conflict *IdentityConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "A-101", conflict.OldID)
	assert.Equal(t, "A-200", conflict.NewID)
}

func TestRenameValidation(t *testing.T) {
	doc := floorDoc()

	_, _, err := RenameBatch(doc, "A-1", "A-999", models.RoomInfo{Name: "999"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, _, err = RenameBatch(doc, "A-1", "A-101", models.RoomInfo{Name: "101", Type: "ballroom"})
	assert.ErrorIs(t, err, ErrRoomType)
}

func TestCreateRoomBatch(t *testing.T) {
	doc := floorDoc()
	alloc := func() string { return "room-1" }

	ops, roomID, err := CreateRoomBatch(doc, "n4", alloc)
	require.NoError(t, err)
	assert.Equal(t, "room-1", roomID)

	next, err := patch.Apply(doc, ops)
	require.NoError(t, err)
	require.Contains(t, next.Rooms, "room-1")
	room := next.Rooms["room-1"]
	assert.Equal(t, models.Point{X: 4, Y: 4}, room.LabelPosition)
	assert.Empty(t, room.Name)
	assert.Equal(t, []string{}, room.Aliases)
	assert.Equal(t, models.EmptyPolygon(), room.Polygon)
	assert.True(t, next.Graph["n4"].HasRoom("room-1"))

	_, _, err = CreateRoomBatch(doc, "n1", alloc)
	assert.ErrorIs(t, err, ErrNodeHasRoom)

	_, _, err = CreateRoomBatch(doc, "n9", alloc)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCreateRoomDefaultAllocator(t *testing.T) {
	_, roomID, err := CreateRoomBatch(floorDoc(), "n4", nil)
	require.NoError(t, err)
	_, err = uuid.Parse(roomID)
	assert.NoError(t, err)
}

func TestLookups(t *testing.T) {
	doc := floorDoc()

	id, ok := RoomIDByName(doc.Rooms, "200")
	assert.True(t, ok)
	assert.Equal(t, "A-200", id)

	_, ok = RoomIDByName(doc.Rooms, "nope")
	assert.False(t, ok)

	nodeID, ok := NodeIDByRoomID(doc.Graph, "A-101")
	assert.True(t, ok)
	assert.Equal(t, "n1", nodeID)

	_, ok = NodeIDByRoomID(doc.Graph, "A-999")
	assert.False(t, ok)
}
