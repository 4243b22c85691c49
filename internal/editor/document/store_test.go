package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/patch"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(models.Document{
		Graph: models.Graph{
			"n1": {ID: "n1", Pos: models.Point{X: 0, Y: 0}},
			"n2": {ID: "n2", Pos: models.Point{X: 5, Y: 0}, RoomID: models.StrPtr("A-101")},
		},
		Rooms: models.Rooms{
			"A-101": {Name: "101", Type: "office"},
		},
	})
	require.NoError(t, err)
	return s
}

func TestOpenNormalizes(t *testing.T) {
	s, err := Open(models.Document{})
	require.NoError(t, err)

	doc, err := s.Snapshot()
	require.NoError(t, err)
	assert.NotNil(t, doc.Graph)
	assert.NotNil(t, doc.Rooms)

	s = openStore(t)
	rooms, err := s.Rooms()
	require.NoError(t, err)
	assert.Equal(t, []string{}, rooms["A-101"].Aliases)
	assert.Equal(t, models.EmptyPolygon(), rooms["A-101"].Polygon)
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := openStore(t)

	graph, err := s.Graph()
	require.NoError(t, err)
	graph["n1"] = models.Node{ID: "hijacked"}
	delete(graph, "n2")

	again, err := s.Graph()
	require.NoError(t, err)
	assert.Equal(t, "n1", again["n1"].ID)
	assert.Contains(t, again, "n2")
}

func TestApplyUndoRedoNotifiesListeners(t *testing.T) {
	s := openStore(t)

	var commits []Commit
	s.OnCommit(func(c Commit) { commits = append(commits, c) })

	require.NoError(t, s.ApplyEdit([]patch.Operation{
		patch.NewReplace(patch.Join(models.RootGraph, "n1", "roomId"), "A-101"),
	}))
	require.NoError(t, s.Undo())
	require.NoError(t, s.Redo())

	require.Len(t, commits, 3)
	assert.Equal(t, []Action{ActionEdit, ActionUndo, ActionRedo},
		[]Action{commits[0].Action, commits[1].Action, commits[2].Action})
	for _, c := range commits {
		assert.True(t, c.Graph)
		assert.False(t, c.Rooms)
	}
	assert.True(t, commits[0].Snapshot.Graph["n1"].HasRoom("A-101"))
	assert.Nil(t, commits[1].Snapshot.Graph["n1"].RoomID)

	h, err := s.History()
	require.NoError(t, err)
	assert.Equal(t, History{Cursor: 0, Length: 1, CanUndo: true, CanRedo: false}, h)
}

func TestFailedEditDoesNotNotify(t *testing.T) {
	s := openStore(t)
	notified := false
	s.OnCommit(func(Commit) { notified = true })

	err := s.ApplyEdit([]patch.Operation{patch.NewRemove(patch.Join(models.RootRooms, "A-999"))})
	var applyErr *patch.ApplyError
	require.True(t, errors.As(err, &applyErr))

	var noop *patch.NoOpError
	assert.True(t, errors.As(s.Undo(), &noop))
	assert.True(t, errors.As(s.Redo(), &noop))
	assert.False(t, notified)
}

func TestReplaceGraphBypassesHistory(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.ApplyEdit([]patch.Operation{
		patch.NewAdd(patch.Join(models.RootGraph, "n5"), models.Node{ID: "n5"}),
	}))

	var commits []Commit
	s.OnCommit(func(c Commit) { commits = append(commits, c) })

	require.NoError(t, s.ReplaceGraph(models.Graph{
		"d1": {ID: "d1", Pos: models.Point{X: 9, Y: 9}},
	}))

	h, err := s.History()
	require.NoError(t, err)
	assert.Equal(t, 1, h.Length)
	assert.Equal(t, 0, h.Cursor)

	require.Len(t, commits, 1)
	assert.Equal(t, ActionReplaceGraph, commits[0].Action)
	assert.True(t, commits[0].Graph)
	assert.False(t, commits[0].Rooms)

	// Обратная правка ссылается на n5, которого больше нет.
	assert.ErrorIs(t, s.Undo(), patch.ErrUndoFailed)

	graph, err := s.Graph()
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Edge{}, graph["d1"].Adjacency)
}

func TestReplaceRooms(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.ReplaceRooms(models.Rooms{"B-1": {Name: "1"}}))

	rooms, err := s.Rooms()
	require.NoError(t, err)
	assert.NotContains(t, rooms, "A-101")
	assert.Equal(t, "1", rooms["B-1"].Name)
}

func TestClosedStore(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Close(), ErrClosed)
	assert.ErrorIs(t, s.ApplyEdit([]patch.Operation{patch.NewRemove(patch.Join(models.RootGraph, "n1"))}), ErrClosed)
	assert.ErrorIs(t, s.Undo(), ErrClosed)
	assert.ErrorIs(t, s.Redo(), ErrClosed)
	assert.ErrorIs(t, s.ReplaceGraph(models.Graph{}), ErrClosed)
	assert.ErrorIs(t, s.ReplaceRooms(models.Rooms{}), ErrClosed)

	_, err := s.Graph()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Rooms()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.History()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTouched(t *testing.T) {
	tests := []struct {
		name         string
		ops          []patch.Operation
		graph, rooms bool
	}{
		{"graph only", []patch.Operation{patch.NewRemove(patch.Path{"graph", "n1"})}, true, false},
		{"rooms only", []patch.Operation{patch.NewAdd(patch.Path{"rooms", "x"}, 1)}, false, true},
		{"test ignored", []patch.Operation{patch.NewTest(patch.Path{"graph", "n1"}, 1)}, false, false},
		{"move across roots", []patch.Operation{patch.NewMove(patch.Path{"graph", "a"}, patch.Path{"rooms", "a"})}, true, true},
		{"root", []patch.Operation{patch.NewReplace(patch.Path{}, nil)}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, rooms := touched(tt.ops)
			assert.Equal(t, tt.graph, graph)
			assert.Equal(t, tt.rooms, rooms)
		})
	}
}
