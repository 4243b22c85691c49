package document

import (
	"errors"
	"fmt"
	"log/slog"

	"floorplan-editor/internal/editor/metrics"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/patch"
)

var ErrClosed = errors.New("document store is closed")

type Action string

const (
	ActionEdit         Action = "edit"
	ActionUndo         Action = "undo"
	ActionRedo         Action = "redo"
	ActionReplaceGraph Action = "replace_graph"
	ActionReplaceRooms Action = "replace_rooms"
)

// Commit описывает одно применённое изменение: какие части документа затронуты
// и снимок состояния после него (копия, слушатель может её хранить).
type Commit struct {
	Action   Action
	Graph    bool
	Rooms    bool
	Snapshot models.Document
}

type CommitListener func(Commit)

type History struct {
	Cursor  int  `json:"cursor"`
	Length  int  `json:"length"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// ============================================================
// Store
// ============================================================

// Store держит граф и комнаты одного открытого документа вместе с историей правок.
// Store не синхронизирован: вызывающий гарантирует одного писателя.
type Store struct {
	engine    *patch.Engine[models.Document]
	listeners []CommitListener
	closed    bool
	log       *slog.Logger
}

// Open создаёт хранилище для doc. doc копируется.
func Open(doc models.Document) (*Store, error) {
	initial, err := models.Clone(doc)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	initial.Normalize()

	s := &Store{
		engine: patch.NewEngine(initial),
		log:    slog.Default().With("component", "document"),
	}
	s.log.Debug("document opened", "nodes", len(initial.Graph), "rooms", len(initial.Rooms))
	return s, nil
}

// Close отбрасывает документ и историю.
func (s *Store) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.listeners = nil
	s.engine = nil
	s.log.Debug("document closed")
	return nil
}

// OnCommit регистрирует слушателя успешных изменений.
func (s *Store) OnCommit(fn CommitListener) {
	s.listeners = append(s.listeners, fn)
}

// ============================================================
// Read accessors
// ============================================================

func (s *Store) Graph() (models.Graph, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return models.Clone(s.engine.State().Graph)
}

func (s *Store) Rooms() (models.Rooms, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return models.Clone(s.engine.State().Rooms)
}

func (s *Store) Snapshot() (models.Document, error) {
	if s.closed {
		return models.Document{}, ErrClosed
	}
	return models.Clone(s.engine.State())
}

func (s *Store) History() (History, error) {
	if s.closed {
		return History{}, ErrClosed
	}
	return History{
		Cursor:  s.engine.Cursor(),
		Length:  s.engine.Len(),
		CanUndo: s.engine.CanUndo(),
		CanRedo: s.engine.CanRedo(),
	}, nil
}

// ============================================================
// Bulk replace (вне истории)
// ============================================================

// ReplaceGraph подменяет граф целиком без записи в историю.
// История сохраняется; правки, не совместимые с новым графом, потом не отменятся.
func (s *Store) ReplaceGraph(graph models.Graph) error {
	if s.closed {
		return ErrClosed
	}
	g, err := models.Clone(graph)
	if err != nil {
		return fmt.Errorf("replace graph: %w", err)
	}

	doc := s.engine.State()
	doc.Graph = g
	doc.Normalize()
	s.engine.Reset(doc)

	s.log.Info("graph replaced outside history", "nodes", len(g))
	s.commit(ActionReplaceGraph, true, false)
	return nil
}

// ReplaceRooms подменяет комнаты целиком без записи в историю.
func (s *Store) ReplaceRooms(rooms models.Rooms) error {
	if s.closed {
		return ErrClosed
	}
	r, err := models.Clone(rooms)
	if err != nil {
		return fmt.Errorf("replace rooms: %w", err)
	}

	doc := s.engine.State()
	doc.Rooms = r
	doc.Normalize()
	s.engine.Reset(doc)

	s.log.Info("rooms replaced outside history", "rooms", len(r))
	s.commit(ActionReplaceRooms, false, true)
	return nil
}

// ============================================================
// Historied edits
// ============================================================

func (s *Store) ApplyEdit(ops []patch.Operation) error {
	if s.closed {
		return s.fail(ActionEdit, ErrClosed)
	}
	if err := s.engine.ApplyEdit(ops); err != nil {
		return s.fail(ActionEdit, err)
	}

	graph, rooms := touched(ops)
	s.log.Debug("edit applied", "ops", len(ops), "cursor", s.engine.Cursor())
	s.commit(ActionEdit, graph, rooms)
	return nil
}

func (s *Store) Undo() error {
	if s.closed {
		return s.fail(ActionUndo, ErrClosed)
	}
	_, inverse, _ := s.engine.Entry(s.engine.Cursor())
	if err := s.engine.Undo(); err != nil {
		return s.fail(ActionUndo, err)
	}

	graph, rooms := touched(inverse)
	s.commit(ActionUndo, graph, rooms)
	return nil
}

func (s *Store) Redo() error {
	if s.closed {
		return s.fail(ActionRedo, ErrClosed)
	}
	forward, _, _ := s.engine.Entry(s.engine.Cursor() + 1)
	if err := s.engine.Redo(); err != nil {
		return s.fail(ActionRedo, err)
	}

	graph, rooms := touched(forward)
	s.commit(ActionRedo, graph, rooms)
	return nil
}

func (s *Store) commit(action Action, graph, rooms bool) {
	metrics.EditsTotal.WithLabelValues(string(action)).Inc()
	if len(s.listeners) == 0 {
		return
	}

	snapshot, err := models.Clone(s.engine.State())
	if err != nil {
		s.log.Error("snapshot for listeners failed", "action", action, "error", err)
		return
	}
	c := Commit{Action: action, Graph: graph, Rooms: rooms, Snapshot: snapshot}
	for _, fn := range s.listeners {
		fn(c)
	}
}

func (s *Store) fail(action Action, err error) error {
	metrics.EditFailures.WithLabelValues(string(action), reason(err)).Inc()
	s.log.Warn("change rejected", "action", action, "error", err)
	return err
}

func reason(err error) string {
	var noop *patch.NoOpError
	switch {
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.As(err, &noop):
		return "noop"
	case errors.Is(err, patch.ErrUndoFailed):
		return "undo_failed"
	case errors.Is(err, patch.ErrRedoFailed):
		return "redo_failed"
	}
	return "apply"
}

// touched определяет затронутые части документа по корням путей.
func touched(ops []patch.Operation) (graph, rooms bool) {
	mark := func(p patch.Path) {
		if len(p) == 0 {
			graph, rooms = true, true
			return
		}
		switch p[0] {
		case models.RootGraph:
			graph = true
		case models.RootRooms:
			rooms = true
		}
	}
	for _, op := range ops {
		if op.Kind == patch.Test {
			continue
		}
		mark(op.Path)
		if op.Kind == patch.Move {
			mark(op.From)
		}
	}
	return graph, rooms
}
