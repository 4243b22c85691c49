package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"floorplan-editor/internal/editor/document"
	"floorplan-editor/internal/editor/metrics"
	"floorplan-editor/internal/editor/persistence"
)

var ErrNotFound = errors.New("session not found")

// ============================================================
// Session
// ============================================================

// Session: один открытый документ этажа. Все изменения идут через Do.
type Session struct {
	ID        string    `json:"id"`
	FloorCode string    `json:"floorCode"`
	OpenedAt  time.Time `json:"openedAt"`

	mu    sync.Mutex
	store *document.Store
	saver *persistence.Saver
}

// Do выполняет fn с эксклюзивным доступом к документу.
func (s *Session) Do(fn func(store *document.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

func (s *Session) Saver() *persistence.Saver {
	return s.saver
}

// ============================================================
// Session Manager
// ============================================================

type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	gw          persistence.Gateway
	saveTimeout time.Duration
	log         *slog.Logger
}

func NewManager(gw persistence.Gateway, saveTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		gw:          gw,
		saveTimeout: saveTimeout,
		log:         slog.Default().With("component", "sessions"),
	}
}

// Open загружает документ этажа и регистрирует новую сессию.
func (m *Manager) Open(ctx context.Context, floorCode string) (*Session, error) {
	doc, err := persistence.LoadDocument(ctx, m.gw, floorCode)
	if err != nil {
		return nil, fmt.Errorf("open floor %s: %w", floorCode, err)
	}
	store, err := document.Open(doc)
	if err != nil {
		return nil, fmt.Errorf("open floor %s: %w", floorCode, err)
	}

	saver := persistence.NewSaver(m.gw, m.saveTimeout)
	store.OnCommit(saver.Listener(floorCode))

	s := &Session{
		ID:        uuid.NewString(),
		FloorCode: floorCode,
		OpenedAt:  time.Now(),
		store:     store,
		saver:     saver,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.OpenSessions.Inc()
	m.log.Info("session opened", "session", s.ID, "floor", floorCode,
		"nodes", len(doc.Graph), "rooms", len(doc.Rooms))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	return s, ok
}

// Close закрывает документ и ждёт незавершённые сохранения.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	err := s.Do(func(store *document.Store) error {
		return store.Close()
	})
	s.saver.Wait()

	metrics.OpenSessions.Dec()
	m.log.Info("session closed", "session", id, "floor", s.FloorCode)
	return err
}

// CloseAll закрывает все сессии (при остановке сервиса).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Close(id); err != nil && !errors.Is(err, ErrNotFound) {
			m.log.Warn("close session", "session", id, "error", err)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
