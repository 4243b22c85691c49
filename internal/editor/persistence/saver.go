package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"floorplan-editor/internal/editor/document"
	"floorplan-editor/internal/editor/metrics"
)

const LevelError = "error"

// MaxNotifications ограничивает число хранимых уведомлений сессии.
const MaxNotifications = 100

// Notification: сообщение пользователю о результате фонового сохранения.
type Notification struct {
	Seq     int64     `json:"seq"`
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Path    string    `json:"path"`
	Message string    `json:"message"`
}

// ============================================================
// Async saver
// ============================================================

// Saver сохраняет части документа в фоне. Локальное состояние не откатывается:
// ошибка превращается в уведомление. Более поздняя правка может обогнать раннее сохранение.
type Saver struct {
	gw      Gateway
	timeout time.Duration
	log     *slog.Logger

	wg    sync.WaitGroup
	mu    sync.Mutex
	seq   int64
	notes []Notification
}

func NewSaver(gw Gateway, timeout time.Duration) *Saver {
	return &Saver{
		gw:      gw,
		timeout: timeout,
		log:     slog.Default().With("component", "saver"),
	}
}

// Save пишет payload синхронно. Ошибка оборачивает ErrSaveFailed.
func (s *Saver) Save(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrSaveFailed, path, err)
	}
	return s.write(ctx, path, data)
}

// SaveAsync кодирует payload сразу и пишет его в отдельной горутине.
func (s *Saver) SaveAsync(path string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.notify(LevelError, path, fmt.Sprintf("failed to encode %s: %v", path, err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		if err := s.write(ctx, path, data); err != nil {
			s.notify(LevelError, path, err.Error())
		}
	}()
}

// Listener сохраняет затронутые части документа этажа после каждого изменения.
func (s *Saver) Listener(floorCode string) document.CommitListener {
	return func(c document.Commit) {
		if c.Graph {
			s.SaveAsync(GraphPath(floorCode), c.Snapshot.Graph)
		}
		if c.Rooms {
			s.SaveAsync(RoomsPath(floorCode), c.Snapshot.Rooms)
		}
	}
}

// Wait ждёт завершения всех запущенных сохранений.
func (s *Saver) Wait() {
	s.wg.Wait()
}

// Notifications возвращает уведомления с номером больше since.
// Хранятся только последние MaxNotifications; номера при этом не переиспользуются.
func (s *Saver) Notifications(since int64) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Notification
	for _, n := range s.notes {
		if n.Seq > since {
			out = append(out, n)
		}
	}
	return out
}

func (s *Saver) write(ctx context.Context, path string, data []byte) error {
	start := time.Now()
	err := s.gw.Save(ctx, path, data)
	metrics.SaveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SavesTotal.WithLabelValues("error").Inc()
		s.log.Error("save failed", "path", path, "error", err)
		return fmt.Errorf("%w %s: %w", ErrSaveFailed, path, err)
	}
	metrics.SavesTotal.WithLabelValues("ok").Inc()
	s.log.Debug("saved", "path", path, "bytes", len(data))
	return nil
}

func (s *Saver) notify(level, path, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.notes = append(s.notes, Notification{
		Seq:     s.seq,
		Time:    time.Now(),
		Level:   level,
		Path:    path,
		Message: msg,
	})
	if over := len(s.notes) - MaxNotifications; over > 0 {
		s.notes = append(s.notes[:0:0], s.notes[over:]...)
	}
}
