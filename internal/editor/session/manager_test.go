package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorplan-editor/internal/editor/document"
	"floorplan-editor/internal/editor/models"
	"floorplan-editor/internal/editor/patch"
	"floorplan-editor/internal/editor/persistence"
)

func TestOpenEditClose(t *testing.T) {
	ctx := context.Background()
	gw := persistence.NewFileStore(t.TempDir())
	require.NoError(t, gw.Save(ctx, persistence.GraphPath("A-1"), []byte(`{"n1":{"id":"n1","pos":{"x":0,"y":0},"roomId":null,"adjacency":{}}}`)))

	m := NewManager(gw, time.Second)
	s, err := m.Open(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, "A-1", s.FloorCode)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	err = s.Do(func(store *document.Store) error {
		return store.ApplyEdit([]patch.Operation{
			patch.NewReplace(patch.Join(models.RootGraph, "n1", "roomId"), "A-1"),
		})
	})
	require.NoError(t, err)

	require.NoError(t, m.Close(s.ID))
	assert.ErrorIs(t, m.Close(s.ID), ErrNotFound)
	_, ok = m.Get(s.ID)
	assert.False(t, ok)

	// Сохранение завершено к моменту Close.
	doc, err := persistence.LoadDocument(ctx, gw, "A-1")
	require.NoError(t, err)
	assert.True(t, doc.Graph["n1"].HasRoom("A-1"))

	err = s.Do(func(store *document.Store) error {
		_, err := store.Graph()
		return err
	})
	assert.ErrorIs(t, err, document.ErrClosed)
}

func TestConcurrentWritersAreSerialised(t *testing.T) {
	m := NewManager(persistence.NewFileStore(t.TempDir()), time.Second)
	s, err := m.Open(context.Background(), "B-2")
	require.NoError(t, err)
	defer m.CloseAll()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(store *document.Store) error {
				return store.ApplyEdit([]patch.Operation{
					patch.NewAdd(patch.Join(models.RootGraph, "n"), models.Node{ID: "n"}),
				})
			})
		}()
	}
	wg.Wait()

	var h document.History
	require.NoError(t, s.Do(func(store *document.Store) error {
		h, err = store.History()
		return err
	}))
	assert.Equal(t, 20, h.Length)
}

func TestCloseAll(t *testing.T) {
	m := NewManager(persistence.NewFileStore(t.TempDir()), time.Second)
	for _, floor := range []string{"A-1", "A-2", "B-1"} {
		_, err := m.Open(context.Background(), floor)
		require.NoError(t, err)
	}
	m.CloseAll()
	assert.Equal(t, 0, m.Len())
}
