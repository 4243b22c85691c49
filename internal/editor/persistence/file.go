package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ============================================================
// File Store
// ============================================================

// FileStore кладёт каждую часть документа в отдельный JSON-файл: <root>/<path>.json.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) FilePath(path string) (string, error) {
	rel := filepath.FromSlash(path)
	if path == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	return filepath.Join(s.root, rel+".json"), nil
}

func (s *FileStore) Save(_ context.Context, path string, payload []byte) error {
	target, err := s.FilePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
	}

	// Запись через временный файл + rename.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".save-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, path string) ([]byte, error) {
	target, err := s.FilePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}
