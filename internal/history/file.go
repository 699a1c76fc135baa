package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"cardquiz/internal/models"
)

// FileStore keeps one JSON file per user under a directory.
// A single mutex serialises every read and write, so Append is atomic
// within one process.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userID int64) string {
	return filepath.Join(s.dir, "user_"+strconv.FormatInt(userID, 10)+".json")
}

func (s *FileStore) Load(_ context.Context, userID int64) ([]models.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID)
}

func (s *FileStore) Save(_ context.Context, userID int64, items []models.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(userID, items)
}

// Append holds the lock across the read and the write
func (s *FileStore) Append(_ context.Context, userID int64, item models.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(userID)
	if err != nil {
		return err
	}
	return s.save(userID, append(items, item))
}

func (s *FileStore) load(userID int64) ([]models.HistoryItem, error) {
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return []models.HistoryItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return decode(userID, data), nil
}

// save writes through a temp file and rename
func (s *FileStore) save(userID int64, items []models.HistoryItem) error {
	data, err := encode(items)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "history-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write history: %w", err)
	}
	return os.Rename(tmp.Name(), s.path(userID))
}
