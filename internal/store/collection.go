package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Collection is the load/save seam for one record collection. Every store
// operation reads the whole collection, modifies it in memory and writes it
// back. There is no locking: concurrent writers can lose updates.
type Collection[T any] interface {
	LoadAll() ([]T, error)
	SaveAll(items []T) error
}

// FileCollection keeps a collection as a JSON array in a single file.
type FileCollection[T any] struct {
	path string
}

// NewFileCollection returns a collection backed by the JSON file at path.
// The file is created on first save.
func NewFileCollection[T any](path string) *FileCollection[T] {
	return &FileCollection[T]{path: path}
}

// Path returns the backing file path.
func (c *FileCollection[T]) Path() string {
	return c.path
}

// LoadAll reads the whole collection. A missing or corrupt file is an empty collection.
func (c *FileCollection[T]) LoadAll() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("discarding unreadable collection file", "path", c.path, "error", err)
		return nil, nil
	}
	return items, nil
}

// SaveAll replaces the file contents with items.
func (c *FileCollection[T]) SaveAll(items []T) error {
	if items == nil {
		items = []T{}
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.path, err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	return nil
}

// findOne returns a pointer to a copy of the first item matching match, or nil.
func findOne[T any](items []T, match func(T) bool) *T {
	for i := range items {
		if match(items[i]) {
			item := items[i]
			return &item
		}
	}
	return nil
}

// upsert replaces the first item matching match, or appends item.
func upsert[T any](items []T, item T, match func(T) bool) []T {
	for i := range items {
		if match(items[i]) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}
