package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File persists keys as a single JSON document on disk. Every write lands
// through a temp-file rename, so a batch written with SetMulti is either
// fully visible or not at all.
type File struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// NewFile opens (or creates) a file-backed store at path. The parent
// directory is created with owner-only permissions.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	f := &File{path: path, values: make(map[string]string)}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	if err := json.Unmarshal(b, &f.values); err != nil {
		return nil, fmt.Errorf("failed to decode storage file: %w", err)
	}
	return f, nil
}

// DefaultPath returns the storage file location under the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ifitclub", "state.json"), nil
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	return f.SetMulti(ctx, map[string]string{key: value})
}

func (f *File) SetMulti(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]string, len(f.values)+len(values))
	for k, v := range f.values {
		next[k] = v
	}
	for k, v := range values {
		next[k] = v
	}

	if err := f.flush(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *File) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]string, len(f.values))
	for k, v := range f.values {
		next[k] = v
	}
	for _, k := range keys {
		delete(next, k)
	}

	if err := f.flush(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *File) Close() error {
	return nil
}

// flush writes the full document to a temp file and renames it into place.
// Caller holds f.mu.
func (f *File) flush(values map[string]string) error {
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp storage file: %w", err)
	}

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close storage file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to set storage file mode: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}
