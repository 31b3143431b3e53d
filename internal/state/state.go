// Package state persists symbol-keyed maps as JSON files. A missing or corrupt
// file reads as an empty map: losing cross-run history is tolerated, failing
// the run is not.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is the get/put contract the cooldown ledger and trailing tracker use.
type Store[T any] interface {
	Load() map[string]T
	Save(data map[string]T) error
}

// JSONStore keeps one map in one file.
type JSONStore[T any] struct {
	mu   sync.Mutex
	path string
}

func NewJSONStore[T any](path string) *JSONStore[T] {
	return &JSONStore[T]{path: path}
}

func (s *JSONStore[T]) Path() string {
	return s.path
}

func (s *JSONStore[T]) Load() map[string]T {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("state file missing", "path", s.path)
		} else {
			slog.Warn("state file unreadable, starting empty", "path", s.path, "error", err)
		}
		return map[string]T{}
	}
	var out map[string]T
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Warn("state file corrupt, starting empty", "path", s.path, "error", err)
		return map[string]T{}
	}
	if out == nil {
		out = map[string]T{}
	}
	slog.Debug("state loaded", "path", s.path, "entries", len(out))
	return out
}

// Save writes through a temporary file so a crash never leaves half a document.
func (s *JSONStore[T]) Save(data map[string]T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if data == nil {
		data = map[string]T{}
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	slog.Debug("state saved", "path", s.path, "entries", len(data))
	return nil
}

// MemoryStore is an in-process Store for tests.
type MemoryStore[T any] struct {
	Data  map[string]T
	Saves int
	Err   error
}

func (m *MemoryStore[T]) Load() map[string]T {
	out := make(map[string]T, len(m.Data))
	for k, v := range m.Data {
		out[k] = v
	}
	return out
}

func (m *MemoryStore[T]) Save(data map[string]T) error {
	if m.Err != nil {
		return m.Err
	}
	m.Saves++
	m.Data = make(map[string]T, len(data))
	for k, v := range data {
		m.Data[k] = v
	}
	return nil
}
