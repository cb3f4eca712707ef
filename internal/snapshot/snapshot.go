// Package snapshot persists session state as JSON files.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"improv/host/internal/improv"
)

// Store writes one file per save under dir, named
// session-<name-or-unix-timestamp>.json. The directory is created on
// first use.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

// Save serializes st and returns the path written. Write failures are the
// caller's problem to surface; there is no fallback for lost persistence.
func (s *Store) Save(name string, st improv.State) (string, error) {
	if name == "" {
		name = strconv.FormatInt(time.Now().Unix(), 10)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create sessions dir %s: %w", s.dir, err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode session state: %w", err)
	}
	path := filepath.Join(s.dir, "session-"+name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return path, nil
}

// Load reads a snapshot written by Save.
func (s *Store) Load(name string) (improv.State, error) {
	path := filepath.Join(s.dir, "session-"+name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return improv.State{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var st improv.State
	if err := json.Unmarshal(data, &st); err != nil {
		return improv.State{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return st, nil
}
