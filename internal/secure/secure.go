// Package secure is a small file-backed store for credentials and tokens.
// Each key is one JSON file under the session's secure directory, written
// with owner-only permissions.
package secure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists JSON blobs under dir, one file per key.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first Set.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Set marshals v and writes it under key, replacing any previous value.
func (s *Store) Set(key string, v any) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create secure dir: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	// Write-then-rename so a crash never leaves a truncated file.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Get unmarshals the value stored under key into v. Returns found=false
// when the key has never been set.
func (s *Store) Get(key string, v any) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Remove deletes the value stored under key. Removing a missing key is a
// no-op.
func (s *Store) Remove(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Wipe removes every stored value.
func (s *Store) Wipe() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read secure dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\.") {
		return fmt.Errorf("invalid secure store key %q", key)
	}
	return nil
}
