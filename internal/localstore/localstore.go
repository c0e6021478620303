// Package localstore persists small keyed JSON snapshots on disk. It
// backs the admin credential, the login session and the offline cache of
// records and settings.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Well-known blob keys.
const (
	KeyAdminCredentials = "admin_credentials"
	KeyUserSession      = "user_session"
	KeyRecordsCache     = "records_cache"
	KeySettingsCache    = "settings_cache"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("localstore: key not found")

// Store writes each key as one JSON file under a directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create localstore dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Write marshals v and replaces the blob stored under key.
func (s *Store) Write(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Read unmarshals the blob stored under key into v.
func (s *Store) Read(key string, v any) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key. Missing keys are a no-op.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
