// Package prefs is the small synchronous key/value store used for settings
// and other scalar state. Values are JSON strings kept in one file and
// rewritten on every Set.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DefaultQuota mirrors the usual per-origin limit of browser local storage.
const DefaultQuota = 5 << 20

// ErrQuotaExceeded is returned by Set when the new value would push the
// total size past the quota. The previous value is kept.
var ErrQuotaExceeded = errors.New("prefs: quota exceeded")

// Synchronous keys.
const (
	KeyRecentSearches       = "recent_searches"
	KeyCategories           = "categories"
	KeyFilters              = "filters"
	KeyNotificationSettings = "notification_settings"
	KeyIdentity             = "identity"
)

// Store is a quota-limited JSON key/value file. A Store with an empty path
// lives in memory only. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	quota  int
	values map[string]string
	size   int
}

// Open loads the file at path. A missing file is an empty store; a corrupt
// one is reported so the caller can decide whether to start over.
func Open(path string, quota int) (*Store, error) {
	if quota <= 0 {
		quota = DefaultQuota
	}
	s := &Store{path: path, quota: quota, values: map[string]string{}}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("decode prefs: %w", err)
	}
	for k, v := range s.values {
		s.size += len(k) + len(v)
	}
	return s, nil
}

// NewMemory returns an in-memory Store.
func NewMemory(quota int) *Store {
	s, _ := Open("", quota)
	return s
}

// Get returns the raw string stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and writes the file before returning.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, had := s.values[key]
	size := s.size + len(value)
	if had {
		size -= len(old)
	} else {
		size += len(key)
	}
	if size > s.quota {
		return fmt.Errorf("%w: %s needs %d bytes, quota %d", ErrQuotaExceeded, key, size, s.quota)
	}

	s.values[key] = value
	prevSize := s.size
	s.size = size
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = old
		} else {
			delete(s.values, key)
		}
		s.size = prevSize
		return err
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil
	}
	delete(s.values, key)
	s.size -= len(key) + len(v)
	return s.flush()
}

// Keys returns all keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Size is the number of bytes counted against the quota.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// flush rewrites the file via a temp file and rename. Caller holds s.mu.
func (s *Store) flush() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
