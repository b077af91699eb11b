package activity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	DefaultStorageFileName = ".sonic-vault-activity.json"
)

// Storage persists the queue of not-yet-confirmed optimistic entries to
// a local JSON file. It is a non-authoritative cache: entries are pruned
// on confirmation or after the grace period, and it is never consulted
// for balances or debt.
type Storage struct {
	filePath string
	mu       sync.Mutex
	entries  map[string]*Entry
}

type queueFile struct {
	Entries []*Entry `json:"entries"`
}

// NewStorage creates a storage instance, loading any existing queue
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
		entries:  make(map[string]*Entry),
	}

	if err := storage.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load activity queue: %w", err)
		}
	}

	return storage, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file queueFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal activity queue: %w", err)
	}

	for _, entry := range file.Entries {
		s.entries[entry.ID] = entry
	}

	return nil
}

// save writes the queue with an atomic temp-file rename. Callers hold
// the lock.
func (s *Storage) save() error {
	file := queueFile{Entries: make([]*Entry, 0, len(s.entries))}
	for _, entry := range s.entries {
		file.Entries = append(file.Entries, entry)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal activity queue: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write activity queue: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Add stores an optimistic entry
func (s *Storage) Add(entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.ID] = entry
	return s.save()
}

// RemoveByTxHash drops any entries matching a confirmed transaction
func (s *Storage) RemoveByTxHash(txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for id, entry := range s.entries {
		if entry.TxHash == txHash {
			delete(s.entries, id)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return s.save()
}

// PruneExpired drops entries older than the grace period and returns how
// many were removed
func (s *Storage) PruneExpired(grace time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-grace)
	removed := 0
	for id, entry := range s.entries {
		if entry.Timestamp.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save()
}

// List returns all pending optimistic entries
func (s *Storage) List() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	return entries
}

// Count returns the number of pending entries
func (s *Storage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
