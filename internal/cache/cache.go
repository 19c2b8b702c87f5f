// Package cache remembers which polls each user has answered and what they
// answered, so surfaces can skip answered polls and show a user's own answer
// without a store round trip.
//
// The cache is advisory: the store's uniqueness constraint stays the source of
// truth. State can be persisted to a JSON file with an atomic write and
// restored on restart.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rewired-gh/pollsight/internal/models"
)

// ErrNotResponded is returned by Get when the user has no cached answer.
var ErrNotResponded = errors.New("user has not responded to this poll")

// Entry is one cached answer.
type Entry struct {
	Value       models.Value `json:"value"`
	RespondedAt time.Time    `json:"responded_at"`
}

// Cache is a concurrency-safe user -> poll -> answer map.
type Cache struct {
	entries map[string]map[string]Entry
	mu      sync.RWMutex

	filePath        string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// persistenceFile is the on-disk layout.
type persistenceFile struct {
	Version string                      `json:"version"`
	SavedAt time.Time                   `json:"saved_at"`
	Entries map[string]map[string]Entry `json:"entries"`
}

const fileVersion = "1.0"

// New creates an empty cache persisted to filePath. An empty path uses the OS
// temp directory.
func New(filePath string) *Cache {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "pollsight", "responses.json")
	}
	return &Cache{
		entries:         make(map[string]map[string]Entry),
		filePath:        filePath,
		filePermissions: 0o644,
		dirPermissions:  0o755,
	}
}

// Path returns the persistence file path.
func (c *Cache) Path() string { return c.filePath }

// Save records userID's answer to pollID, replacing any previous one.
func (c *Cache) Save(userID, pollID string, v models.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()

	polls, ok := c.entries[userID]
	if !ok {
		polls = make(map[string]Entry)
		c.entries[userID] = polls
	}
	polls[pollID] = Entry{Value: v, RespondedAt: time.Now().UTC()}
}

// Get returns userID's cached answer to pollID.
func (c *Cache) Get(userID, pollID string) (models.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[userID][pollID]
	if !ok {
		return models.Value{}, ErrNotResponded
	}
	return e.Value, nil
}

// HasResponded reports whether userID has a cached answer to pollID.
func (c *Cache) HasResponded(userID, pollID string) bool {
	_, err := c.Get(userID, pollID)
	return err == nil
}

// Answered returns the poll IDs userID has answered, in no particular order.
func (c *Cache) Answered(userID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.entries[userID]))
	for id := range c.entries[userID] {
		ids = append(ids, id)
	}
	return ids
}

// Clear forgets every answer of userID.
func (c *Cache) Clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Len returns the number of cached answers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, polls := range c.entries {
		n += len(polls)
	}
	return n
}

// Persist writes the cache to its file.
func (c *Cache) Persist() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, c.dirPermissions); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(persistenceFile{
		Version: fileVersion,
		SavedAt: time.Now().UTC(),
		Entries: c.entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	// Write to a temp file first and rename, so readers never see a partial file.
	tempPath := c.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, c.filePermissions); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tempPath, c.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// Load replaces the cache with the contents of its file. A missing file is
// not an error.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Stale temp file from an interrupted Persist.
	tempPath := c.filePath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	data, err := os.ReadFile(c.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var file persistenceFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	c.entries = file.Entries
	if c.entries == nil {
		c.entries = make(map[string]map[string]Entry)
	}
	return nil
}
