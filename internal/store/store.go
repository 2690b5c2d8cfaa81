package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketPhotos = []byte("photos")

// Keys inside bucketPhotos
var (
	keyPhotoList = []byte("photos")
	keySavedAt   = []byte("saved_at")
)

const dbFileName = "scandesk.db"

// PhotoStore implements domain.PhotoStore on a bbolt file. The last list
// read or written is kept in memory so the engine's frequent saves and the
// startup load never decode twice. With no database it is memory-only.
type PhotoStore struct {
	db   *bolt.DB
	path string

	mu      sync.RWMutex
	slot    []byte // raw JSON of the list; nil when absent
	savedAt time.Time
	primed  bool // slot mirrors the database
}

// NewPhotoStore opens (or creates) the cache database under baseCacheDir.
// Each server gets its own subdirectory so switching servers never mixes
// batches. An empty baseCacheDir selects memory-only mode.
func NewPhotoStore(baseCacheDir, serverURL string) (*PhotoStore, error) {
	if baseCacheDir == "" {
		return &PhotoStore{primed: true}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	path := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPhotos)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &PhotoStore{db: db, path: path}, nil
}

// hashServerURL names the per-server cache directory
func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:6])
}

// Path returns the database file, or "" in memory-only mode
func (s *PhotoStore) Path() string {
	return s.path
}

func (s *PhotoStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// prime copies the database slot into memory on first use
func (s *PhotoStore) prime() {
	s.mu.RLock()
	primed := s.primed
	s.mu.RUnlock()
	if primed {
		return
	}

	var raw []byte
	var savedAt time.Time
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPhotos)
		if v := b.Get(keyPhotoList); v != nil {
			raw = append([]byte(nil), v...)
		}
		if v := b.Get(keySavedAt); v != nil {
			savedAt, _ = time.Parse(time.RFC3339Nano, string(v))
		}
		return nil
	})

	s.mu.Lock()
	if !s.primed {
		s.slot = raw
		s.savedAt = savedAt
		s.primed = true
	}
	s.mu.Unlock()
}

// Load returns the cached photo list. A missing slot or undecodable content
// reports false; callers treat both as an empty list.
func (s *PhotoStore) Load() ([]string, bool) {
	s.prime()

	s.mu.RLock()
	raw := s.slot
	s.mu.RUnlock()
	if raw == nil {
		return nil, false
	}

	var photos []string
	if err := json.Unmarshal(raw, &photos); err != nil {
		return nil, false
	}
	return photos, true
}

// SavedAt reports when the list was last written
func (s *PhotoStore) SavedAt() (time.Time, bool) {
	s.prime()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedAt, !s.savedAt.IsZero()
}

// Save overwrites the cached photo list.
func (s *PhotoStore) Save(photos []string) error {
	if photos == nil {
		photos = []string{}
	}
	raw, err := json.Marshal(photos)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	s.mu.Lock()
	s.slot = raw
	s.savedAt = now
	s.primed = true
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPhotos)
		if err := b.Put(keyPhotoList, raw); err != nil {
			return err
		}
		return b.Put(keySavedAt, []byte(now.Format(time.RFC3339Nano)))
	})
}

// Clear removes the cached photo list entirely.
func (s *PhotoStore) Clear() error {
	s.mu.Lock()
	s.slot = nil
	s.savedAt = time.Time{}
	s.primed = true
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPhotos)
		return errors.Join(b.Delete(keyPhotoList), b.Delete(keySavedAt))
	})
}
