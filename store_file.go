package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// journalFormatVersion is written into the blob so a future format
// change can tell old documents apart. Nothing migrates yet.
const journalFormatVersion = 1

type journalDocument struct {
	Version int          `json:"version"`
	Shots   []ShotRecord `json:"shots"`
}

// FileStore keeps the whole journal as one JSON document on disk. It
// remembers the checksum of the bytes it last read or wrote so the
// file watcher can tell an external edit from our own save.
type FileStore struct {
	path string

	mu      sync.Mutex
	lastSum [sha256.Size]byte
	haveSum bool
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the document. A missing file is an empty journal. Both
// the current {version, shots} document and a bare top-level array are
// accepted.
func (s *FileStore) Load() ([]ShotRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	s.remember(data)

	var doc journalDocument
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc.Shots, nil
	}

	var bare []ShotRecord
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("parse %s: not a journal document", s.path)
}

// Save rewrites the whole document.
func (s *FileStore) Save(shots []ShotRecord) error {
	doc := journalDocument{Version: journalFormatVersion, Shots: shots}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.remember(data)
	return nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// ChangedOnDisk reports whether the file content no longer matches the
// bytes this store last read or wrote. A vanished file counts as
// changed once something had been loaded or saved before.
func (s *FileStore) ChangedOnDisk() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.haveSum, nil
		}
		return false, fmt.Errorf("read %s: %w", s.path, err)
	}

	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.haveSum || sum != s.lastSum, nil
}

func (s *FileStore) remember(data []byte) {
	sum := sha256.Sum256(data)
	s.mu.Lock()
	s.lastSum = sum
	s.haveSum = true
	s.mu.Unlock()
}
