// Package state persists the last-known-synced document between sync
// cycles: the set of paths believed to exist on both sides, the set
// downloaded during the previous cycle, and known content hashes.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/brandstaetter/brandybox/internal/atomicfile"
)

// Document is the JSON shape persisted to sync_state.json. A missing or
// malformed file is never an error: callers get an empty Document (no
// paths, an empty non-nil FileHashes map) and
// proceed as if this were the very first sync.
type Document struct {
	Paths           []string          `json:"paths"`
	DownloadedPaths []string          `json:"downloaded_paths"`
	FileHashes      map[string]string `json:"file_hashes"`
}

// Store reads and writes a Document at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store backed by the sync state file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the state document. Any read or parse error yields an empty
// Document rather than propagating: a corrupt state file should not block
// syncing, it should just look like no prior sync ever ran.
func (s *Store) Load() Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Document{FileHashes: map[string]string{}}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{FileHashes: map[string]string{}}
	}
	if doc.FileHashes == nil {
		doc.FileHashes = map[string]string{}
	}
	return doc
}

// Save atomically persists doc, with paths sorted for stable diffs of the
// file on disk.
func (s *Store) Save(doc Document) error {
	sort.Strings(doc.Paths)
	if doc.FileHashes == nil {
		doc.FileHashes = map[string]string{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.Write(s.path, data, 0o600)
}
