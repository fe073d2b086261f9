// Package jsonfile implements the document store over a single JSON file
// per entity set. Domain entities round-trip through a discriminator-tagged
// encoding, so heterogeneous documents share one file format.
package jsonfile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Store is a generic write-through JSON document store.
type Store[T any] struct {
	path string
	def  T
	log  zerolog.Logger
}

// New creates a store over path. def is returned by Load whenever the
// backing file is absent, empty or fails to parse.
func New[T any](path string, def T, log zerolog.Logger) *Store[T] {
	return &Store[T]{path: path, def: def, log: log}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Load reads the whole document from disk. Never fails: an absent, empty or
// unparseable file yields the configured default (logged, non-fatal).
func (s *Store[T]) Load() T {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Error().Err(err).Str("path", s.path).Msg("failed to read document, using default")
		}
		return s.def
	}
	if len(data) == 0 {
		return s.def
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to decode document, using default")
		return s.def
	}
	s.log.Debug().Str("path", s.path).Msg("document loaded")
	return doc
}

// Save serializes the whole document and overwrites the backing file,
// creating parent directories as needed.
func (s *Store[T]) Save(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	s.log.Debug().Str("path", s.path).Msg("document saved")
	return nil
}
