// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements denali's content-addressed object store:
// compress-then-hash put/get of opaque objects and snapshot-metadata
// records, rooted at a single store directory (spec.md §4.1).
//
// Grounded on the teacher's fstree content-addressing discipline
// (BLAKE3 hash of stored bytes, shard-by-hash-prefix directory layout)
// and good-night-oppie-helios's cas.BLAKE3Store for the LRU read-cache
// and structured-logging shape.
package store

import (
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/objhash"
)

const (
	objectsDir         = "objects"
	snapshotsDir        = "snapshots"
	snapshotsMetaDir    = "meta"
	snapshotsProjectsDir = "projects"
	templatesDir        = "templates"
	mainManifestFile    = "manifest.json"
)

// Store is a single content-addressed store root.
type Store struct {
	root   string
	logger *slog.Logger
	cache  *lru.Cache[objhash.Hash, []byte]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a structured logger (default: a warn-level stderr
// text handler, matching the teacher's BLAKE3Store default).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithCacheSize bounds an in-memory LRU cache in front of LoadObject and
// LoadSnapshot. Zero (the default) disables caching.
func WithCacheSize(n int) Option {
	return func(s *Store) {
		if n <= 0 {
			return
		}
		c, err := lru.New[objhash.Hash, []byte](n)
		if err == nil {
			s.cache = c
		}
	}
}

// Open returns a Store rooted at root, creating the on-disk layout
// (objects/, snapshots/meta/, snapshots/projects/, templates/) if it
// does not already exist.
func Open(root string, opts ...Option) (*Store, error) {
	s := &Store{root: root}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if err := s.ensureLayout(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureLayout() error {
	dirs := []string{
		s.objectsRoot(),
		s.snapshotsMetaRoot(),
		s.snapshotsProjectsRoot(),
		s.templatesRoot(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return &denalierr.IOError{Op: "mkdir " + d, Err: err}
		}
	}
	return nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) objectsRoot() string          { return filepath.Join(s.root, objectsDir) }
func (s *Store) snapshotsMetaRoot() string    { return filepath.Join(s.root, snapshotsDir, snapshotsMetaDir) }
func (s *Store) snapshotsProjectsRoot() string { return filepath.Join(s.root, snapshotsDir, snapshotsProjectsDir) }
func (s *Store) templatesRoot() string        { return filepath.Join(s.root, templatesDir) }

// MainManifestPath returns the path to the main manifest file.
func (s *Store) MainManifestPath() string { return filepath.Join(s.root, mainManifestFile) }

// ProjectManifestPath returns the path to a project manifest by uuid.
func (s *Store) ProjectManifestPath(uuid string) string {
	return filepath.Join(s.snapshotsProjectsRoot(), uuid+".json")
}

// TemplateConfigPath returns the path to a template's post-apply config.
func (s *Store) TemplateConfigPath(name string) string {
	return filepath.Join(s.templatesRoot(), name+".toml")
}

func objectPath(root string, h objhash.Hash) string {
	dir, file := h.ShardDir()
	return filepath.Join(root, dir, file)
}

// SaveObject compresses content, hashes the compressed bytes, and
// writes it under objects/<shard>/<rest>, returning the hash.
func (s *Store) SaveObject(content []byte) (objhash.Hash, error) {
	return s.save(s.objectsRoot(), content)
}

// LoadObject decompresses and returns the object named by hash.
func (s *Store) LoadObject(hash objhash.Hash) ([]byte, error) {
	return s.load(s.objectsRoot(), "object", hash)
}

// SaveSnapshot compresses content and writes it under
// snapshots/meta/<shard>/<rest>, returning the hash.
func (s *Store) SaveSnapshot(content []byte) (objhash.Hash, error) {
	return s.save(s.snapshotsMetaRoot(), content)
}

// LoadSnapshot decompresses and returns the snapshot-metadata bytes
// named by hash.
func (s *Store) LoadSnapshot(hash objhash.Hash) ([]byte, error) {
	return s.load(s.snapshotsMetaRoot(), "snapshot", hash)
}

func (s *Store) save(root string, content []byte) (objhash.Hash, error) {
	compressed, err := compress(content)
	if err != nil {
		return objhash.Hash{}, &denalierr.CompressionError{Op: "compress", Err: err}
	}
	hash := objhash.Sum(compressed)
	path := objectPath(root, hash)

	if _, err := os.Stat(path); err == nil {
		// Already present: content-addressed, so this write is a no-op.
		if s.cache != nil {
			s.cache.Add(hash, content)
		}
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return objhash.Hash{}, &denalierr.IOError{Op: "mkdir", Err: err}
	}
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return objhash.Hash{}, &denalierr.IOError{Op: "write " + path, Err: err}
	}
	if s.cache != nil {
		s.cache.Add(hash, content)
	}
	return hash, nil
}

func (s *Store) load(root, kind string, hash objhash.Hash) ([]byte, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(hash); ok {
			return v, nil
		}
	}
	path := objectPath(root, hash)
	compressed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &denalierr.NotFoundError{Kind: kind, Name: hash.String()}
		}
		return nil, &denalierr.IOError{Op: "read " + path, Err: err}
	}
	content, err := decompress(compressed)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(hash, content)
	}
	return content, nil
}

// HasObject reports whether an object with the given hash already
// exists in the store, without loading or decompressing it.
func (s *Store) HasObject(hash objhash.Hash) bool {
	_, err := os.Stat(objectPath(s.objectsRoot(), hash))
	return err == nil
}

// HasSnapshot reports whether a snapshot-metadata record exists.
func (s *Store) HasSnapshot(hash objhash.Hash) bool {
	_, err := os.Stat(objectPath(s.snapshotsMetaRoot(), hash))
	return err == nil
}

// Logger returns the store's structured logger.
func (s *Store) Logger() *slog.Logger { return s.logger }
