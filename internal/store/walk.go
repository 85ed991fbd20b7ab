// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"os"
	"path/filepath"

	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/objhash"
)

// WalkObjects calls fn once per object hash found on disk under
// objects/. Used by the garbage collector's sweep phase.
func (s *Store) WalkObjects(fn func(objhash.Hash) error) error {
	return walkShardedHashes(s.objectsRoot(), fn)
}

// WalkSnapshots calls fn once per snapshot-metadata hash found on disk
// under snapshots/meta/.
func (s *Store) WalkSnapshots(fn func(objhash.Hash) error) error {
	return walkShardedHashes(s.snapshotsMetaRoot(), fn)
}

func walkShardedHashes(root string, fn func(objhash.Hash) error) error {
	shardDirs, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &denalierr.IOError{Op: "readdir " + root, Err: err}
	}
	for _, shard := range shardDirs {
		if !shard.IsDir() {
			continue
		}
		shardPath := filepath.Join(root, shard.Name())
		files, err := os.ReadDir(shardPath)
		if err != nil {
			return &denalierr.IOError{Op: "readdir " + shardPath, Err: err}
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			hash, err := objhash.ParseHex(shard.Name() + f.Name())
			if err != nil {
				continue // not a hash-named object file; ignore stray files
			}
			if err := fn(hash); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteObject removes an object file and, if its shard directory
// becomes empty as a result, the shard directory too.
func (s *Store) DeleteObject(hash objhash.Hash) error {
	return deleteShardedHash(s.objectsRoot(), hash)
}

// DeleteSnapshot removes a snapshot-metadata file (and empty shard dir).
func (s *Store) DeleteSnapshot(hash objhash.Hash) error {
	return deleteShardedHash(s.snapshotsMetaRoot(), hash)
}

func deleteShardedHash(root string, hash objhash.Hash) error {
	path := objectPath(root, hash)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &denalierr.IOError{Op: "remove " + path, Err: err}
	}
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}
	return nil
}
