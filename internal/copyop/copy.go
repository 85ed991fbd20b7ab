// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package copyop implements denali's one-way store-to-store copy
// (spec.md §4.8): a transport-free variant of sync that duplicates a
// snapshot graph from one store into another.
//
// The traversal is the same cell-aware, cycle-safe walk as
// internal/gc's mark phase — grounded on the same teacher walkTree
// shape — generalized here from "mark a hash live" to "copy the bytes
// into the destination store if it doesn't already have them."
package copyop

import (
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/snapshotmeta"
	"github.com/maxponych/denali/internal/store"
	"github.com/maxponych/denali/internal/treeentry"
)

// copier carries the destination/source stores and a visited set so a
// snapshot or tree already copied (including through a repeated Cell
// reference) is never walked twice.
type copier struct {
	dst, src *store.Store
	visited  map[objhash.Hash]bool
}

// Snapshot copies the snapshot-metadata record at hash, plus its
// transitive tree and cell closure, from src into dst.
func Snapshot(dst, src *store.Store, hash objhash.Hash) error {
	c := &copier{dst: dst, src: src, visited: map[objhash.Hash]bool{}}
	return c.copySnapshot(hash)
}

func (c *copier) copySnapshot(hash objhash.Hash) error {
	if c.visited[hash] {
		return nil
	}
	c.visited[hash] = true

	if c.dst.HasSnapshot(hash) {
		metaBytes, err := c.dst.LoadSnapshot(hash)
		if err != nil {
			return err
		}
		meta, err := snapshotmeta.Decode(metaBytes)
		if err != nil {
			return err
		}
		return c.copyTree(meta.Root)
	}

	metaBytes, err := c.src.LoadSnapshot(hash)
	if err != nil {
		return err
	}
	meta, err := snapshotmeta.Decode(metaBytes)
	if err != nil {
		return err
	}
	if err := c.copyTree(meta.Root); err != nil {
		return err
	}
	if _, err := c.dst.SaveSnapshot(metaBytes); err != nil {
		return err
	}
	return nil
}

func (c *copier) copyTree(hash objhash.Hash) error {
	if c.visited[hash] {
		return nil
	}
	c.visited[hash] = true

	var treeBytes []byte
	var err error
	if c.dst.HasObject(hash) {
		treeBytes, err = c.dst.LoadObject(hash)
	} else {
		treeBytes, err = c.src.LoadObject(hash)
	}
	if err != nil {
		return err
	}

	entries, err := treeentry.Decode(treeBytes)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		switch entry.Kind() {
		case treeentry.KindDirectory:
			if err := c.copyTree(entry.Hash); err != nil {
				return err
			}
		case treeentry.KindCell:
			if err := c.copySnapshot(entry.Hash); err != nil {
				return err
			}
		default: // Regular, Symlink
			if err := c.copyBlob(entry.Hash); err != nil {
				return err
			}
		}
	}

	if !c.dst.HasObject(hash) {
		if _, err := c.dst.SaveObject(treeBytes); err != nil {
			return err
		}
	}
	return nil
}

func (c *copier) copyBlob(hash objhash.Hash) error {
	if c.dst.HasObject(hash) {
		return nil
	}
	content, err := c.src.LoadObject(hash)
	if err != nil {
		return err
	}
	_, err = c.dst.SaveObject(content)
	return err
}
