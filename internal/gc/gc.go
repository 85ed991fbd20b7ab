// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package gc implements denali's two-phase mark-and-sweep garbage
// collector (spec.md §4.5): trace every manifest-reachable object and
// snapshot-metadata record, then delete whatever the store holds that
// the trace never reached.
//
// The recursive "decode a tree, recurse into directories, follow Cell
// entries into another snapshot-metadata record" traversal reuses the
// same shape as internal/restore's walk, grounded on the teacher's
// fstree/snapshot.go walkTree — generalized here from "visit each
// entry" to "mark each entry's hash live," and from a flat symlink/file
// split to the project's own type taxonomy including the cycle-prone
// Cell kind.
package gc

import (
	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/snapshotmeta"
	"github.com/maxponych/denali/internal/store"
	"github.com/maxponych/denali/internal/treeentry"
)

// Result summarizes what a collection pass found (dry-run) or removed.
type Result struct {
	LiveObjects      int
	LiveSnapshots    int
	DeletedObjects   []objhash.Hash
	DeletedSnapshots []objhash.Hash
}

// tracer carries the two live sets and a visited guard (shared across
// both, since snapshot hashes and tree hashes never collide within
// their own namespaces but a Cell hash must still only be traversed
// once).
type tracer struct {
	store         *store.Store
	liveObjects   map[objhash.Hash]bool
	liveSnapshots map[objhash.Hash]bool
	visited       map[objhash.Hash]bool
}

// Collect traces every object and snapshot-metadata record reachable
// from main and projects, then sweeps anything unreached. When dryRun
// is true, nothing is deleted — Result.Deleted* reports what would be.
func Collect(st *store.Store, main manifest.MainManifest, projects map[string]manifest.ProjectManifest, dryRun bool) (Result, error) {
	t := &tracer{
		store:         st,
		liveObjects:   map[objhash.Hash]bool{},
		liveSnapshots: map[objhash.Hash]bool{},
		visited:       map[objhash.Hash]bool{},
	}

	for _, pm := range projects {
		for _, snap := range pm.Snapshots {
			if err := t.markSnapshotHex(snap.Hash); err != nil {
				return Result{}, err
			}
		}
		for _, cell := range pm.Cells {
			for _, snap := range cell.Snapshots {
				if err := t.markSnapshotHex(snap.Hash); err != nil {
					return Result{}, err
				}
			}
		}
	}

	for _, tmpl := range main.Templates {
		h, err := objhash.ParseHex(tmpl.Tree)
		if err != nil {
			continue
		}
		if err := t.markTree(h); err != nil {
			return Result{}, err
		}
	}

	result := Result{LiveObjects: len(t.liveObjects), LiveSnapshots: len(t.liveSnapshots)}

	if err := st.WalkObjects(func(h objhash.Hash) error {
		if !t.liveObjects[h] {
			result.DeletedObjects = append(result.DeletedObjects, h)
		}
		return nil
	}); err != nil {
		return Result{}, err
	}

	if err := st.WalkSnapshots(func(h objhash.Hash) error {
		if !t.liveSnapshots[h] {
			result.DeletedSnapshots = append(result.DeletedSnapshots, h)
		}
		return nil
	}); err != nil {
		return Result{}, err
	}

	if dryRun {
		return result, nil
	}

	for _, h := range result.DeletedObjects {
		if err := st.DeleteObject(h); err != nil {
			return result, err
		}
	}
	for _, h := range result.DeletedSnapshots {
		if err := st.DeleteSnapshot(h); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (t *tracer) markSnapshotHex(hex string) error {
	if hex == "" {
		return nil
	}
	h, err := objhash.ParseHex(hex)
	if err != nil {
		return nil
	}
	return t.markSnapshot(h)
}

// markSnapshot loads the snapshot-metadata record at hash, marks it
// live (even if the snapshot itself is tombstoned — spec.md §4.5
// requires tombstoned entries' backing objects to survive until sync
// replay reconciles both peers), and marks its root tree live.
func (t *tracer) markSnapshot(hash objhash.Hash) error {
	if t.visited[hash] {
		return nil
	}
	t.visited[hash] = true
	t.liveSnapshots[hash] = true

	metaBytes, err := t.store.LoadSnapshot(hash)
	if err != nil {
		return err
	}
	meta, err := snapshotmeta.Decode(metaBytes)
	if err != nil {
		return err
	}
	return t.markTree(meta.Root)
}

// markTree decodes the tree object at hash, marks it live, and
// recurses: directories recurse directly, Cell entries recurse through
// markSnapshot (their hash names a snapshot-metadata record, not a
// tree), and the shared visited set guards against cycles through
// repeated cells.
func (t *tracer) markTree(hash objhash.Hash) error {
	if t.visited[hash] {
		return nil
	}
	t.visited[hash] = true
	t.liveObjects[hash] = true

	treeBytes, err := t.store.LoadObject(hash)
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
			if err := t.markTree(entry.Hash); err != nil {
				return err
			}
		case treeentry.KindCell:
			if err := t.markSnapshot(entry.Hash); err != nil {
				return err
			}
		default: // Regular, Symlink
			t.liveObjects[entry.Hash] = true
		}
	}
	return nil
}
