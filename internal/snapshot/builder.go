// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot builds a tree of stored objects from a working
// directory (or a single file), per spec.md §4.2.
//
// Directory traversal, symlink-no-follow stat, and the split between a
// "regular file is read and stored" / "directory is recursed" / "symlink
// target string is stored as a blob" branch are all grounded on the
// teacher's fstree/capture.go buildTree/buildEntry. Two things the
// teacher does NOT need are added here: cell grafting (spec.md §4.2
// step 2, a denali-specific tree-entry kind) and hard failure on a
// per-file permission error, where the teacher instead skips the
// offending file and continues.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/ignore"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/snapshotmeta"
	"github.com/maxponych/denali/internal/store"
	"github.com/maxponych/denali/internal/treeentry"
)

// Graft describes a cell to be embedded as a Cell tree entry at the top
// level of a snapshot (spec.md §4.2 step 2): the cell's own tree root
// and the permission bits to stamp on the synthetic mode.
type Graft struct {
	TreeHash    objhash.Hash
	Perm        uint32
	Description string
}

// Build captures root (a directory or a single file) into the store,
// applying ignoreSet to directory entries and grafting cells (by name)
// at the top level. It returns the root tree hash and the
// snapshot-metadata hash describing it.
func Build(st *store.Store, root string, ignoreSet *ignore.Set, description string, now time.Time, cells map[string]Graft) (objhash.Hash, objhash.Hash, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return objhash.Hash{}, objhash.Hash{}, &denalierr.IOError{Op: "lstat " + root, Err: err}
	}

	b := &builder{store: st, ignoreSet: ignoreSet, cells: cells}

	var rootHash objhash.Hash
	var rootMode uint32
	if info.IsDir() {
		rootHash, rootMode, err = b.buildDir(root, "", true)
	} else {
		rootHash, err = b.storeBlob(root)
		rootMode = treeentry.MakeMode(treeentry.KindRegular, uint32(info.Mode().Perm()))
	}
	if err != nil {
		return objhash.Hash{}, objhash.Hash{}, err
	}

	meta := snapshotmeta.Meta{
		Description: description,
		Timestamp:   now,
		Root:        rootHash,
		Permissions: rootMode,
	}
	metaBytes, err := snapshotmeta.Encode(meta)
	if err != nil {
		return objhash.Hash{}, objhash.Hash{}, err
	}
	snapHash, err := st.SaveSnapshot(metaBytes)
	if err != nil {
		return objhash.Hash{}, objhash.Hash{}, err
	}
	return rootHash, snapHash, nil
}

type builder struct {
	store     *store.Store
	ignoreSet *ignore.Set
	cells     map[string]Graft
}

// buildDir recurses into absPath, returning the hash of its encoded
// tree and the mode (type nibble + permission bits) of the directory
// itself. Grafted cells are only attached when atTop is true (spec.md
// §4.2: "grafted cells are passed only at the top level").
func (b *builder) buildDir(absPath, relPath string, atTop bool) (objhash.Hash, uint32, error) {
	info, err := os.Lstat(absPath)
	if err != nil {
		return objhash.Hash{}, 0, &denalierr.IOError{Op: "lstat " + absPath, Err: err}
	}

	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return objhash.Hash{}, 0, &denalierr.IOError{Op: "readdir " + absPath, Err: err}
	}

	var entries []treeentry.Entry
	for _, de := range dirEntries {
		name := de.Name()
		childRel := filepath.Join(relPath, name)
		childAbs := filepath.Join(absPath, name)

		if b.ignoreSet != nil && b.ignoreSet.Matches(filepath.ToSlash(childRel), de.IsDir()) {
			continue
		}

		childInfo, err := os.Lstat(childAbs)
		if err != nil {
			return objhash.Hash{}, 0, &denalierr.IOError{Op: "lstat " + childAbs, Err: err}
		}

		entry, err := b.buildEntry(childAbs, childRel, name, childInfo)
		if err != nil {
			return objhash.Hash{}, 0, err
		}
		entries = append(entries, entry)
	}

	if atTop {
		for name, graft := range b.cells {
			entry, err := b.graftEntry(name, graft)
			if err != nil {
				return objhash.Hash{}, 0, err
			}
			entries = append(entries, entry)
		}
	}

	encoded := treeentry.Encode(entries)
	hash, err := b.store.SaveObject(encoded)
	if err != nil {
		return objhash.Hash{}, 0, err
	}
	mode := treeentry.MakeMode(treeentry.KindDirectory, uint32(info.Mode().Perm()))
	return hash, mode, nil
}

func (b *builder) buildEntry(absPath, relPath, name string, info os.FileInfo) (treeentry.Entry, error) {
	mode := uint32(info.Mode().Perm())

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(absPath)
		if err != nil {
			return treeentry.Entry{}, &denalierr.IOError{Op: "readlink " + absPath, Err: err}
		}
		hash, err := b.store.SaveObject([]byte(target))
		if err != nil {
			return treeentry.Entry{}, err
		}
		return treeentry.Entry{
			Mode: treeentry.MakeMode(treeentry.KindSymlink, mode),
			Name: name,
			Hash: hash,
		}, nil

	case info.IsDir():
		hash, dirMode, err := b.buildDir(absPath, relPath, false)
		if err != nil {
			return treeentry.Entry{}, err
		}
		return treeentry.Entry{Mode: dirMode, Name: name, Hash: hash}, nil

	default:
		hash, err := b.storeBlob(absPath)
		if err != nil {
			return treeentry.Entry{}, err
		}
		return treeentry.Entry{
			Mode: treeentry.MakeMode(treeentry.KindRegular, mode),
			Name: name,
			Hash: hash,
		}, nil
	}
}

func (b *builder) storeBlob(absPath string) (objhash.Hash, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return objhash.Hash{}, &denalierr.IOError{Op: "read " + absPath, Err: err}
	}
	return b.store.SaveObject(content)
}

// graftEntry builds the Cell tree entry for a grafted cell: a
// snapshot-metadata record pointing at the cell's own tree root, saved
// under the snapshot namespace, named by the cell's registered name.
func (b *builder) graftEntry(name string, g Graft) (treeentry.Entry, error) {
	meta := snapshotmeta.Meta{
		Description: g.Description,
		Root:        g.TreeHash,
		Permissions: treeentry.MakeMode(treeentry.KindCell, g.Perm),
	}
	metaBytes, err := snapshotmeta.Encode(meta)
	if err != nil {
		return treeentry.Entry{}, fmt.Errorf("encode cell metadata for %q: %w", name, err)
	}
	hash, err := b.store.SaveSnapshot(metaBytes)
	if err != nil {
		return treeentry.Entry{}, err
	}
	return treeentry.Entry{
		Mode: treeentry.MakeMode(treeentry.KindCell, g.Perm),
		Name: name,
		Hash: hash,
	}, nil
}

// AppendCellIgnores extends ignoreSet with a pattern excluding each
// cell path that lies under source, so a cell is not also captured as
// plain directory content alongside its Cell graft (spec.md §4.2,
// "Ignore rules").
func AppendCellIgnores(ignoreSet *ignore.Set, source string, cellPaths []string) {
	for _, path := range cellPaths {
		rel, err := filepath.Rel(source, path)
		if err != nil || rel == "." || len(rel) >= 2 && rel[:2] == ".." {
			continue
		}
		ignoreSet.Add(filepath.ToSlash(rel))
	}
}
