// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxponych/denali/internal/ignore"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/snapshotmeta"
	"github.com/maxponych/denali/internal/store"
	"github.com/maxponych/denali/internal/treeentry"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestBuildSimpleTree(t *testing.T) {
	st := newTestStore(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world"), 0o644))

	treeHash, snapHash, err := Build(st, root, ignore.Compile(nil), "first snapshot", time.Now().UTC(), nil)
	require.NoError(t, err)
	require.False(t, treeHash.IsZero())
	require.False(t, snapHash.IsZero())

	metaBytes, err := st.LoadSnapshot(snapHash)
	require.NoError(t, err)
	meta, err := snapshotmeta.Decode(metaBytes)
	require.NoError(t, err)
	require.Equal(t, "first snapshot", meta.Description)
	require.Equal(t, treeHash, meta.Root)

	treeBytes, err := st.LoadObject(treeHash)
	require.NoError(t, err)
	entries, err := treeentry.Decode(treeBytes)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestBuildRespectsIgnoreSet(t *testing.T) {
	st := newTestStore(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.log"), []byte("2"), 0o644))

	treeHash, _, err := Build(st, root, ignore.Compile([]string{"*.log"}), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	treeBytes, err := st.LoadObject(treeHash)
	require.NoError(t, err)
	entries, err := treeentry.Decode(treeBytes)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "keep.txt", entries[0].Name)
}

func TestBuildGraftsCellAsTopLevelEntry(t *testing.T) {
	st := newTestStore(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	cellTree := objhash.Sum([]byte("pretend-cell-tree"))
	cells := map[string]Graft{
		"mycell": {TreeHash: cellTree, Perm: 0o755, Description: "a cell"},
	}

	treeHash, _, err := Build(st, root, ignore.Compile(nil), "", time.Now().UTC(), cells)
	require.NoError(t, err)

	treeBytes, err := st.LoadObject(treeHash)
	require.NoError(t, err)
	entries, err := treeentry.Decode(treeBytes)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var cellEntry *treeentry.Entry
	for i := range entries {
		if entries[i].Name == "mycell" {
			cellEntry = &entries[i]
		}
	}
	require.NotNil(t, cellEntry)
	require.Equal(t, treeentry.KindCell, cellEntry.Kind())

	metaBytes, err := st.LoadSnapshot(cellEntry.Hash)
	require.NoError(t, err)
	meta, err := snapshotmeta.Decode(metaBytes)
	require.NoError(t, err)
	require.Equal(t, cellTree, meta.Root)
}

func TestBuildSingleFileRoot(t *testing.T) {
	st := newTestStore(t)
	root := t.TempDir()
	filePath := filepath.Join(root, "solo.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("alone"), 0o644))

	blobHash, snapHash, err := Build(st, filePath, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	content, err := st.LoadObject(blobHash)
	require.NoError(t, err)
	require.Equal(t, "alone", string(content))

	metaBytes, err := st.LoadSnapshot(snapHash)
	require.NoError(t, err)
	meta, err := snapshotmeta.Decode(metaBytes)
	require.NoError(t, err)
	require.Equal(t, blobHash, meta.Root)
}

func TestAppendCellIgnoresAddsDescendantPaths(t *testing.T) {
	set := ignore.Compile(nil)
	AppendCellIgnores(set, "/proj/source", []string{"/proj/source/cells/one", "/other/place"})
	require.True(t, set.Matches("cells/one", true))
	require.False(t, set.Matches("place", true))
}
