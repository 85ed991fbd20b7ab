// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package restore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxponych/denali/internal/ignore"
	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/snapshot"
	"github.com/maxponych/denali/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestRestoreRoundTrip(t *testing.T) {
	st := newTestStore(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("world"), 0o644))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(src, "link")))

	treeHash, _, err := snapshot.Build(st, src, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Restore(st, treeHash, dest, Options{WithConfig: true}))

	content, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "world", string(content))

	target, err := os.Readlink(filepath.Join(dest, "link"))
	require.NoError(t, err)
	require.Equal(t, "a.txt", target)
}

func TestRestoreSkipsConfigUnlessRequested(t *testing.T) {
	st := newTestStore(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, ".denali.toml"), []byte("name = \"x\""), 0o644))

	treeHash, _, err := snapshot.Build(st, src, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	dest := t.TempDir()
	require.NoError(t, Restore(st, treeHash, dest, Options{WithConfig: false}))
	_, err = os.Stat(filepath.Join(dest, ".denali.toml"))
	require.True(t, os.IsNotExist(err))

	require.NoError(t, Restore(st, treeHash, dest, Options{WithConfig: true}))
	_, err = os.Stat(filepath.Join(dest, ".denali.toml"))
	require.NoError(t, err)
}

func TestRestoreSkipsAlreadyPresentCell(t *testing.T) {
	st := newTestStore(t)
	cellSrc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cellSrc, "c.txt"), []byte("cell"), 0o644))
	cellTree, _, err := snapshot.Build(st, cellSrc, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	projectSrc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectSrc, "a.txt"), []byte("root"), 0o644))
	cells := map[string]snapshot.Graft{"mycell": {TreeHash: cellTree, Perm: 0o755}}
	treeHash, _, err := snapshot.Build(st, projectSrc, ignore.Compile(nil), "", time.Now().UTC(), cells)
	require.NoError(t, err)

	dest := t.TempDir()
	pm := manifest.ProjectManifest{Cells: map[string]manifest.CellRef{"mycell": {}}}
	require.NoError(t, Restore(st, treeHash, dest, Options{WithConfig: true, ProjectManifest: pm}))

	_, err = os.Stat(filepath.Join(dest, "mycell"))
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
}

func TestWipePreservesConfig(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, ".denali.toml"), []byte("name=\"x\""), 0o644))

	require.NoError(t, Wipe(dest, true))

	_, err := os.Stat(filepath.Join(dest, "stale.txt"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, ".denali.toml"))
	require.NoError(t, err)
}
