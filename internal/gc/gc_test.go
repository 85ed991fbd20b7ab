// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package gc

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

func TestCollectKeepsReachableDeletesOrphans(t *testing.T) {
	st := newTestStore(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("keep me"), 0o644))
	_, liveSnap, err := snapshot.Build(st, src, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	orphanSrc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(orphanSrc, "b.txt"), []byte("orphan me"), 0o644))
	_, orphanSnap, err := snapshot.Build(st, orphanSrc, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	projects := map[string]manifest.ProjectManifest{
		"proj": {Snapshots: map[string]manifest.SnapshotRef{
			"only": {Hash: liveSnap.String(), Timestamp: time.Now()},
		}},
	}

	result, err := Collect(st, manifest.MainManifest{}, projects, false)
	require.NoError(t, err)
	require.Contains(t, result.DeletedSnapshots, orphanSnap)
	require.NotContains(t, result.DeletedSnapshots, liveSnap)

	require.False(t, st.HasSnapshot(orphanSnap))
	require.True(t, st.HasSnapshot(liveSnap))
}

func TestCollectDryRunDeletesNothing(t *testing.T) {
	st := newTestStore(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("x"), 0o644))
	_, orphanSnap, err := snapshot.Build(st, src, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	result, err := Collect(st, manifest.MainManifest{}, nil, true)
	require.NoError(t, err)
	require.Contains(t, result.DeletedSnapshots, orphanSnap)
	require.True(t, st.HasSnapshot(orphanSnap))
}

func TestCollectPreservesTombstonedSnapshotObjects(t *testing.T) {
	st := newTestStore(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("x"), 0o644))
	_, snapHash, err := snapshot.Build(st, src, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	projects := map[string]manifest.ProjectManifest{
		"proj": {Snapshots: map[string]manifest.SnapshotRef{
			"deleted-one": {Hash: snapHash.String(), Timestamp: time.Now(), IsDeleted: true},
		}},
	}

	result, err := Collect(st, manifest.MainManifest{}, projects, false)
	require.NoError(t, err)
	require.NotContains(t, result.DeletedSnapshots, snapHash)
	require.True(t, st.HasSnapshot(snapHash))
}

func TestCollectTracesCellCycleSafely(t *testing.T) {
	st := newTestStore(t)
	cellSrc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cellSrc, "c.txt"), []byte("cell content"), 0o644))
	cellTree, _, err := snapshot.Build(st, cellSrc, ignore.Compile(nil), "", time.Now().UTC(), nil)
	require.NoError(t, err)

	projectSrc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectSrc, "a.txt"), []byte("root content"), 0o644))
	cells := map[string]snapshot.Graft{
		"mycell": {TreeHash: cellTree, Perm: 0o755},
	}
	_, snapHash, err := snapshot.Build(st, projectSrc, ignore.Compile(nil), "", time.Now().UTC(), cells)
	require.NoError(t, err)

	projects := map[string]manifest.ProjectManifest{
		"proj": {Snapshots: map[string]manifest.SnapshotRef{
			"only": {Hash: snapHash.String(), Timestamp: time.Now()},
		}},
	}

	result, err := Collect(st, manifest.MainManifest{}, projects, false)
	require.NoError(t, err)
	require.True(t, st.HasObject(cellTree))
	require.Empty(t, result.DeletedObjects)
}
