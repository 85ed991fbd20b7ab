// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package root

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxponych/denali/internal/config"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/filter"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/reconcile"
	"github.com/stretchr/testify/require"
)

func writeSourceTree(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("world"), 0o644))
}

func TestSaveLoadProjectRoundTrip(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)

	source := t.TempDir()
	writeSourceTree(t, source)
	now := time.Now().UTC()

	require.NoError(t, r.SaveProjectSnapshot("demo", source, "v1", "first", nil, nil, now))

	names, err := r.List("demo", "")
	require.NoError(t, err)
	require.Equal(t, []string{"v1"}, names)

	dest := t.TempDir()
	require.NoError(t, r.LoadProjectSnapshot("demo", dest, filter.Filter{}, false, false))

	data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
	data, err = os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "world", string(data))
}

func TestSaveProjectSnapshotRejectsDuplicateName(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	source := t.TempDir()
	writeSourceTree(t, source)
	now := time.Now().UTC()

	require.NoError(t, r.SaveProjectSnapshot("demo", source, "v1", "", nil, nil, now))
	err = r.SaveProjectSnapshot("demo", source, "v1", "", nil, nil, now)
	require.ErrorIs(t, err, denalierr.ErrSnapshotExists)
}

func TestRemoveProjectTombstonesAndCleanSweepsOrphans(t *testing.T) {
	storeDir := filepath.Join(t.TempDir(), "store")
	r, err := Open(storeDir)
	require.NoError(t, err)
	source := t.TempDir()
	writeSourceTree(t, source)
	now := time.Now().UTC()
	require.NoError(t, r.SaveProjectSnapshot("demo", source, "v1", "", nil, nil, now))

	require.NoError(t, r.RemoveProject("demo"))
	_, err = r.List("demo", "")
	require.Error(t, err)

	result, err := r.Clean(false)
	require.NoError(t, err)
	require.NotEmpty(t, result.DeletedObjects)
}

func TestCopyProjectSnapshotBetweenStores(t *testing.T) {
	src, err := Open(filepath.Join(t.TempDir(), "src"))
	require.NoError(t, err)
	dst, err := Open(filepath.Join(t.TempDir(), "dst"))
	require.NoError(t, err)

	source := t.TempDir()
	writeSourceTree(t, source)
	now := time.Now().UTC()
	require.NoError(t, src.SaveProjectSnapshot("demo", source, "v1", "", nil, nil, now))

	srcPM, _, err := src.loadProject("demo")
	require.NoError(t, err)
	snapHash, err := objhash.ParseHex(srcPM.Snapshots["v1"].Hash)
	require.NoError(t, err)

	require.NoError(t, dst.Copy(src, "demo", "", "v1"))
	require.True(t, dst.Store.HasSnapshot(snapHash))
}

func TestTemplateNewListGetRemove(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	treeHash := objhash.Sum([]byte("tree"))

	require.NoError(t, r.NewTemplate("scaffold", treeHash, config.Template{Placeholders: []string{"name"}}))
	require.Equal(t, []string{"scaffold"}, r.Templates())

	gotHash, _, err := r.GetTemplate("scaffold")
	require.NoError(t, err)
	require.Equal(t, treeHash, gotHash)

	require.NoError(t, r.RemoveTemplate("scaffold"))
	require.Empty(t, r.Templates())
}

type acceptAll struct{}

func (acceptAll) Confirm(reconcile.Offer) (bool, error) { return true, nil }

func TestReconcileCreatesThenUpdatesProject(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	source := t.TempDir()
	now := time.Now().UTC()

	wt := config.WorkingTree{Root: config.RootConfig{Name: "demo", Description: "first"}}
	name, err := r.Reconcile(source, wt, now, acceptAll{})
	require.NoError(t, err)
	require.Equal(t, "demo", name)

	wt.Root.Description = "second"
	name, err = r.Reconcile(source, wt, now.Add(time.Minute), acceptAll{})
	require.NoError(t, err)
	require.Equal(t, "demo", name)

	pm, _, err := r.loadProject("demo")
	require.NoError(t, err)
	require.Equal(t, "second", pm.Description)
}

func TestReconcileRenamesOnPathMatch(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	source := t.TempDir()
	now := time.Now().UTC()

	wt := config.WorkingTree{Root: config.RootConfig{Name: "oldname"}}
	_, err = r.Reconcile(source, wt, now, acceptAll{})
	require.NoError(t, err)

	wt.Root.Name = "newname"
	name, err := r.Reconcile(source, wt, now.Add(time.Minute), acceptAll{})
	require.NoError(t, err)
	require.Equal(t, "newname", name)

	_, hasOld := r.Main.Projects["oldname"]
	require.False(t, hasOld)
}
