// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package syncproto

import (
	"strconv"
	"testing"
	"time"

	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/stretchr/testify/require"
)

func hexHash(seed string) string {
	return objhash.Sum([]byte(seed)).String()
}

func TestMergeSnapshotsSameHashKeepsOlderTimestamp(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	local := map[string]manifest.SnapshotRef{"v1": {Hash: hexHash("abc"), Timestamp: newer}}
	peer := map[string]manifest.SnapshotRef{"v1": {Hash: hexHash("abc"), Timestamp: older}}

	merged, fetch := MergeSnapshots(local, peer)
	require.Equal(t, older, merged["v1"].Timestamp)
	require.Empty(t, fetch)
}

func TestMergeSnapshotsDifferentHashRenamesLoser(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	local := map[string]manifest.SnapshotRef{"v1": {Hash: hexHash("local-hash"), Timestamp: older}}
	peer := map[string]manifest.SnapshotRef{"v1": {Hash: hexHash("peer-hash"), Timestamp: newer}}

	merged, fetch := MergeSnapshots(local, peer)
	require.Equal(t, hexHash("peer-hash"), merged["v1"].Hash)

	renamedName := "v1-" + strconv.FormatInt(older.Unix(), 10)
	require.Equal(t, hexHash("local-hash"), merged[renamedName].Hash)
	require.Len(t, fetch, 1)
}

func TestMergeSnapshotsNameUniqueToOneSideFetches(t *testing.T) {
	local := map[string]manifest.SnapshotRef{}
	peer := map[string]manifest.SnapshotRef{"only-peer": {Hash: hexHash("hash1"), Timestamp: time.Now()}}

	merged, fetch := MergeSnapshots(local, peer)
	require.Contains(t, merged, "only-peer")
	require.Len(t, fetch, 1)
}

func TestMergeSnapshotsTombstonedPeerNotFetched(t *testing.T) {
	local := map[string]manifest.SnapshotRef{}
	peer := map[string]manifest.SnapshotRef{"gone": {Hash: hexHash("hash1"), Timestamp: time.Now(), IsDeleted: true}}

	_, fetch := MergeSnapshots(local, peer)
	require.Empty(t, fetch)
}

func TestMergeCellsNewerWinsAndInheritsEmptyDescription(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	local := map[string]manifest.CellRef{
		"cellA": {UUID: "u1", Description: "original description", Timestamp: older},
	}
	peer := map[string]manifest.CellRef{
		"cellA": {UUID: "u1", Description: "", Timestamp: newer},
	}

	merged, _ := MergeCells(local, peer)
	require.Len(t, merged, 1)
	for _, c := range merged {
		require.Equal(t, "original description", c.Description)
	}
}

func TestMergeCellsDisambiguatesNameCollision(t *testing.T) {
	local := map[string]manifest.CellRef{"shared": {UUID: "u1", Timestamp: time.Now()}}
	peer := map[string]manifest.CellRef{"shared": {UUID: "u2", Timestamp: time.Now()}}

	merged, _ := MergeCells(local, peer)
	require.Len(t, merged, 2)
	require.Contains(t, merged, "shared")
	require.Contains(t, merged, "shared-1")
}

func TestMergeMainResolvesByUUIDNotName(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	local := map[string]manifest.ProjectRef{
		"foo": {Manifest: "uuid-1", Timestamp: older},
	}
	peer := map[string]manifest.ProjectRef{
		"bar": {Manifest: "uuid-1", Timestamp: newer},
	}

	merged, deleted := MergeMain(local, peer)
	require.Len(t, merged, 1)
	require.Contains(t, merged, "bar")
	require.Empty(t, deleted)
}

func TestMergeMainTracksTombstonedPeerUUIDs(t *testing.T) {
	local := map[string]manifest.ProjectRef{}
	peer := map[string]manifest.ProjectRef{
		"gone": {Manifest: "uuid-2", Timestamp: time.Now(), IsDeleted: true},
	}

	_, deleted := MergeMain(local, peer)
	require.True(t, deleted["uuid-2"])
}

func TestMergeProjectNewerWinsTopLevelFields(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	local := manifest.ProjectManifest{Description: "old desc", Timestamp: older}
	peer := manifest.ProjectManifest{Description: "new desc", Timestamp: newer}

	merged, _ := MergeProject(local, peer)
	require.Equal(t, "new desc", merged.Description)
}
