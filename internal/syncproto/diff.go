// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package syncproto

import (
	"fmt"

	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/objhash"
)

// MergeSnapshots merges a local and a peer snapshot map by name,
// following spec.md §4.7's per-name rules (ported from
// original_source/src/remote/sync.rs's diff_snapshots): same hash under
// the same name keeps the older (creation) timestamp; different hash
// under the same name keeps both, the newer under the original name and
// the loser renamed "name-<unix-timestamp>"; a name unique to one side
// whose hash collides with a differently-named entry on the other side
// keeps the older name; anything else unique to one side is taken
// as-is, and its hash is queued onto the fetch list unless tombstoned.
func MergeSnapshots(local, peer map[string]manifest.SnapshotRef) (map[string]manifest.SnapshotRef, []objhash.Hash) {
	merged := make(map[string]manifest.SnapshotRef, len(local)+len(peer))
	var fetch []objhash.Hash

	localByHash := map[string]string{}
	for name, ref := range local {
		localByHash[ref.Hash] = name
	}
	peerByHash := map[string]string{}
	for name, ref := range peer {
		peerByHash[ref.Hash] = name
	}

	handledPeerNames := map[string]bool{}

	for name, lref := range local {
		pref, sameName := peer[name]
		switch {
		case sameName && lref.Hash == pref.Hash:
			ts := lref.Timestamp
			if pref.Timestamp.Before(ts) {
				ts = pref.Timestamp
			}
			merged[name] = manifest.SnapshotRef{Hash: lref.Hash, Timestamp: ts, IsDeleted: lref.IsDeleted && pref.IsDeleted}
			handledPeerNames[name] = true

		case sameName:
			winner, loser := lref, pref
			if pref.Timestamp.After(lref.Timestamp) {
				winner, loser = pref, lref
			}
			merged[name] = winner
			merged[fmt.Sprintf("%s-%d", name, loser.Timestamp.Unix())] = loser
			handledPeerNames[name] = true
			// Only the peer's content is missing locally; local already
			// has lref's blob regardless of which one won the name.
			if !pref.IsDeleted {
				queueFetch(&fetch, pref.Hash)
			}

		default:
			if peerName, collides := peerByHash[lref.Hash]; collides {
				peerRef := peer[peerName]
				if lref.Timestamp.Before(peerRef.Timestamp) || lref.Timestamp.Equal(peerRef.Timestamp) {
					merged[name] = lref
				} else {
					merged[peerName] = peerRef
				}
				handledPeerNames[peerName] = true
			} else {
				merged[name] = lref
			}
		}
	}

	for name, pref := range peer {
		if _, isLocal := local[name]; isLocal {
			continue
		}
		if handledPeerNames[name] {
			continue
		}
		if _, collides := localByHash[pref.Hash]; collides {
			continue // already resolved from the local side above
		}
		merged[name] = pref
		if !pref.IsDeleted {
			queueFetch(&fetch, pref.Hash)
		}
	}

	return merged, fetch
}

func queueFetch(fetch *[]objhash.Hash, hexHash string) {
	h, err := objhash.ParseHex(hexHash)
	if err != nil {
		return
	}
	*fetch = append(*fetch, h)
}

// MergeCells merges a local and a peer cell map, keyed by cell uuid
// rather than name (spec.md §4.7's diff_cells): the newer cell (by
// timestamp) wins the top-level fields, inheriting the loser's
// description if the winner's is empty; snapshot maps merge via
// MergeSnapshots; `latest` is recomputed from the merged snapshot map;
// and any name collision left after merging gets a disambiguating
// "-1", "-2", … suffix.
func MergeCells(local, peer map[string]manifest.CellRef) (map[string]manifest.CellRef, []objhash.Hash) {
	merged := map[string]manifest.CellRef{}
	var fetch []objhash.Hash

	peerByUUID := map[string]string{}
	for name, c := range peer {
		peerByUUID[c.UUID] = name
	}

	usedNames := map[string]bool{}
	assign := func(name string, c manifest.CellRef) {
		final := name
		for i := 1; usedNames[final]; i++ {
			final = fmt.Sprintf("%s-%d", name, i)
		}
		usedNames[final] = true
		merged[final] = c
	}

	processed := map[string]bool{}

	for name, lc := range local {
		if processed[lc.UUID] {
			continue
		}
		processed[lc.UUID] = true

		peerName, inPeer := peerByUUID[lc.UUID]
		if !inPeer {
			assign(name, lc)
			continue
		}

		pc := peer[peerName]
		winner, loser, winnerName := lc, pc, name
		if pc.Timestamp.After(lc.Timestamp) {
			winner, loser, winnerName = pc, lc, peerName
		}
		if winner.Description == "" && loser.Description != "" {
			winner.Description = loser.Description
		}

		mergedSnaps, snapFetch := MergeSnapshots(lc.Snapshots, pc.Snapshots)
		winner.Snapshots = mergedSnaps
		winner.Latest = manifest.Latest(mergedSnaps)
		fetch = append(fetch, snapFetch...)

		assign(winnerName, winner)
	}

	for name, pc := range peer {
		if processed[pc.UUID] {
			continue
		}
		processed[pc.UUID] = true
		assign(name, pc)
		for _, snap := range pc.Snapshots {
			if !snap.IsDeleted {
				queueFetch(&fetch, snap.Hash)
			}
		}
	}

	return merged, fetch
}

// MergeProject merges one matched pair of project manifests (same
// uuid, different stores): the newer (by timestamp) wins the top-level
// fields, and Snapshots/Cells merge via MergeSnapshots/MergeCells.
func MergeProject(local, peer manifest.ProjectManifest) (manifest.ProjectManifest, []objhash.Hash) {
	winner := local
	if peer.Timestamp.After(local.Timestamp) {
		winner = peer
	}

	mergedSnaps, snapFetch := MergeSnapshots(local.Snapshots, peer.Snapshots)
	mergedCells, cellFetch := MergeCells(local.Cells, peer.Cells)
	winner.Snapshots = mergedSnaps
	winner.Cells = mergedCells

	return winner, append(snapFetch, cellFetch...)
}

// MergeMain merges the main manifest's {name -> ProjectRef} map,
// matching entries by ProjectRef.Manifest (the project's uuid) rather
// than by name (spec.md §4.7's diff_manifest). It returns the merged
// map and the set of uuids tombstoned on the peer side, which the
// caller uses to suppress content fetch for those projects.
func MergeMain(local, peer map[string]manifest.ProjectRef) (map[string]manifest.ProjectRef, map[string]bool) {
	merged := map[string]manifest.ProjectRef{}
	deletedUUIDs := map[string]bool{}

	peerByUUID := map[string]string{}
	for name, ref := range peer {
		peerByUUID[ref.Manifest] = name
	}

	usedNames := map[string]bool{}
	assign := func(name string, ref manifest.ProjectRef) {
		final := name
		for i := 1; usedNames[final]; i++ {
			final = fmt.Sprintf("%s-%d", name, i)
		}
		usedNames[final] = true
		merged[final] = ref
	}

	processed := map[string]bool{}

	for name, lref := range local {
		uuid := lref.Manifest
		if processed[uuid] {
			continue
		}
		processed[uuid] = true

		peerName, inPeer := peerByUUID[uuid]
		if !inPeer {
			assign(name, lref)
			continue
		}

		pref := peer[peerName]
		winner, winnerName := lref, name
		if pref.Timestamp.After(lref.Timestamp) {
			winner, winnerName = pref, peerName
		}
		assign(winnerName, winner)
		if pref.IsDeleted {
			deletedUUIDs[uuid] = true
		}
	}

	for name, pref := range peer {
		uuid := pref.Manifest
		if processed[uuid] {
			continue
		}
		processed[uuid] = true
		assign(name, pref)
		if pref.IsDeleted {
			deletedUUIDs[uuid] = true
		}
	}

	return merged, deletedUUIDs
}
