// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import "sort"

// Latest returns the hash of the non-deleted snapshot with the largest
// timestamp in snaps, or "" if none (spec.md §3 invariant 6).
func Latest(snaps map[string]SnapshotRef) string {
	var best SnapshotRef
	found := false
	for _, s := range snaps {
		if s.IsDeleted {
			continue
		}
		if !found || s.Timestamp.After(best.Timestamp) {
			best = s
			found = true
		}
	}
	if !found {
		return ""
	}
	return best.Hash
}

// LiveCellNames returns the non-deleted keys of cells, sorted by name,
// for ProjectRef.Cells: it mirrors the project manifest's live cell
// keys so the main manifest alone can enumerate them without loading
// the project manifest.
func LiveCellNames(cells map[string]CellRef) []string {
	var names []string
	for name, c := range cells {
		if !c.IsDeleted {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// RefreshProjectRef recomputes a ProjectRef's Latest and Cells fields
// from the authoritative project manifest, preserving invariants 5 & 6.
func RefreshProjectRef(ref ProjectRef, pm ProjectManifest) ProjectRef {
	ref.Latest = Latest(pm.Snapshots)
	ref.Cells = LiveCellNames(pm.Cells)
	return ref
}

// RefreshCellLatest recomputes a CellRef's Latest field from its own
// snapshot map.
func RefreshCellLatest(cell CellRef) CellRef {
	cell.Latest = Latest(cell.Snapshots)
	return cell
}
