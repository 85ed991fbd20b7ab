// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Sync orchestration: the two-party exchange spec.md §4.7 describes as
// three ssh-invoked stages in original_source/src/remote/sync.rs
// ("remote manifest", "remote send", "remote receive") is run here over
// one persistent Conn instead, in the same phase order: a main-manifest
// exchange, a per-project manifest exchange, then a single content
// round in which the initiator both Pulls what it's missing and
// Pushes what it already has, while the responder's one ServeContent
// call answers the former and absorbs the latter. A persistent
// connection makes the three-subprocess round trip unnecessary.
//
// The two sides run genuinely different code (SyncInitiate/SyncRespond)
// rather than identical logic, because MergeMain/MergeProject's
// collision-disambiguation depends on Go map iteration order and can't
// be trusted to produce the same result if computed independently on
// both ends. Instead each merge is computed once, on one side: the
// initiator merges the main manifests, the responder merges each
// project manifest the initiator sends, and the other side adopts the
// result as-is; see DESIGN.md.
package root

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/syncproto"
)

// SyncResult reports what a sync round moved, for CLI output.
// ObjectsPulled and ObjectsPushed count snapshot hashes this side
// requested from or sent to the peer (each with its whole tree
// closure), not individual objects.
type SyncResult struct {
	ProjectsSynced int
	ObjectsPulled  int
	ObjectsPushed  int
}

// SyncInitiate runs the requesting side of a sync against peer: project
// selects one project by name, "" / "all" for every live project, or
// "none" for a main-manifest-only exchange with no project/content
// round (the `remote manifest` peek).
func SyncInitiate(r *Root, peer syncproto.Conn, project string) (SyncResult, error) {
	var result SyncResult

	localProjects, err := json.Marshal(r.Main.Projects)
	if err != nil {
		return result, &denalierr.SerializationError{Format: "json", Err: err}
	}
	if err := syncproto.WriteMain(peer, localProjects); err != nil {
		return result, err
	}

	reply, err := syncproto.ReadFrame(peer)
	if err != nil {
		return result, err
	}
	var peerProjects map[string]manifest.ProjectRef
	if err := json.Unmarshal(reply.Payload, &peerProjects); err != nil {
		return result, &denalierr.SerializationError{Format: "json", Err: err}
	}

	merged, _ := syncproto.MergeMain(r.Main.Projects, peerProjects)
	r.Main.Projects = merged

	uuids, err := selectUUIDs(merged, project)
	if err != nil {
		return result, err
	}

	for _, id := range uuids {
		payload, err := loadRawProject(r, id)
		if err != nil {
			return result, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return result, &denalierr.SerializationError{Format: "uuid", Err: err}
		}
		if err := syncproto.WriteProject(peer, parsed, payload); err != nil {
			return result, err
		}
	}
	mergedMain, err := json.Marshal(merged)
	if err != nil {
		return result, &denalierr.SerializationError{Format: "json", Err: err}
	}
	if err := syncproto.WriteMain(peer, mergedMain); err != nil {
		return result, err
	}

	hashes := map[objhash.Hash]bool{}
	for {
		frame, err := syncproto.ReadFrame(peer)
		if err != nil {
			return result, err
		}
		if frame.Tag == syncproto.TagDone {
			break
		}
		pm, err := decodeProject(frame.Payload)
		if err != nil {
			return result, err
		}
		if err := manifest.SaveProject(r.Store.ProjectManifestPath(frame.UUID.String()), pm); err != nil {
			return result, err
		}
		collectHashes(pm, hashes)
		result.ProjectsSynced++
	}

	// The responder serves this side's requests for content it's
	// missing, and simultaneously absorbs whatever this side pushes for
	// content it already has — one round covers both directions, since
	// ServeContent's read loop dispatches on frame tag regardless of
	// which of Pull's or Push's frames arrive next.
	pulled, pushed, err := exchangeContent(r, peer, hashes)
	if err != nil {
		return result, err
	}
	result.ObjectsPulled, result.ObjectsPushed = pulled, pushed
	if err := syncproto.WriteDone(peer); err != nil {
		return result, err
	}

	return result, r.flush()
}

// SyncRespond runs the answering side of a sync, invoked by the remote
// end of an internal/remote.Transport (the hidden `remote receive`
// subcommand). It adopts the main manifest the initiator merged, merges
// each project manifest the initiator sends with its own copy, and
// sends the merged manifests back for the initiator to adopt.
func SyncRespond(r *Root, peer syncproto.Conn) (SyncResult, error) {
	var result SyncResult

	// The initiator's raw projects are read but never consulted: it
	// computes the canonical merge itself and sends the result back
	// later in this same phase (the TagMain frame read below).
	if _, err := syncproto.ReadFrame(peer); err != nil {
		return result, err
	}

	localProjects, err := json.Marshal(r.Main.Projects)
	if err != nil {
		return result, &denalierr.SerializationError{Format: "json", Err: err}
	}
	if err := syncproto.WriteMain(peer, localProjects); err != nil {
		return result, err
	}

	hashes := map[objhash.Hash]bool{}
	var replies []syncproto.Frame
	for {
		f, err := syncproto.ReadFrame(peer)
		if err != nil {
			return result, err
		}
		if f.Tag == syncproto.TagMain {
			var merged map[string]manifest.ProjectRef
			if err := json.Unmarshal(f.Payload, &merged); err != nil {
				return result, &denalierr.SerializationError{Format: "json", Err: err}
			}
			r.Main.Projects = merged
			break
		}

		id := f.UUID.String()
		incoming, err := decodeProject(f.Payload)
		if err != nil {
			return result, err
		}
		local, haveLocal, err := loadProjectIfExists(r, id)
		if err != nil {
			return result, err
		}
		final := incoming
		if haveLocal {
			final, _ = syncproto.MergeProject(local, incoming)
		}
		if err := manifest.SaveProject(r.Store.ProjectManifestPath(id), final); err != nil {
			return result, err
		}
		collectHashes(final, hashes)
		replies = append(replies, syncproto.Frame{UUID: f.UUID, Payload: mustEncodeProject(final)})
		result.ProjectsSynced++
	}

	for _, rep := range replies {
		if err := syncproto.WriteProject(peer, rep.UUID, rep.Payload); err != nil {
			return result, err
		}
	}
	if err := syncproto.WriteDone(peer); err != nil {
		return result, err
	}

	// The initiator drives the single content round from here: it Pulls
	// whatever it's missing and Pushes whatever it has that this side
	// might be missing, all before its closing Done frame; ServeContent
	// answers the former and silently stores the latter in one pass.
	if err := syncproto.ServeContent(r.Store, peer); err != nil {
		return result, err
	}

	return result, r.flush()
}

// exchangeContent settles every hash this side knows matters for the
// just-synced projects: a hash already present locally is Pushed, on
// the chance peer still lacks it (peer's ServeContent silently
// no-ops if it already has it); a hash missing locally is Pulled from
// peer (a no-op, resolved as "still missing," if peer lacks it too —
// e.g. a tombstoned snapshot whose hash was never resolvable).
func exchangeContent(r *Root, peer syncproto.Conn, hashes map[objhash.Hash]bool) (pulled, pushed int, err error) {
	for hash := range hashes {
		if r.Store.HasSnapshot(hash) {
			if err := syncproto.Push(r.Store, peer, hash); err != nil {
				return pulled, pushed, err
			}
			pushed++
			continue
		}
		if err := syncproto.Pull(r.Store, peer, hash); err != nil {
			return pulled, pushed, err
		}
		pulled++
	}
	return pulled, pushed, nil
}

// selectUUIDs returns the sorted set of manifest uuids to exchange:
// every live project if filter is "" or "all", none at all if filter is
// "none" (a main-manifest-only sync, e.g. `remote manifest`'s peek),
// otherwise just the uuid the filter name resolves to.
func selectUUIDs(projects map[string]manifest.ProjectRef, filter string) ([]string, error) {
	if filter == "none" {
		return nil, nil
	}
	if filter != "" && filter != "all" {
		ref, ok := projects[filter]
		if !ok || ref.IsDeleted {
			return nil, &denalierr.NotFoundError{Kind: "project", Name: filter}
		}
		return []string{ref.Manifest}, nil
	}
	var ids []string
	for _, ref := range projects {
		if !ref.IsDeleted {
			ids = append(ids, ref.Manifest)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func loadRawProject(r *Root, uuidStr string) ([]byte, error) {
	pm, ok, err := loadProjectIfExists(r, uuidStr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return mustEncodeProject(pm), nil
}

func loadProjectIfExists(r *Root, uuidStr string) (manifest.ProjectManifest, bool, error) {
	pm, err := manifest.LoadProject(r.Store.ProjectManifestPath(uuidStr))
	if err != nil {
		if isNotExist(err) {
			return manifest.ProjectManifest{}, false, nil
		}
		return manifest.ProjectManifest{}, false, err
	}
	return pm, true, nil
}

func decodeProject(payload []byte) (manifest.ProjectManifest, error) {
	if len(payload) == 0 {
		return manifest.ProjectManifest{Snapshots: map[string]manifest.SnapshotRef{}, Cells: map[string]manifest.CellRef{}}, nil
	}
	var pm manifest.ProjectManifest
	if err := json.Unmarshal(payload, &pm); err != nil {
		return manifest.ProjectManifest{}, &denalierr.SerializationError{Format: "json", Err: err}
	}
	if pm.Snapshots == nil {
		pm.Snapshots = map[string]manifest.SnapshotRef{}
	}
	if pm.Cells == nil {
		pm.Cells = map[string]manifest.CellRef{}
	}
	return pm, nil
}

func mustEncodeProject(pm manifest.ProjectManifest) []byte {
	data, err := json.Marshal(pm)
	if err != nil {
		// pm is always one of our own decoded/merged values; a marshal
		// failure here would mean a non-serializable field slipped into
		// manifest.ProjectManifest, a programming error, not bad input.
		panic(err)
	}
	return data
}

func collectHashes(pm manifest.ProjectManifest, into map[objhash.Hash]bool) {
	addAll := func(snaps map[string]manifest.SnapshotRef) {
		for _, s := range snaps {
			if s.IsDeleted {
				continue
			}
			if h, err := objhash.ParseHex(s.Hash); err == nil {
				into[h] = true
			}
		}
	}
	addAll(pm.Snapshots)
	for _, cell := range pm.Cells {
		if cell.IsDeleted {
			continue
		}
		addAll(cell.Snapshots)
	}
}
