// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package syncproto

import (
	"io"

	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/snapshotmeta"
	"github.com/maxponych/denali/internal/store"
	"github.com/maxponych/denali/internal/treeentry"
)

// Conn is the bidirectional byte stream a content-fetch round runs
// over: an ssh subprocess's stdin/stdout (internal/remote.Transport) on
// a real sync, or an in-process io.Pipe pair in tests.
type Conn interface {
	io.Reader
	io.Writer
}

// Pull fetches the snapshot-metadata record at hash from peer into st,
// then walks its tree and cell closure exactly as internal/copyop's
// Snapshot does for a local source store, fetching over the wire
// instead of reading a second store directly, and fetching only
// objects/snapshots st doesn't already have. Callers that also intend
// to Push in the same round should do so before sending the Done frame
// that ends the peer's ServeContent call.
func Pull(st *store.Store, peer Conn, hash objhash.Hash) error {
	p := &puller{store: st, peer: peer, visited: map[objhash.Hash]bool{}}
	return p.pullSnapshot(hash)
}

type puller struct {
	store   *store.Store
	peer    Conn
	visited map[objhash.Hash]bool
}

func (p *puller) pullSnapshot(hash objhash.Hash) error {
	if p.visited[hash] {
		return nil
	}
	p.visited[hash] = true

	if !p.store.HasSnapshot(hash) {
		data, found, err := requestSnapshot(p.peer, hash)
		if err != nil {
			return err
		}
		if !found {
			return nil // peer doesn't have it either; nothing to pull
		}
		got, err := p.store.SaveSnapshot(data)
		if err != nil {
			return err
		}
		if got != hash {
			return denalierr.ErrHashMismatch
		}
	}

	data, err := p.store.LoadSnapshot(hash)
	if err != nil {
		return err
	}
	meta, err := snapshotmeta.Decode(data)
	if err != nil {
		return err
	}
	return p.pullTree(meta.Root)
}

func (p *puller) pullTree(hash objhash.Hash) error {
	if p.visited[hash] {
		return nil
	}
	p.visited[hash] = true

	if err := p.pullObject(hash); err != nil {
		return err
	}
	data, err := p.store.LoadObject(hash)
	if err != nil {
		return err
	}
	entries, err := treeentry.Decode(data)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Kind() {
		case treeentry.KindDirectory:
			if err := p.pullTree(e.Hash); err != nil {
				return err
			}
		case treeentry.KindCell:
			if err := p.pullSnapshot(e.Hash); err != nil {
				return err
			}
		default:
			if err := p.pullObject(e.Hash); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *puller) pullObject(hash objhash.Hash) error {
	if p.store.HasObject(hash) {
		return nil
	}
	data, found, err := requestObject(p.peer, hash)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	got, err := p.store.SaveObject(data)
	if err != nil {
		return err
	}
	if got != hash {
		return denalierr.ErrHashMismatch
	}
	return nil
}

// Push sends hash's full snapshot/tree/blob/cell closure to peer as
// unsolicited content-push frames, so a concurrent ServeContent call on
// the other end stores everything without replying. It walks the same
// shape as Pull (and internal/copyop.Snapshot), but in the opposite
// direction: peer is assumed to be missing this content, not st.
func Push(st *store.Store, peer Conn, hash objhash.Hash) error {
	p := &pusher{store: st, peer: peer, visited: map[objhash.Hash]bool{}}
	return p.pushSnapshot(hash)
}

type pusher struct {
	store   *store.Store
	peer    Conn
	visited map[objhash.Hash]bool
}

func (p *pusher) pushSnapshot(hash objhash.Hash) error {
	if p.visited[hash] {
		return nil
	}
	p.visited[hash] = true

	data, err := p.store.LoadSnapshot(hash)
	if err != nil {
		return err
	}
	if err := WriteSnapshotPush(p.peer, hash, data); err != nil {
		return err
	}
	meta, err := snapshotmeta.Decode(data)
	if err != nil {
		return err
	}
	return p.pushTree(meta.Root)
}

func (p *pusher) pushTree(hash objhash.Hash) error {
	if p.visited[hash] {
		return nil
	}
	// pushObject below owns marking hash visited (it pushes the tree's
	// own object bytes first); marking it here too would make that call
	// a same-hash no-op and the tree's bytes would never reach the wire.
	if err := p.pushObject(hash); err != nil {
		return err
	}
	data, err := p.store.LoadObject(hash)
	if err != nil {
		return err
	}
	entries, err := treeentry.Decode(data)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Kind() {
		case treeentry.KindDirectory:
			if err := p.pushTree(e.Hash); err != nil {
				return err
			}
		case treeentry.KindCell:
			if err := p.pushSnapshot(e.Hash); err != nil {
				return err
			}
		default:
			if err := p.pushObject(e.Hash); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pusher) pushObject(hash objhash.Hash) error {
	if p.visited[hash] {
		return nil
	}
	p.visited[hash] = true
	data, err := p.store.LoadObject(hash)
	if err != nil {
		return err
	}
	return WriteObjectPush(p.peer, hash, data)
}

func requestSnapshot(conn Conn, hash objhash.Hash) ([]byte, bool, error) {
	if err := WriteSnapshot(conn, hash, nil); err != nil {
		return nil, false, err
	}
	frame, err := ReadFrame(conn)
	if err != nil {
		return nil, false, err
	}
	if frame.Tag == TagNotFound {
		return nil, false, nil
	}
	return frame.Payload, true, nil
}

func requestObject(conn Conn, hash objhash.Hash) ([]byte, bool, error) {
	if err := WriteObject(conn, hash, nil); err != nil {
		return nil, false, err
	}
	frame, err := ReadFrame(conn)
	if err != nil {
		return nil, false, err
	}
	if frame.Tag == TagNotFound {
		return nil, false, nil
	}
	return frame.Payload, true, nil
}

// ServeContent answers a peer's Pull round and absorbs a peer's Push
// round against st, both over the same connection: a Snapshot/Object
// request frame is looked up and answered with its content or a
// NotFound frame; a SnapshotPush/ObjectPush frame is stored with no
// reply. It returns once the peer signals it's done with both.
func ServeContent(st *store.Store, peer Conn) error {
	for {
		frame, err := ReadFrame(peer)
		if err != nil {
			return err
		}
		switch frame.Tag {
		case TagDone:
			return nil
		case TagSnapshot:
			if !st.HasSnapshot(frame.Hash) {
				if err := WriteNotFound(peer); err != nil {
					return err
				}
				continue
			}
			data, err := st.LoadSnapshot(frame.Hash)
			if err != nil {
				return err
			}
			if err := WriteSnapshot(peer, frame.Hash, data); err != nil {
				return err
			}
		case TagObject:
			if !st.HasObject(frame.Hash) {
				if err := WriteNotFound(peer); err != nil {
					return err
				}
				continue
			}
			data, err := st.LoadObject(frame.Hash)
			if err != nil {
				return err
			}
			if err := WriteObject(peer, frame.Hash, data); err != nil {
				return err
			}
		case TagSnapshotPush:
			if !st.HasSnapshot(frame.Hash) {
				got, err := st.SaveSnapshot(frame.Payload)
				if err != nil {
					return err
				}
				if got != frame.Hash {
					return denalierr.ErrHashMismatch
				}
			}
		case TagObjectPush:
			if !st.HasObject(frame.Hash) {
				got, err := st.SaveObject(frame.Payload)
				if err != nil {
					return err
				}
				if got != frame.Hash {
					return denalierr.ErrHashMismatch
				}
			}
		default:
			if err := WriteNotFound(peer); err != nil {
				return err
			}
		}
	}
}
