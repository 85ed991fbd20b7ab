// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshotmeta encodes and decodes the snapshot-metadata record
// described in spec.md §3: description, timestamp, root tree hash, and
// the permission bits of the snapshotted root.
//
// Encoding is msgpack with sorted map keys, the same deterministic,
// content-addressing-friendly discipline the teacher's
// EncodeMsgpack/DecodeMsgpack helpers (encoding.go) apply — generalized
// here from an arbitrary conversation payload to this one fixed record
// shape, and tagged with msgpack field tags the way the teacher's own
// TreeEntry and Provenance types are.
package snapshotmeta

import (
	"bytes"
	"time"

	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/vmihailenco/msgpack/v5"
)

// Meta is a snapshot-metadata record.
type Meta struct {
	Description string       `msgpack:"1"`
	Timestamp   time.Time    `msgpack:"2"`
	Root        objhash.Hash `msgpack:"3"`
	Permissions uint32       `msgpack:"4"` // mode of the snapshotted root, big-endian on the wire
}

// Encode serializes m with sorted map keys for deterministic content
// addressing.
func Encode(m Meta) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(m); err != nil {
		return nil, &denalierr.SerializationError{Format: "msgpack", Err: err}
	}
	return buf.Bytes(), nil
}

// Decode deserializes a snapshot-metadata record.
func Decode(data []byte) (Meta, error) {
	var m Meta
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return Meta{}, &denalierr.SerializationError{Format: "msgpack", Err: err}
	}
	return m, nil
}
