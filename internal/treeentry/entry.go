// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package treeentry implements the on-disk binary encoding of a tree
// object's entries: spec.md §3's
//
//	mode(4 bytes big-endian) SP name NUL hash(32 bytes)
//
// repeated once per entry, in directory-iteration order. This is a
// normative wire format (unlike the msgpack-encoded TreeEntry the
// teacher package used for an in-memory, never-persisted structure), so
// it is implemented by hand rather than through a generic encoder.
//
// The Cell type is a denali-specific widening of the POSIX st_mode
// space: 0xB000 is a high nibble POSIX never assigns, reserved here for
// tree entries whose hash names a snapshot-metadata object instead of a
// tree or blob (spec.md §9).
package treeentry

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/objhash"
)

// Type-bearing high nibble of the mode word.
const (
	TypeMask     uint32 = 0xF000
	TypeDir      uint32 = 0x4000
	TypeRegular  uint32 = 0x8000
	TypeSymlink  uint32 = 0xA000
	TypeCell     uint32 = 0xB000
	PermMask     uint32 = 0x0FFF
)

// Kind classifies an entry by its mode's high nibble.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDirectory
	KindRegular
	KindSymlink
	KindCell
)

// KindOf returns the Kind implied by mode's high nibble.
func KindOf(mode uint32) Kind {
	switch mode & TypeMask {
	case TypeDir:
		return KindDirectory
	case TypeRegular:
		return KindRegular
	case TypeSymlink:
		return KindSymlink
	case TypeCell:
		return KindCell
	default:
		return KindUnknown
	}
}

// Perm returns the permission bits (low 12 bits) of mode.
func Perm(mode uint32) uint32 { return mode & PermMask }

// MakeMode combines a type nibble and permission bits into a mode word.
func MakeMode(kind Kind, perm uint32) uint32 {
	var t uint32
	switch kind {
	case KindDirectory:
		t = TypeDir
	case KindRegular:
		t = TypeRegular
	case KindSymlink:
		t = TypeSymlink
	case KindCell:
		t = TypeCell
	}
	return t | (perm & PermMask)
}

// Entry is a single directory entry: a name, its POSIX-derived mode
// (type nibble + permission bits), and the hash of what it references
// (a tree, a blob, or — for Cell entries — a snapshot-metadata record).
type Entry struct {
	Mode uint32
	Name string
	Hash objhash.Hash
}

func (e Entry) Kind() Kind { return KindOf(e.Mode) }

// Encode serializes entries in the order given — callers control
// ordering (spec.md §9: directory-iteration order is not stably sorted;
// that is a documented, deliberate choice, not an oversight).
func Encode(entries []Entry) []byte {
	buf := &bytes.Buffer{}
	for _, e := range entries {
		var modeBytes [4]byte
		binary.BigEndian.PutUint32(modeBytes[:], e.Mode)
		buf.Write(modeBytes[:])
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes()
}

// Decode parses a tree object's encoded bytes back into entries.
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	i := 0
	for i < len(data) {
		if i+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated mode field", denalierr.ErrMalformedTreeEntry)
		}
		mode := binary.BigEndian.Uint32(data[i : i+4])
		i += 4
		if i >= len(data) || data[i] != ' ' {
			return nil, fmt.Errorf("%w: missing mode/name separator", denalierr.ErrMalformedTreeEntry)
		}
		i++
		start := i
		for i < len(data) && data[i] != 0 {
			i++
		}
		if i >= len(data) {
			return nil, fmt.Errorf("%w: unterminated name", denalierr.ErrMalformedTreeEntry)
		}
		name := string(data[start:i])
		i++ // skip NUL
		if i+objhash.Size > len(data) {
			return nil, fmt.Errorf("%w: truncated hash field", denalierr.ErrMalformedTreeEntry)
		}
		var hash objhash.Hash
		copy(hash[:], data[i:i+objhash.Size])
		i += objhash.Size
		entries = append(entries, Entry{Mode: mode, Name: name, Hash: hash})
	}
	return entries, nil
}
