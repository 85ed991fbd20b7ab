// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package config parses and serializes denali's working-tree
// configuration documents (spec.md §6): `.denali.toml` (project root
// plus per-cell tables) and `.denali.tmpl.toml` (template
// placeholders/commands).
//
// Grounded on original_source/src/utils/config.rs's ProjectConfig /
// CellConfig / DenaliToml / TmplToml shapes (a serde+toml document),
// re-expressed with BurntSushi/toml — the teacher corpus's TOML
// library — including its Primitive/MetaData mechanism for decoding a
// document whose top-level tables are a fixed `[root]` plus an
// arbitrary, config-defined set of per-cell table names.
package config

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/maxponych/denali/internal/denalierr"
)

// RootConfig is the `[root]` table of `.denali.toml`.
type RootConfig struct {
	Name           string   `toml:"name"`
	Description    string   `toml:"description"`
	Ignore         []string `toml:"ignore"`
	SnapshotBefore string   `toml:"snapshot_before,omitempty"`
	SnapshotAfter  string   `toml:"snapshot_after,omitempty"`
}

// CellConfig is one additional top-level table in `.denali.toml`,
// keyed by cell name.
type CellConfig struct {
	Description    string   `toml:"description"`
	Path           string   `toml:"path"`
	Ignore         []string `toml:"ignore"`
	Lock           string   `toml:"lock,omitempty"`
	SnapshotBefore string   `toml:"snapshot_before,omitempty"`
	SnapshotAfter  string   `toml:"snapshot_after,omitempty"`
}

// WorkingTree is the decoded `.denali.toml` document: the fixed root
// table plus however many cell tables the working tree declares.
type WorkingTree struct {
	Root  RootConfig
	Cells map[string]CellConfig
}

// LoadWorkingTree reads and decodes a `.denali.toml` file.
func LoadWorkingTree(path string) (WorkingTree, error) {
	var raw map[string]toml.Primitive
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return WorkingTree{}, &denalierr.SerializationError{Format: "toml", Err: err}
	}

	wt := WorkingTree{Cells: map[string]CellConfig{}}
	for key, prim := range raw {
		if key == "root" {
			if err := meta.PrimitiveDecode(prim, &wt.Root); err != nil {
				return WorkingTree{}, &denalierr.SerializationError{Format: "toml", Err: err}
			}
			continue
		}
		var cell CellConfig
		if err := meta.PrimitiveDecode(prim, &cell); err != nil {
			return WorkingTree{}, &denalierr.SerializationError{Format: "toml", Err: err}
		}
		wt.Cells[key] = cell
	}
	return wt, nil
}

// SaveWorkingTree writes wt back out as `.denali.toml`.
func SaveWorkingTree(path string, wt WorkingTree) error {
	doc := make(map[string]any, len(wt.Cells)+1)
	doc["root"] = wt.Root
	for name, cell := range wt.Cells {
		doc[name] = cell
	}

	buf := &bytes.Buffer{}
	if err := toml.NewEncoder(buf).Encode(doc); err != nil {
		return &denalierr.SerializationError{Format: "toml", Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &denalierr.IOError{Op: "write " + path, Err: err}
	}
	return nil
}

// Template is the decoded `.denali.tmpl.toml` document.
type Template struct {
	Placeholders []string `toml:"placeholders"`
	Commands     []string `toml:"commands"`
}

// LoadTemplate reads and decodes a `.denali.tmpl.toml` file.
func LoadTemplate(path string) (Template, error) {
	var t Template
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return Template{}, &denalierr.SerializationError{Format: "toml", Err: err}
	}
	return t, nil
}

// SaveTemplate writes t back out as `.denali.tmpl.toml`.
func SaveTemplate(path string, t Template) error {
	buf := &bytes.Buffer{}
	if err := toml.NewEncoder(buf).Encode(t); err != nil {
		return &denalierr.SerializationError{Format: "toml", Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &denalierr.IOError{Op: "write " + path, Err: err}
	}
	return nil
}
