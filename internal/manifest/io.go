// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/maxponych/denali/internal/denalierr"
)

// LoadMain reads and decodes the main manifest. A missing file is
// returned as an IOError like any other read failure; callers
// (internal/root) decide whether that means "uninitialized store."
func LoadMain(path string) (MainManifest, error) {
	var m MainManifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, &denalierr.IOError{Op: "read " + path, Err: err}
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, &denalierr.SerializationError{Format: "json", Err: err}
	}
	if m.Projects == nil {
		m.Projects = map[string]ProjectRef{}
	}
	if m.Templates == nil {
		m.Templates = map[string]TemplateRef{}
	}
	if m.Remotes == nil {
		m.Remotes = map[string]RemoteRef{}
	}
	return m, nil
}

// SaveMain atomically rewrites the main manifest as pretty-printed JSON
// (spec.md §5: "serialized back with pretty-printed JSON").
func SaveMain(path string, m MainManifest) error {
	return writeJSONAtomic(path, m)
}

// LoadProject reads and decodes a project manifest by file path.
func LoadProject(path string) (ProjectManifest, error) {
	var m ProjectManifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, &denalierr.IOError{Op: "read " + path, Err: err}
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, &denalierr.SerializationError{Format: "json", Err: err}
	}
	if m.Snapshots == nil {
		m.Snapshots = map[string]SnapshotRef{}
	}
	if m.Cells == nil {
		m.Cells = map[string]CellRef{}
	}
	return m, nil
}

// SaveProject atomically rewrites a project manifest.
func SaveProject(path string, m ProjectManifest) error {
	return writeJSONAtomic(path, m)
}

// writeJSONAtomic marshals v as pretty-printed JSON and writes it to
// path via a temp file + rename, so a crash mid-write never leaves a
// truncated manifest (spec.md §5: "the manifest is the durability
// boundary").
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &denalierr.SerializationError{Format: "json", Err: err}
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-manifest-*")
	if err != nil {
		return &denalierr.IOError{Op: "create temp manifest", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &denalierr.IOError{Op: "write temp manifest", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &denalierr.IOError{Op: "close temp manifest", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &denalierr.IOError{Op: "rename manifest into place", Err: err}
	}
	return nil
}
