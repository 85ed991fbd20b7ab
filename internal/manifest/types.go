// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest implements denali's manifest layer: the main
// manifest (projects, templates, remotes) and per-project manifests
// (snapshots, cells), per spec.md §3.
//
// Hash-valued fields are plain hex strings here, not objhash.Hash,
// because several of them are legitimately empty ("latest" with no
// snapshots yet) and Go's encoding/json can't omit a zero-valued fixed
// array the way it omits an empty string — the same reason
// original_source's manifests.rs types these fields `String`, not
// `[u8; 32]`.
package manifest

import "time"

// SnapshotRef records one named snapshot inside a project or cell.
type SnapshotRef struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	IsDeleted bool      `json:"is_deleted,omitempty"`
}

// CellRef is a named sub-tree attached to a project: its own path,
// snapshots, and tombstone state (spec.md §3).
type CellRef struct {
	UUID        string                 `json:"uuid"`
	Path        string                 `json:"path"`
	Description string                 `json:"description,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	IsDeleted   bool                   `json:"is_deleted,omitempty"`
	Latest      string                 `json:"latest,omitempty"`
	Snapshots   map[string]SnapshotRef `json:"snapshots,omitempty"`
}

// ProjectManifest is the per-project manifest stored at
// snapshots/projects/<uuid>.json.
type ProjectManifest struct {
	Name        string                 `json:"name"`
	Source      string                 `json:"source"`
	Description string                 `json:"description,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Snapshots   map[string]SnapshotRef `json:"snapshots,omitempty"`
	Cells       map[string]CellRef     `json:"cells,omitempty"`
}

// ProjectRef is the main manifest's summary of one project.
type ProjectRef struct {
	Path      string    `json:"path"`
	IsDeleted bool      `json:"is_deleted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Manifest  string    `json:"manifest"` // uuid of the project manifest file
	Latest    string    `json:"latest,omitempty"`
	Cells     []string  `json:"cells,omitempty"`
}

// TemplateRef points at a registered template's tree and post-apply
// configuration file.
type TemplateRef struct {
	Tree   string `json:"tree"`
	Config string `json:"config"`
}

// RemoteRef describes another store reachable over a transport.
type RemoteRef struct {
	Host string `json:"host"`
	Path string `json:"path"`
}

// MainManifest is the store-wide manifest.json.
type MainManifest struct {
	Projects  map[string]ProjectRef  `json:"projects"`
	Templates map[string]TemplateRef `json:"templates"`
	Remotes   map[string]RemoteRef   `json:"remotes"`
}

// NewMainManifest returns an empty, ready-to-serialize main manifest.
func NewMainManifest() MainManifest {
	return MainManifest{
		Projects:  map[string]ProjectRef{},
		Templates: map[string]TemplateRef{},
		Remotes:   map[string]RemoteRef{},
	}
}

// NewProjectManifest returns an empty project manifest for a freshly
// initialized project.
func NewProjectManifest(name, source, description string, now time.Time) ProjectManifest {
	return ProjectManifest{
		Name:        name,
		Source:      source,
		Description: description,
		Timestamp:   now,
		Snapshots:   map[string]SnapshotRef{},
		Cells:       map[string]CellRef{},
	}
}
