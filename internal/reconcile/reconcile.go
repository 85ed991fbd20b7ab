// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile implements manifest check/reconciliation
// (spec.md §4.6): comparing a working tree's `.denali.toml` against the
// recorded manifests and producing a list of offers — rename, create,
// update, delete — each routed through an external confirmation
// collaborator before being applied.
package reconcile

import (
	"github.com/maxponych/denali/internal/config"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/manifest"
)

// Action classifies one reconciliation offer.
type Action int

const (
	ActionCreate Action = iota
	ActionRename
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionRename:
		return "rename"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Offer is one proposed reconciliation step awaiting confirmation.
type Offer struct {
	Action  Action
	Scope   string // "project" or "cell"
	Cell    string // cell name, empty for project-level offers
	OldName string // current name (rename/update/delete)
	NewName string // target name (create/rename)
}

// Confirmer is the external confirmation collaborator spec.md §4.6
// requires: every offer is routed through it, and a negative decision
// raises denalierr.ErrUserAbort.
type Confirmer interface {
	Confirm(offer Offer) (bool, error)
}

// Plan holds the project/cell state to reconcile config against.
type Plan struct {
	MainProjects map[string]manifest.ProjectRef   // name -> ref, from the main manifest
	Project      manifest.ProjectManifest         // the resolved project's own manifest (zero value if none matched)
	ProjectName  string                           // name under which Project is currently registered, "" if none
}

// Reconcile walks spec.md §4.6's four steps against wt and p, confirming
// each offer via confirm. It returns the (possibly renamed) project
// name to use and the updated project manifest.
func Reconcile(p Plan, wt config.WorkingTree, confirm Confirmer) (string, manifest.ProjectManifest, error) {
	name := p.ProjectName
	pm := p.Project

	if name == "" {
		// Step 1: no project by that name — search by path.
		if existingName, existing, found := findByPath(p.MainProjects, wt.Root.Name, p.Project.Source); found {
			if err := confirmOrAbort(confirm, Offer{Action: ActionRename, Scope: "project", OldName: existingName, NewName: wt.Root.Name}); err != nil {
				return "", manifest.ProjectManifest{}, err
			}
			name = wt.Root.Name
			pm = existing
		} else {
			if err := confirmOrAbort(confirm, Offer{Action: ActionCreate, Scope: "project", NewName: wt.Root.Name}); err != nil {
				return "", manifest.ProjectManifest{}, err
			}
			name = wt.Root.Name
			pm = manifest.NewProjectManifest(wt.Root.Name, pm.Source, wt.Root.Description, pm.Timestamp)
		}
	} else if pm.Source != "" && (pm.Description != wt.Root.Description) {
		// Step 2: project exists — compare description to config.
		if err := confirmOrAbort(confirm, Offer{Action: ActionUpdate, Scope: "project", OldName: name}); err != nil {
			return "", manifest.ProjectManifest{}, err
		}
		pm.Description = wt.Root.Description
	}

	if pm.Cells == nil {
		pm.Cells = map[string]manifest.CellRef{}
	}

	// Step 3: for each configured cell.
	for cellName, cellCfg := range wt.Cells {
		existing, hasName := pm.Cells[cellName]
		if !hasName {
			if renameFrom, found := findCellByPath(pm.Cells, cellCfg.Path); found {
				if err := confirmOrAbort(confirm, Offer{Action: ActionRename, Scope: "cell", Cell: cellName, OldName: renameFrom, NewName: cellName}); err != nil {
					return "", manifest.ProjectManifest{}, err
				}
				renamed := pm.Cells[renameFrom]
				delete(pm.Cells, renameFrom)
				pm.Cells[cellName] = renamed
				continue
			}
			if err := confirmOrAbort(confirm, Offer{Action: ActionCreate, Scope: "cell", Cell: cellName}); err != nil {
				return "", manifest.ProjectManifest{}, err
			}
			pm.Cells[cellName] = manifest.CellRef{Path: cellCfg.Path, Description: cellCfg.Description}
			continue
		}

		if existing.Path != cellCfg.Path || existing.Description != cellCfg.Description {
			if err := confirmOrAbort(confirm, Offer{Action: ActionUpdate, Scope: "cell", Cell: cellName}); err != nil {
				return "", manifest.ProjectManifest{}, err
			}
			existing.Path = cellCfg.Path
			existing.Description = cellCfg.Description
			pm.Cells[cellName] = existing
		}
	}

	// Step 4: cells recorded in the manifest but absent from config.
	for cellName, cell := range pm.Cells {
		if cell.IsDeleted {
			continue
		}
		if _, stillConfigured := wt.Cells[cellName]; stillConfigured {
			continue
		}
		if err := confirmOrAbort(confirm, Offer{Action: ActionDelete, Scope: "cell", Cell: cellName}); err != nil {
			return "", manifest.ProjectManifest{}, err
		}
		cell.IsDeleted = true
		pm.Cells[cellName] = cell
	}

	return name, pm, nil
}

func confirmOrAbort(confirm Confirmer, offer Offer) error {
	ok, err := confirm.Confirm(offer)
	if err != nil {
		return err
	}
	if !ok {
		return denalierr.ErrUserAbort
	}
	return nil
}

func findByPath(projects map[string]manifest.ProjectRef, _ string, source string) (string, manifest.ProjectManifest, bool) {
	for name, ref := range projects {
		if ref.Path == source {
			return name, manifest.ProjectManifest{Source: ref.Path, Timestamp: ref.Timestamp}, true
		}
	}
	return "", manifest.ProjectManifest{}, false
}

func findCellByPath(cells map[string]manifest.CellRef, path string) (string, bool) {
	for name, c := range cells {
		if c.Path == path && !c.IsDeleted {
			return name, true
		}
	}
	return "", false
}
