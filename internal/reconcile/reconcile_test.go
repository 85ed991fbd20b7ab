// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"errors"
	"testing"

	"github.com/maxponych/denali/internal/config"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/manifest"
	"github.com/stretchr/testify/require"
)

type alwaysConfirm struct{ offers []Offer }

func (a *alwaysConfirm) Confirm(offer Offer) (bool, error) {
	a.offers = append(a.offers, offer)
	return true, nil
}

type alwaysDeny struct{}

func (alwaysDeny) Confirm(Offer) (bool, error) { return false, nil }

func TestReconcileCreatesNewProject(t *testing.T) {
	confirm := &alwaysConfirm{}
	plan := Plan{MainProjects: map[string]manifest.ProjectRef{}}
	wt := config.WorkingTree{Root: config.RootConfig{Name: "demo", Description: "d"}}

	name, pm, err := Reconcile(plan, wt, confirm)
	require.NoError(t, err)
	require.Equal(t, "demo", name)
	require.Equal(t, "d", pm.Description)
	require.Len(t, confirm.offers, 1)
	require.Equal(t, ActionCreate, confirm.offers[0].Action)
}

func TestReconcileOffersRenameWhenPathMatchesDifferentName(t *testing.T) {
	confirm := &alwaysConfirm{}
	plan := Plan{
		MainProjects: map[string]manifest.ProjectRef{
			"oldname": {Path: "/tmp/demo"},
		},
	}
	wt := config.WorkingTree{Root: config.RootConfig{Name: "newname"}}
	plan.Project.Source = "/tmp/demo"

	name, _, err := Reconcile(plan, wt, confirm)
	require.NoError(t, err)
	require.Equal(t, "newname", name)
	require.Equal(t, ActionRename, confirm.offers[0].Action)
}

func TestReconcileCreatesNewCell(t *testing.T) {
	confirm := &alwaysConfirm{}
	plan := Plan{
		ProjectName: "demo",
		Project:     manifest.ProjectManifest{Cells: map[string]manifest.CellRef{}},
	}
	wt := config.WorkingTree{
		Root:  config.RootConfig{Name: "demo"},
		Cells: map[string]config.CellConfig{"cellA": {Path: "cellA", Description: "a cell"}},
	}

	_, pm, err := Reconcile(plan, wt, confirm)
	require.NoError(t, err)
	require.Contains(t, pm.Cells, "cellA")
	require.Equal(t, "a cell", pm.Cells["cellA"].Description)
}

func TestReconcileOffersCellDeleteWhenDroppedFromConfig(t *testing.T) {
	confirm := &alwaysConfirm{}
	plan := Plan{
		ProjectName: "demo",
		Project: manifest.ProjectManifest{
			Cells: map[string]manifest.CellRef{"gone": {Path: "gone"}},
		},
	}
	wt := config.WorkingTree{Root: config.RootConfig{Name: "demo"}}

	_, pm, err := Reconcile(plan, wt, confirm)
	require.NoError(t, err)
	require.True(t, pm.Cells["gone"].IsDeleted)

	var sawDelete bool
	for _, o := range confirm.offers {
		if o.Action == ActionDelete {
			sawDelete = true
		}
	}
	require.True(t, sawDelete)
}

func TestReconcileAbortsOnDenial(t *testing.T) {
	plan := Plan{MainProjects: map[string]manifest.ProjectRef{}}
	wt := config.WorkingTree{Root: config.RootConfig{Name: "demo"}}

	_, _, err := Reconcile(plan, wt, alwaysDeny{})
	require.True(t, errors.Is(err, denalierr.ErrUserAbort))
}
