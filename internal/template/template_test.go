// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"os"
	"testing"

	"github.com/maxponych/denali/internal/config"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestNewListGetRemove(t *testing.T) {
	st := newTestStore(t)
	main := manifest.NewMainManifest()
	treeHash := objhash.Sum([]byte("tree content"))
	cfg := config.Template{Placeholders: []string{"name"}}

	require.NoError(t, New(st, &main, "scaffold", treeHash, cfg))
	require.Equal(t, []string{"scaffold"}, List(main))

	gotHash, gotCfg, err := Get(st, main, "scaffold")
	require.NoError(t, err)
	require.Equal(t, treeHash, gotHash)
	require.Equal(t, cfg, gotCfg)

	require.NoError(t, Remove(&main, "scaffold"))
	require.Empty(t, List(main))
	_, err = os.Stat(st.TemplateConfigPath("scaffold"))
	require.True(t, os.IsNotExist(err))
}

func TestNewRejectsDuplicateName(t *testing.T) {
	st := newTestStore(t)
	main := manifest.NewMainManifest()
	treeHash := objhash.Sum([]byte("x"))

	require.NoError(t, New(st, &main, "dup", treeHash, config.Template{}))
	err := New(st, &main, "dup", treeHash, config.Template{})
	require.True(t, errors.Is(err, denalierr.ErrSameName))
}

func TestGetMissingTemplate(t *testing.T) {
	st := newTestStore(t)
	main := manifest.NewMainManifest()
	_, _, err := Get(st, main, "nope")
	require.True(t, errors.Is(err, denalierr.ErrTemplateNotFound))
}
