// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadWorkingTreeParsesRootAndCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".denali.toml")
	content := `
[root]
name = "myproj"
description = "a project"
ignore = ["*.log"]

[cellA]
description = "a cell"
path = "cellA"
ignore = []
lock = "stable"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	wt, err := LoadWorkingTree(path)
	require.NoError(t, err)
	require.Equal(t, "myproj", wt.Root.Name)
	require.Equal(t, []string{"*.log"}, wt.Root.Ignore)
	require.Contains(t, wt.Cells, "cellA")
	require.Equal(t, "stable", wt.Cells["cellA"].Lock)
}

func TestSaveLoadWorkingTreeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".denali.toml")
	wt := WorkingTree{
		Root: RootConfig{Name: "demo", Description: "d", Ignore: []string{"*.tmp"}},
		Cells: map[string]CellConfig{
			"cellA": {Description: "cell a", Path: "cellA"},
		},
	}
	require.NoError(t, SaveWorkingTree(path, wt))

	loaded, err := LoadWorkingTree(path)
	require.NoError(t, err)
	require.Equal(t, "demo", loaded.Root.Name)
	require.Equal(t, "cellA", loaded.Cells["cellA"].Path)
}

func TestSaveLoadTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".denali.tmpl.toml")
	tmpl := Template{Placeholders: []string{"name"}, Commands: []string{"echo <{name}>"}}
	require.NoError(t, SaveTemplate(path, tmpl))

	loaded, err := LoadTemplate(path)
	require.NoError(t, err)
	require.Equal(t, tmpl, loaded)
}
