// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maxponych/denali/internal/config"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/ignore"
	"github.com/maxponych/denali/internal/reconcile"
	"github.com/maxponych/denali/internal/root"
	"github.com/maxponych/denali/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	savePath        string
	saveProjectPath string
	saveYes         bool
	saveIgnoreFile  string
)

var saveCmd = &cobra.Command{
	Use:   "save <name>|<cell@project> <snapshot-name>",
	Short: "capture a new snapshot of a project or cell",
	Args:  cobra.ExactArgs(2),
	RunE:  runSave,
}

func init() {
	saveCmd.Flags().StringVar(&savePath, "path", "", "source directory to snapshot (default: cwd)")
	saveCmd.Flags().StringVar(&saveProjectPath, "project-path", "", "project root holding .denali.toml (cell selectors only; default: parent of --path)")
	saveCmd.Flags().BoolVar(&saveYes, "yes", false, "auto-confirm any reconciliation offers instead of prompting")
	saveCmd.Flags().StringVar(&saveIgnoreFile, "ignore-file", "", "legacy suffix-list ignore file to merge in alongside .denali.toml's ignore[] (default: <source>/.denaliignore if present)")
}

// loadLegacyIgnore resolves --ignore-file (or its per-source default)
// and loads it via the legacy suffix-list format, returning nil
// patterns when no file is configured or present.
func loadLegacyIgnore(source string) ([]string, error) {
	path := saveIgnoreFile
	if path == "" {
		path = filepath.Join(source, ".denaliignore")
	}
	return ignore.LoadLegacyFile(path)
}

func runSave(cmd *cobra.Command, args []string) error {
	sel, err := parseSelector(args[0])
	if err != nil {
		return err
	}
	snapshotName := args[1]

	r, err := openRoot()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	confirm := pickConfirmer(saveYes)

	if sel.Cell == "" {
		return saveProjectSnapshot(cmd, r, snapshotName, now, confirm)
	}
	return saveCellSnapshot(cmd, r, sel, snapshotName, now, confirm)
}

// saveProjectSnapshot reconciles the working tree's .denali.toml against
// the manifest, grafts every one of its configured cells fresh, and
// captures a new project-level snapshot (spec.md §4.2).
func saveProjectSnapshot(cmd *cobra.Command, r *root.Root, snapshotName string, now time.Time, confirm reconcile.Confirmer) error {
	source, err := resolvePath(savePath)
	if err != nil {
		return err
	}
	wt, err := config.LoadWorkingTree(filepath.Join(source, ".denali.toml"))
	if err != nil {
		return err
	}

	name, err := r.Reconcile(source, wt, now, confirm)
	if err != nil {
		return err
	}

	legacyPatterns, err := loadLegacyIgnore(source)
	if err != nil {
		return err
	}
	ignoreSet := ignore.Compile(wt.Root.Ignore)
	ignoreSet.Add(legacyPatterns...)
	var cellPaths []string
	for _, cellCfg := range wt.Cells {
		cellPaths = append(cellPaths, cellCfg.Path)
	}
	snapshot.AppendCellIgnores(ignoreSet, source, cellPaths)

	grafts := map[string]snapshot.Graft{}
	for cellName, cellCfg := range wt.Cells {
		treeHash, _, err := snapshot.Build(r.Store, cellCfg.Path, ignore.Compile(cellCfg.Ignore), cellCfg.Description, now, nil)
		if err != nil {
			return fmt.Errorf("building cell %q: %w", cellName, err)
		}
		info, err := os.Lstat(cellCfg.Path)
		if err != nil {
			return &denalierr.IOError{Op: "lstat " + cellCfg.Path, Err: err}
		}
		grafts[cellName] = snapshot.Graft{
			TreeHash:    treeHash,
			Perm:        uint32(info.Mode().Perm()),
			Description: cellCfg.Description,
		}
	}

	if err := r.SaveProjectSnapshot(name, source, snapshotName, wt.Root.Description, ignoreSet, grafts, now); err != nil {
		return err
	}
	cmd.Printf("saved %s %s\n", name, snapshotName)
	return nil
}

// saveCellSnapshot reconciles the owning project's .denali.toml (so a
// cell declared via `init` but never yet checked still registers), then
// captures an independent snapshot of just that cell.
func saveCellSnapshot(cmd *cobra.Command, r *root.Root, sel selector, snapshotName string, now time.Time, confirm reconcile.Confirmer) error {
	cellPath, err := resolvePath(savePath)
	if err != nil {
		return err
	}
	projectPath := saveProjectPath
	if projectPath == "" {
		projectPath = filepath.Dir(cellPath)
	}

	wt, err := config.LoadWorkingTree(filepath.Join(projectPath, ".denali.toml"))
	if err != nil {
		return err
	}
	name, err := r.Reconcile(projectPath, wt, now, confirm)
	if err != nil {
		return err
	}

	cellCfg, ok := wt.Cells[sel.Cell]
	if !ok {
		return &denalierr.NotFoundError{Kind: "cell", Name: sel.Cell}
	}
	legacyPatterns, err := loadLegacyIgnore(cellCfg.Path)
	if err != nil {
		return err
	}
	ignoreSet := ignore.Compile(cellCfg.Ignore)
	ignoreSet.Add(legacyPatterns...)
	if err := r.SaveCellSnapshot(name, sel.Cell, cellCfg.Path, snapshotName, cellCfg.Description, ignoreSet, now); err != nil {
		return err
	}
	cmd.Printf("saved %s@%s %s\n", sel.Cell, name, snapshotName)
	return nil
}
