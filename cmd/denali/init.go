// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/maxponych/denali/internal/config"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/spf13/cobra"
)

var (
	initPath        string
	initDescription string
	initProjectPath string
)

var initCmd = &cobra.Command{
	Use:   "init <name>|<cell@project>",
	Short: "write a .denali.toml declaring a new project or cell",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "", "working directory to initialize (default: cwd)")
	initCmd.Flags().StringVar(&initDescription, "description", "", "description for the new project or cell")
	initCmd.Flags().StringVar(&initProjectPath, "project-path", "", "project root whose .denali.toml gains the cell table (cell selectors only; default: parent of --path)")
}

func runInit(cmd *cobra.Command, args []string) error {
	sel, err := parseSelector(args[0])
	if err != nil {
		return err
	}
	path, err := resolvePath(initPath)
	if err != nil {
		return err
	}

	if sel.Cell == "" {
		return initProject(cmd, sel.Project, path)
	}
	return initCell(cmd, sel, path)
}

func initProject(cmd *cobra.Command, name, path string) error {
	configPath := filepath.Join(path, ".denali.toml")
	if _, err := os.Stat(configPath); err == nil {
		return denalierr.ErrConfigExists
	}
	wt := config.WorkingTree{
		Root:  config.RootConfig{Name: name, Description: initDescription},
		Cells: map[string]config.CellConfig{},
	}
	if err := config.SaveWorkingTree(configPath, wt); err != nil {
		return err
	}
	cmd.Printf("initialized project %q at %s\n", name, configPath)
	return nil
}

func initCell(cmd *cobra.Command, sel selector, cellPath string) error {
	projectPath := initProjectPath
	if projectPath == "" {
		projectPath = filepath.Dir(cellPath)
	}
	configPath := filepath.Join(projectPath, ".denali.toml")

	wt, err := config.LoadWorkingTree(configPath)
	if err != nil {
		if !configMissing(err) {
			return err
		}
		wt = config.WorkingTree{Root: config.RootConfig{Name: sel.Project}, Cells: map[string]config.CellConfig{}}
	}
	if wt.Cells == nil {
		wt.Cells = map[string]config.CellConfig{}
	}
	if _, exists := wt.Cells[sel.Cell]; exists {
		return denalierr.ErrSameName
	}
	if cellPath == projectPath {
		return denalierr.ErrParentPath
	}
	wt.Cells[sel.Cell] = config.CellConfig{Description: initDescription, Path: cellPath}

	if err := config.SaveWorkingTree(configPath, wt); err != nil {
		return err
	}
	cmd.Printf("initialized cell %q on project %q at %s\n", sel.Cell, sel.Project, configPath)
	return nil
}

// configMissing reports whether err is LoadWorkingTree's wrapped form of
// "the file doesn't exist yet" rather than a real parse failure.
func configMissing(err error) bool {
	var serErr *denalierr.SerializationError
	if errors.As(err, &serErr) {
		return os.IsNotExist(serErr.Err)
	}
	return false
}
