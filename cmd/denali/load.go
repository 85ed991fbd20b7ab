// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/maxponych/denali/internal/filter"
	"github.com/spf13/cobra"
)

var (
	loadPath       string
	loadWipe       bool
	loadWithConfig bool
	loadName       string
	loadBefore     string
	loadAfter      string
)

var loadCmd = &cobra.Command{
	Use:   "load <name>|<cell@project>",
	Short: "restore a snapshot onto a destination directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadPath, "path", "", "destination directory (default: cwd; cell selectors default to the cell's registered path)")
	loadCmd.Flags().BoolVar(&loadWipe, "wipe", false, "destructively clear the destination before restoring")
	loadCmd.Flags().BoolVar(&loadWithConfig, "with-config", false, "also restore .denali.toml instead of preserving the existing one")
	loadCmd.Flags().StringVar(&loadName, "name", "", "restore the snapshot with this exact name")
	loadCmd.Flags().StringVar(&loadBefore, "before", "", "restore the newest snapshot strictly before this datetime")
	loadCmd.Flags().StringVar(&loadAfter, "after", "", "restore the newest snapshot strictly after this datetime")
}

func runLoad(cmd *cobra.Command, args []string) error {
	sel, err := parseSelector(args[0])
	if err != nil {
		return err
	}
	f, err := buildFilter(time.Now().UTC())
	if err != nil {
		return err
	}

	r, err := openRoot()
	if err != nil {
		return err
	}

	dest := loadPath
	if sel.Cell == "" && dest == "" {
		dest, err = resolvePath("")
		if err != nil {
			return err
		}
	}

	if sel.Cell == "" {
		if err := r.LoadProjectSnapshot(sel.Project, dest, f, loadWipe, loadWithConfig); err != nil {
			return err
		}
		cmd.Printf("restored %s to %s\n", sel.Project, dest)
		return nil
	}

	if err := r.LoadCellSnapshot(sel.Project, sel.Cell, dest, f, loadWipe, loadWithConfig); err != nil {
		return err
	}
	cmd.Printf("restored %s@%s\n", sel.Cell, sel.Project)
	return nil
}

// buildFilter turns the --name/--before/--after flags into a
// filter.Filter, per spec.md §4.4's datetime parsing rules.
func buildFilter(now time.Time) (filter.Filter, error) {
	var f filter.Filter
	if loadName != "" {
		name := loadName
		f.Name = &name
	}
	if loadBefore != "" {
		ts, err := filter.ParseDateTime(loadBefore, now)
		if err != nil {
			return filter.Filter{}, err
		}
		f.Before = &ts
	}
	if loadAfter != "" {
		ts, err := filter.ParseDateTime(loadAfter, now)
		if err != nil {
			return filter.Filter{}, err
		}
		f.After = &ts
	}
	return f, nil
}
