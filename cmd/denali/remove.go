// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/spf13/cobra"

var removeCmd = &cobra.Command{
	Use:   "remove <name>|<cell@project>",
	Short: "tombstone a project or one of its cells",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	sel, err := parseSelector(args[0])
	if err != nil {
		return err
	}
	r, err := openRoot()
	if err != nil {
		return err
	}
	if sel.Cell == "" {
		if err := r.RemoveProject(sel.Project); err != nil {
			return err
		}
		cmd.Printf("removed %s\n", sel.Project)
		return nil
	}
	if err := r.RemoveCell(sel.Project, sel.Cell); err != nil {
		return err
	}
	cmd.Printf("removed %s@%s\n", sel.Cell, sel.Project)
	return nil
}
