// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"sort"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <name>|<cell@project>",
	Short: "list the live snapshot names on a project or cell",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	sel, err := parseSelector(args[0])
	if err != nil {
		return err
	}
	r, err := openRoot()
	if err != nil {
		return err
	}
	names, err := r.List(sel.Project, sel.Cell)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}
