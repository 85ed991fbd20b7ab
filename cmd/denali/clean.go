// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/spf13/cobra"

var cleanDryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "run mark-and-sweep garbage collection over the whole store",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "report what would be deleted without touching the filesystem")
}

func runClean(cmd *cobra.Command, args []string) error {
	r, err := openRoot()
	if err != nil {
		return err
	}
	result, err := r.Clean(cleanDryRun)
	if err != nil {
		return err
	}
	cmd.Printf("live objects: %d, live snapshots: %d\n", result.LiveObjects, result.LiveSnapshots)
	cmd.Printf("deleted objects: %d, deleted snapshots: %d\n", len(result.DeletedObjects), len(result.DeletedSnapshots))
	if cleanDryRun {
		for _, h := range result.DeletedObjects {
			cmd.Printf("would delete object %s\n", h)
		}
		for _, h := range result.DeletedSnapshots {
			cmd.Printf("would delete snapshot %s\n", h)
		}
	}
	return nil
}
