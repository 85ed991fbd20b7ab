// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"time"

	"github.com/maxponych/denali/internal/config"
	"github.com/spf13/cobra"
)

var (
	checkPath string
	checkYes  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "reconcile a working tree's .denali.toml against the recorded manifests",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkPath, "path", "", "working tree to check (default: cwd)")
	checkCmd.Flags().BoolVar(&checkYes, "yes", false, "auto-confirm every offer instead of prompting")
}

func runCheck(cmd *cobra.Command, args []string) error {
	source, err := resolvePath(checkPath)
	if err != nil {
		return err
	}
	wt, err := config.LoadWorkingTree(filepath.Join(source, ".denali.toml"))
	if err != nil {
		return err
	}

	r, err := openRoot()
	if err != nil {
		return err
	}

	name, err := r.Reconcile(source, wt, time.Now().UTC(), pickConfirmer(checkYes))
	if err != nil {
		return err
	}
	cmd.Printf("reconciled %s\n", name)
	return nil
}
