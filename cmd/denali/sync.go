// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/remote"
	"github.com/maxponych/denali/internal/root"
	"github.com/spf13/cobra"
)

var syncProject string

var syncCmd = &cobra.Command{
	Use:   "sync <remote-name>",
	Short: "synchronize with a registered remote store over ssh",
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncProject, "project", "all", `project to sync ("all" for every live project)`)
}

func runSync(cmd *cobra.Command, args []string) error {
	name := args[0]
	r, err := openRoot()
	if err != nil {
		return err
	}
	ref, ok := r.Main.Remotes[name]
	if !ok {
		return &denalierr.NotFoundError{Kind: "remote", Name: name}
	}

	transport, err := remote.Dial(ref.Host, "denali", "remote", "receive", "--root", ref.Path)
	if err != nil {
		return err
	}
	defer transport.Close()

	result, err := root.SyncInitiate(r, transport, syncProject)
	if err != nil {
		return err
	}
	cmd.Printf("synced %d project(s), pulled %d snapshot(s), pushed %d snapshot(s)\n",
		result.ProjectsSynced, result.ObjectsPulled, result.ObjectsPushed)
	return nil
}
