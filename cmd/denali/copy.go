// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/root"
	"github.com/spf13/cobra"
)

var copySrcRoot string

var copyCmd = &cobra.Command{
	Use:   "copy <name>|<cell@project> <snapshot-name>",
	Short: "duplicate a snapshot's full object graph from --src-root into this store",
	Args:  cobra.ExactArgs(2),
	RunE:  runCopy,
}

func init() {
	copyCmd.Flags().StringVar(&copySrcRoot, "src-root", "", "store root to copy from")
	copyCmd.MarkFlagRequired("src-root")
}

func runCopy(cmd *cobra.Command, args []string) error {
	sel, err := parseSelector(args[0])
	if err != nil {
		return err
	}
	snapshotName := args[1]

	src, err := root.Open(copySrcRoot)
	if err != nil {
		return err
	}
	dst, err := openRoot()
	if err != nil {
		return err
	}

	if err := dst.Copy(src, sel.Project, sel.Cell, snapshotName); err != nil {
		return err
	}

	srcPM, srcRef, err := src.ProjectManifest(sel.Project)
	if err != nil {
		return err
	}
	snaps := srcPM.Snapshots
	sourcePath := srcRef.Path
	if sel.Cell != "" {
		cell, ok := srcPM.Cells[sel.Cell]
		if !ok {
			return &denalierr.NotFoundError{Kind: "cell", Name: sel.Cell}
		}
		snaps = cell.Snapshots
		sourcePath = cell.Path
	}
	snapRef, ok := snaps[snapshotName]
	if !ok {
		return &denalierr.NotFoundError{Kind: "snapshot", Name: snapshotName}
	}
	metaHash, err := objhash.ParseHex(snapRef.Hash)
	if err != nil {
		return &denalierr.SerializationError{Format: "hash", Err: err}
	}

	if err := dst.AdoptSnapshot(sel.Project, sel.Cell, snapshotName, metaHash, sourcePath, time.Now().UTC()); err != nil {
		return err
	}
	cmd.Printf("copied %s %s\n", sel, snapshotName)
	return nil
}
