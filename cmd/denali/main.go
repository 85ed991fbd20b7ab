// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Command denali is the CLI front end for the content-addressed
// snapshot store implemented under internal/: init, save, load, list,
// copy, check, remove, clean, tmpl, sync, and remote, per spec.md §6.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var rootDir string

// stdin/stdout are indirected for the terminal confirmer so tests can
// swap in an in-memory reader/writer.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "denali",
	Short: "denali manages content-addressed snapshots of working trees",
}

func init() {
	home, _ := os.UserHomeDir()
	defaultRoot := ""
	if home != "" {
		defaultRoot = home + "/.denali"
	}
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", defaultRoot, "store root directory")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(tmplCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
