// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"

	"github.com/maxponych/denali/internal/reconcile"
	"github.com/maxponych/denali/internal/root"
)

// openRoot opens the store rooted at --root, used by every subcommand
// that touches store state.
func openRoot() (*root.Root, error) {
	return root.Open(rootDir)
}

// resolvePath returns raw as an absolute path, defaulting to the
// current working directory when raw is empty.
func resolvePath(raw string) (string, error) {
	if raw == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		raw = cwd
	}
	return filepath.Abs(raw)
}

func pickConfirmer(yes bool) reconcile.Confirmer {
	if yes {
		return autoConfirmer{}
	}
	return newTerminalConfirmer()
}
