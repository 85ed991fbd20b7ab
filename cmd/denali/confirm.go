// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/maxponych/denali/internal/reconcile"
)

// terminalConfirmer routes each reconcile.Offer to stdin/stdout as a
// yes/no prompt, the confirmation collaborator spec.md §4.6's `check`
// operation requires.
type terminalConfirmer struct {
	in  *bufio.Reader
	out *bufio.Writer
}

func newTerminalConfirmer() *terminalConfirmer {
	return &terminalConfirmer{in: bufio.NewReader(stdin), out: bufio.NewWriter(stdout)}
}

func (c *terminalConfirmer) Confirm(offer reconcile.Offer) (bool, error) {
	fmt.Fprintf(c.out, "%s\n", describeOffer(offer))
	c.out.Flush()
	for {
		fmt.Fprint(c.out, "proceed? [y/N] ")
		c.out.Flush()
		line, err := c.in.ReadString('\n')
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
	}
}

func describeOffer(offer reconcile.Offer) string {
	scope := offer.Scope
	if offer.Cell != "" {
		scope = fmt.Sprintf("cell %q", offer.Cell)
	}
	switch offer.Action {
	case reconcile.ActionCreate:
		return fmt.Sprintf("create %s %q", scope, offer.NewName)
	case reconcile.ActionRename:
		return fmt.Sprintf("rename %s %q -> %q", scope, offer.OldName, offer.NewName)
	case reconcile.ActionUpdate:
		return fmt.Sprintf("update %s %q", scope, offer.OldName)
	case reconcile.ActionDelete:
		return fmt.Sprintf("delete %s %q", scope, offer.OldName)
	default:
		return fmt.Sprintf("%s %s", offer.Action, scope)
	}
}

// autoConfirmer accepts every offer without prompting, for non-interactive
// use (e.g. `check --yes`).
type autoConfirmer struct{}

func (autoConfirmer) Confirm(reconcile.Offer) (bool, error) { return true, nil }
