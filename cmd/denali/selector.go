// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"

	"github.com/maxponych/denali/internal/denalierr"
)

// selector is a parsed project or cell-within-project argument: spec.md
// §6 accepts either bare "name" (a project) or "cell@project".
type selector struct {
	Project string
	Cell    string // empty for a bare project selector
}

func (s selector) String() string {
	if s.Cell == "" {
		return s.Project
	}
	return s.Cell + "@" + s.Project
}

func parseSelector(raw string) (selector, error) {
	if raw == "" {
		return selector{}, denalierr.ErrInvalidNameFormat
	}
	if idx := strings.IndexByte(raw, '@'); idx >= 0 {
		cell, project := raw[:idx], raw[idx+1:]
		if cell == "" || project == "" || strings.ContainsRune(project, '@') {
			return selector{}, denalierr.ErrInvalidNameFormat
		}
		return selector{Project: project, Cell: cell}, nil
	}
	return selector{Project: raw}, nil
}
