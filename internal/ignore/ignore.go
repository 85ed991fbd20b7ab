// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package ignore compiles the glob patterns from a project or cell's
// `.denali.toml` `ignore[]` list, plus spec.md §6's legacy ignore-file
// format, into a single matcher consulted by the snapshot builder.
//
// Matching algorithm is the teacher's fstree/options.go shouldExclude:
// try a direct filepath.Match against the relative path, then against
// the base name, then (for directories) a "<dir>/**" prefix match. No
// third-party glob library is used — see DESIGN.md for why.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/maxponych/denali/internal/denalierr"
)

// Set is a compiled collection of ignore patterns.
type Set struct {
	patterns []string
}

// Compile builds a Set from glob patterns (as found in `.denali.toml`'s
// `ignore[]`).
func Compile(patterns []string) *Set {
	return &Set{patterns: append([]string(nil), patterns...)}
}

// Add appends more patterns to the set (used to graft in
// auto-generated cell-exclusion patterns, spec.md §4.2).
func (s *Set) Add(patterns ...string) {
	s.patterns = append(s.patterns, patterns...)
}

// Matches reports whether relPath (slash-separated, relative to the
// snapshot root) should be excluded. isDir additionally enables
// "<dir>/**" prefix matching.
func (s *Set) Matches(relPath string, isDir bool) bool {
	for _, pattern := range s.patterns {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
		if isDir && strings.HasSuffix(pattern, "/**") {
			prefix := strings.TrimSuffix(pattern, "/**")
			if matched, _ := filepath.Match(prefix, relPath); matched {
				return true
			}
		}
	}
	return false
}

// LoadLegacyFile parses the legacy ignore-file format (spec.md §6): one
// path suffix per line, `#` comments and blank lines skipped. Suffixes
// are translated into "*<suffix>" glob patterns so they compose with
// Matches' existing matching rules.
func LoadLegacyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &denalierr.IOError{Op: "open ignore file " + path, Err: err}
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, "*"+line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &denalierr.IOError{Op: "scan ignore file " + path, Err: err}
	}
	return patterns, nil
}
