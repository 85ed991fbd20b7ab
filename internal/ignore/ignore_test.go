// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesDirectPattern(t *testing.T) {
	s := Compile([]string{"build/*.log"})
	require.True(t, s.Matches("build/output.log", false))
}

func TestMatchesBasenamePattern(t *testing.T) {
	s := Compile([]string{"node_modules"})
	require.True(t, s.Matches("node_modules", true))
	require.False(t, s.Matches("src/node_modules_backup", true))
}

func TestMatchesDirPrefixPattern(t *testing.T) {
	s := Compile([]string{"target/**"})
	require.True(t, s.Matches("target", true))
	require.False(t, s.Matches("target-notes.txt", false))
}

func TestAddAppendsPatterns(t *testing.T) {
	s := Compile([]string{"*.tmp"})
	s.Add("cells/scratch/**")
	require.True(t, s.Matches("cells/scratch", true))
	require.True(t, s.Matches("x.tmp", false))
}

func TestLoadLegacyFileSkipsCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".denaliignore")
	content := "# comment\n\n.o\n.class\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	patterns, err := LoadLegacyFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"*.o", "*.class"}, patterns)
}

func TestLoadLegacyFileMissingReturnsNil(t *testing.T) {
	patterns, err := LoadLegacyFile(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Nil(t, patterns)
}
