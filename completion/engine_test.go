package completion

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
}

// newTestEngine builds an engine over a fake PATH and working directory
func newTestEngine(t *testing.T) (*Engine, string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("permission-bit scanning is POSIX only")
	}
	root := t.TempDir()
	bin1, bin2, work := filepath.Join(root, "bin1"), filepath.Join(root, "bin2"), filepath.Join(root, "work")

	writeFile(t, filepath.Join(bin1, "gitk"), 0o755)
	writeFile(t, filepath.Join(bin1, "git"), 0o755)
	writeFile(t, filepath.Join(bin1, "gist.txt"), 0o644)
	writeFile(t, filepath.Join(bin2, "git"), 0o755)
	writeFile(t, filepath.Join(bin2, "grep"), 0o755)
	require.NoError(t, os.MkdirAll(filepath.Join(bin2, "gdir"), 0o755))

	writeFile(t, filepath.Join(work, "main.go"), 0o644)
	writeFile(t, filepath.Join(work, "Makefile"), 0o644)
	writeFile(t, filepath.Join(work, ".env"), 0o644)
	writeFile(t, filepath.Join(work, "src", "lib.go"), 0o644)
	writeFile(t, filepath.Join(work, "src", "list.go"), 0o644)

	env := map[string]string{"PATH": bin1 + string(os.PathListSeparator) + filepath.Join(root, "missing") + string(os.PathListSeparator) + bin2}
	e := NewEngine(func() string { return work }, nil)
	e.getenv = func(k string) string { return env[k] }
	e.home = func() (string, error) { return work, nil }
	e.goos = "linux"
	return e, root, work
}

func TestCompleteCommand(t *testing.T) {
	e, _, _ := newTestEngine(t)

	tests := []struct {
		line string
		want []string
	}{
		{"gi", []string{"git", "gitk"}},
		{"g", []string{"git", "gitk", "grep"}},
		{"c", []string{"cd"}},
		{"  ex", []string{"exit"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := e.Complete(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestCompleteCommandCapped(t *testing.T) {
	e, root, _ := newTestEngine(t)
	for i := 0; i < MaxCandidates+20; i++ {
		writeFile(t, filepath.Join(root, "bin1", fmt.Sprintf("tool%03d", i)), 0o755)
	}
	e.Invalidate()

	got := e.Complete("tool")
	assert.Len(t, got, MaxCandidates)
	assert.Equal(t, "tool000", got[0])
}

func TestCompletePath(t *testing.T) {
	e, _, _ := newTestEngine(t)

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"CurrentDir", "cat ma", []string{"main.go"}},
		{"CaseSensitive", "cat M", []string{"Makefile"}},
		{"DirectorySuffix", "ls s", []string{"src/"}},
		{"IntoDirectory", "vim src/li", []string{"src/lib.go", "src/list.go"}},
		{"BackslashSeparator", `type src\lis`, []string{`src\list.go`}},
		{"HiddenExcluded", "cat ", []string{"Makefile", "main.go", "src/"}},
		{"HiddenWhenAsked", "cat .e", []string{".env"}},
		{"HomePrefix", "cat ~/src/l", []string{"~/src/lib.go", "~/src/list.go"}},
		{"MissingDirectory", "cat nope/x", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Complete(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestCompleteAbsolutePath(t *testing.T) {
	e, _, work := newTestEngine(t)
	got := e.Complete("cat " + work + "/ma")
	assert.Equal(t, []string{work + "/main.go"}, got)
}

func TestDoReturnsSuffixes(t *testing.T) {
	e, _, _ := newTestEngine(t)

	line := []rune("vim src/li")
	suffixes, length := e.Do(line, len(line))

	assert.Equal(t, len("src/li"), length)
	require.Len(t, suffixes, 2)
	assert.Equal(t, "b.go", string(suffixes[0]))
	assert.Equal(t, "st.go", string(suffixes[1]))
}

func TestWatchInvalidatesCache(t *testing.T) {
	e, root, _ := newTestEngine(t)
	require.NoError(t, e.Watch())
	defer e.Close()

	assert.NotContains(t, e.Executables(), "newtool")
	writeFile(t, filepath.Join(root, "bin2", "newtool"), 0o755)

	assert.Eventually(t, func() bool {
		for _, name := range e.Executables() {
			if name == "newtool" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}
