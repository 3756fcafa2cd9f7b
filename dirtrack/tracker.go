// Package dirtrack owns the session's working directory.
//
// The directory is plain state threaded into every subprocess; the aish
// process itself never calls os.Chdir.
package dirtrack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotDirectory is wrapped by PathError when the target exists but is a file
var ErrNotDirectory = errors.New("not a directory")

// ErrNoPrevious is returned by "cd -" before any successful change
var ErrNoPrevious = errors.New("no previous directory")

// PathError reports a failed change, keyed to the resolved target path
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return "cd: no such file or directory: " + e.Path
	}
	return "cd: " + e.Err.Error() + ": " + e.Path
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Tracker holds the current and previous working directories
type Tracker struct {
	mu       sync.RWMutex
	dir      string
	previous string
	home     func() (string, error)
}

// New creates a tracker starting at dir, which must be an existing directory
func New(dir string) (*Tracker, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := checkDir(abs); err != nil {
		return nil, err
	}
	return &Tracker{dir: abs, home: os.UserHomeDir}, nil
}

// Dir returns the current working directory
func (t *Tracker) Dir() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dir
}

// Base returns the last path element of the working directory, for prompts
func (t *Tracker) Base() string {
	dir := t.Dir()
	base := filepath.Base(dir)
	if base == "" || base == "." {
		return string(filepath.Separator)
	}
	return base
}

// Change resolves argument against the current directory and makes it the
// working directory. An empty argument means the home directory, "-" the
// previous directory, and a leading "~" expands to home. On failure the state
// is unchanged.
func (t *Tracker) Change(argument string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	argument = unquote(strings.TrimSpace(argument))

	var target string
	switch {
	case argument == "" || argument == "~":
		home, err := t.home()
		if err != nil {
			return "", fmt.Errorf("cd: resolving home directory: %w", err)
		}
		target = home
	case argument == "-":
		if t.previous == "" {
			return "", ErrNoPrevious
		}
		target = t.previous
	case strings.HasPrefix(argument, "~/") || strings.HasPrefix(argument, `~\`):
		home, err := t.home()
		if err != nil {
			return "", fmt.Errorf("cd: resolving home directory: %w", err)
		}
		target = filepath.Join(home, argument[2:])
	case filepath.IsAbs(argument):
		target = filepath.Clean(argument)
	default:
		target = filepath.Join(t.dir, argument)
	}

	if err := checkDir(target); err != nil {
		return "", err
	}

	t.previous = t.dir
	t.dir = target
	return target, nil
}

// IsChangeDirectory reports whether line is the "cd" pseudo-command and
// returns its argument
func IsChangeDirectory(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "cd" {
		return "", true
	}
	if strings.HasPrefix(line, "cd ") || strings.HasPrefix(line, "cd\t") {
		return strings.TrimSpace(line[3:]), true
	}
	return "", false
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &PathError{Path: path, Err: fs.ErrNotExist}
		}
		return &PathError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return &PathError{Path: path, Err: ErrNotDirectory}
	}
	return nil
}

// unquote strips one layer of matching quotes so `cd "My Files"` works
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
