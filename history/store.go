// Package history persists the line-edit recall buffer between sessions.
//
// The file on disk is append ordered (oldest first, one command per line).
// In memory the buffer is newest first. Load and Save each reverse exactly
// once so the two representations agree.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// MaxEntries bounds both the saved file and the live buffer
	MaxEntries = 1000
	// TrimTo is the live buffer length after it overflows MaxEntries
	TrimTo = 500
)

// Store holds the recall buffer and knows where to persist it
type Store struct {
	path    string
	mu      sync.Mutex
	entries []string // newest first
}

// NewStore creates a store backed by path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the history file location
func (s *Store) Path() string {
	return s.path
}

// Load replaces the buffer with the file contents. A missing file yields an
// empty buffer.
func (s *Store) Load() error {
	lines, err := ReadFile(s.path)
	if err != nil {
		return err
	}
	reverse(lines)
	if len(lines) > MaxEntries {
		lines = lines[:MaxEntries]
	}

	s.mu.Lock()
	s.entries = lines
	s.mu.Unlock()
	return nil
}

// ReadFile returns the non-empty lines of a history file in file order
// (oldest first).
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	lines := []string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Append records command as the most recent entry. Blank commands and an
// exact repeat of the newest entry are ignored.
func (s *Store) Append(command string) {
	command = strings.TrimSpace(command)
	if command == "" || strings.ContainsAny(command, "\r\n") {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > 0 && s.entries[0] == command {
		return
	}
	s.entries = append([]string{command}, s.entries...)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:TrimTo]
	}
}

// Entries returns a copy of the buffer, newest first
func (s *Store) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of buffered entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Save writes the buffer oldest first, capped at MaxEntries, via a temp file
// and rename so a crash never leaves a half-written history. Calling Save
// repeatedly without intervening Appends writes identical content.
func (s *Store) Save() (err error) {
	s.mu.Lock()
	lines := make([]string, len(s.entries))
	copy(lines, s.entries)
	s.mu.Unlock()

	if len(lines) > MaxEntries {
		lines = lines[:MaxEntries]
	}
	reverse(lines)

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "history-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist history: %w", err)
	}
	if err = tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist history: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

func reverse(lines []string) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}
