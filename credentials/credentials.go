// Package credentials finds the API key for the translation provider.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileName is the key file inside the config directory
const FileName = "credentials"

// ErrAborted means the user gave no usable key within the allowed attempts
// or time
var ErrAborted = errors.New("credential entry aborted")

// Store reads and writes the key file
type Store struct {
	path string
}

// NewStore creates a store for <dir>/credentials
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Load returns the stored key, or "" when none is saved
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes key readable only by the owner
func (s *Store) Save(key string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(key+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// ReadFunc reads one line of input, typically with echo disabled
type ReadFunc func(prompt string) (string, error)

// Prompt asks for a key up to attempts times within timeout. Blank answers
// use up an attempt. When the deadline passes the pending read is abandoned;
// the caller should close whatever read is blocked on.
func Prompt(ctx context.Context, read ReadFunc, out io.Writer, attempts int, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		text string
		err  error
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		results := make(chan answer, 1)
		go func() {
			text, err := read("API key: ")
			results <- answer{text, err}
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nTimed out waiting for an API key.")
			return "", fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
		case a := <-results:
			if a.err != nil {
				return "", fmt.Errorf("%w: %v", ErrAborted, a.err)
			}
			if key := strings.TrimSpace(a.text); key != "" {
				return key, nil
			}
			if attempt < attempts {
				fmt.Fprintf(out, "No key entered (%d of %d attempts).\n", attempt, attempts)
			}
		}
	}
	return "", ErrAborted
}

// Resolver looks for a key in the environment, then the key file, then asks
type Resolver struct {
	EnvVar   string
	Store    *Store
	Read     ReadFunc // nil disables prompting
	Out      io.Writer
	Attempts int
	Timeout  time.Duration
}

// Resolve returns the first non-empty key. A prompted key is saved for the
// next session.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if r.EnvVar != "" {
		if key := strings.TrimSpace(os.Getenv(r.EnvVar)); key != "" {
			return key, nil
		}
	}
	if r.Store != nil {
		key, err := r.Store.Load()
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	if r.Read == nil {
		return "", ErrAborted
	}

	out := r.Out
	if out == nil {
		out = io.Discard
	}
	if r.EnvVar != "" {
		fmt.Fprintf(out, "No API key found in $%s. Enter one to enable AI suggestions (Ctrl+D to skip).\n", r.EnvVar)
	}
	key, err := Prompt(ctx, r.Read, out, r.Attempts, r.Timeout)
	if err != nil {
		return "", err
	}
	if r.Store != nil {
		if err := r.Store.Save(key); err != nil {
			fmt.Fprintf(out, "Warning: could not save key: %v\n", err)
		}
	}
	return key, nil
}
