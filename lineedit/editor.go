// Package lineedit hides the terminal line editor behind a small interface
// so the session can prefill and clear the input line without touching the
// editor's internals.
package lineedit

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// ErrInterrupt is returned by Readline when the user presses Ctrl+C at the prompt
var ErrInterrupt = errors.New("interrupt")

// Editor reads lines from the user
type Editor interface {
	// Readline shows prompt and returns the submitted line. It returns
	// ErrInterrupt on Ctrl+C and io.EOF on Ctrl+D.
	Readline(prompt string) (string, error)
	// SetLine prefills the next Readline with text.
	SetLine(text string)
	// Clear drops any prefilled text.
	Clear()
	// AddHistory makes line available to up-arrow recall.
	AddHistory(line string)
	Close() error
}

// Options configures a Readline editor
type Options struct {
	// Completer supplies tab completions. May be nil.
	Completer readline.AutoCompleter
	// History seeds recall, newest first.
	History []string
	// HistoryLimit bounds the recall buffer.
	HistoryLimit int
	Stdin        io.ReadCloser
	Stdout       io.Writer
	Stderr       io.Writer
}

// Readline is the chzyer/readline backed Editor
type Readline struct {
	rl *readline.Instance

	mu      sync.Mutex
	pending string
}

// New creates a terminal editor
func New(opts Options) (*Readline, error) {
	cfg := &readline.Config{
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistoryLimit:           opts.HistoryLimit,
		HistorySearchFold:      true,
		DisableAutoSaveHistory: true,
		Stdin:                  opts.Stdin,
		Stdout:                 opts.Stdout,
		Stderr:                 opts.Stderr,
	}
	if opts.Completer != nil {
		cfg.AutoComplete = opts.Completer
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}

	// readline appends, so feed it oldest first
	for i := len(opts.History) - 1; i >= 0; i-- {
		rl.SaveHistory(opts.History[i])
	}
	return &Readline{rl: rl}, nil
}

func (e *Readline) Readline(prompt string) (string, error) {
	e.mu.Lock()
	prefill := e.pending
	e.pending = ""
	e.mu.Unlock()

	e.rl.SetPrompt(prompt)
	var line string
	var err error
	if prefill != "" {
		line, err = e.rl.ReadlineWithDefault(prefill)
	} else {
		line, err = e.rl.Readline()
	}
	if errors.Is(err, readline.ErrInterrupt) {
		return line, ErrInterrupt
	}
	return line, err
}

func (e *Readline) SetLine(text string) {
	e.mu.Lock()
	e.pending = text
	e.mu.Unlock()
}

func (e *Readline) Clear() {
	e.mu.Lock()
	e.pending = ""
	e.mu.Unlock()
}

func (e *Readline) AddHistory(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	e.rl.SaveHistory(line)
}

// ReadSecret reads a line without echo
func (e *Readline) ReadSecret(prompt string) (string, error) {
	b, err := e.rl.ReadPassword(prompt)
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupt
	}
	return string(b), err
}

func (e *Readline) Close() error {
	return e.rl.Close()
}

// Confirm asks a yes/no question. Anything other than y or yes, including
// an interrupt or an empty answer, is a no.
func Confirm(e Editor, prompt string) (bool, error) {
	answer, err := e.Readline(prompt)
	if err != nil {
		if errors.Is(err, ErrInterrupt) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
