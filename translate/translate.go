// Package translate is the boundary to the language-model collaborator that
// turns natural-language text into a shell command.
package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aish/config"
	"aish/dircontext"
)

// ErrNoSuggestion means the collaborator answered but offered no command
var ErrNoSuggestion = errors.New("no suggestion available")

// Failure describes a suggested command that did not work
type Failure struct {
	Command  string
	ExitCode int
	Signal   string
	Stderr   string
}

// Request is everything the collaborator is told about one translation
type Request struct {
	// Text is the user's original input, never a previously suggested command
	Text    string
	Context *dircontext.Snapshot
	// Failure is set when asking to fix a suggestion that failed
	Failure *Failure
	// Recent holds a few recent commands from this directory, oldest first
	Recent []string
	Shell  string
	OS     string
}

// Suggestion is a candidate command with an optional explanation
type Suggestion struct {
	Command     string
	Explanation string
}

// Translator maps a request to a suggestion. Implementations must honour
// ctx cancellation.
type Translator interface {
	Translate(ctx context.Context, req Request) (*Suggestion, error)
}

// TranslatorFunc adapts a function to Translator
type TranslatorFunc func(ctx context.Context, req Request) (*Suggestion, error)

// Translate calls f
func (f TranslatorFunc) Translate(ctx context.Context, req Request) (*Suggestion, error) {
	return f(ctx, req)
}

// timeoutTranslator bounds every call so a hung request cannot stall the session
type timeoutTranslator struct {
	next    Translator
	timeout time.Duration
}

// WithTimeout wraps t so each call gets its own deadline
func WithTimeout(t Translator, timeout time.Duration) Translator {
	if timeout <= 0 {
		return t
	}
	return &timeoutTranslator{next: t, timeout: timeout}
}

func (t *timeoutTranslator) Translate(ctx context.Context, req Request) (*Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	s, err := t.next.Translate(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("translation timed out after %s: %w", t.timeout, err)
	}
	return s, err
}

// New builds the translator selected by cfg. It returns nil, nil when the
// provider is "none".
func New(cfg config.Config, apiKey string, logger *zap.Logger) (Translator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var t Translator
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider needs an API key")
		}
		t = NewOpenAIClient(cfg.BaseURL, cfg.Model, apiKey, logger)
	case config.ProviderOllama:
		t = NewOllamaClient(cfg.BaseURL, cfg.Model, logger)
	case config.ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("gemini provider needs an API key")
		}
		g, err := NewGeminiClient(context.Background(), cfg.BaseURL, cfg.Model, apiKey, logger)
		if err != nil {
			return nil, err
		}
		t = g
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return WithTimeout(t, cfg.TranslateTimeout), nil
}
