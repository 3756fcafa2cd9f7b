package session

import (
	"context"
	"sync"
)

// State is where the suggestion exchange currently stands
type State int

const (
	// Idle means the next line is an ordinary command
	Idle State = iota
	// AwaitingSuggestion means a translation request is in flight
	AwaitingSuggestion
	// SuggestionOffered means the input line was prefilled with a suggestion
	// and the next submitted line is that suggestion, edited or not
	SuggestionOffered
	// FixOffered means a suggested command failed and the user is being asked
	// whether to request a corrected one
	FixOffered
)

func (s State) String() string {
	switch s {
	case AwaitingSuggestion:
		return "awaiting-suggestion"
	case SuggestionOffered:
		return "suggestion-offered"
	case FixOffered:
		return "fix-offered"
	default:
		return "idle"
	}
}

// SuggestionContext is the live suggestion, if any
type SuggestionContext struct {
	// OriginalText is the natural-language input that started the exchange.
	// It survives fix attempts unchanged.
	OriginalText string
	// Command is the text that was prefilled
	Command string
	// Pending is true while the next submitted line is the suggestion
	Pending bool
}

// Machine tracks the suggestion state. Interrupts read and cancel it from
// another goroutine, so every transition holds the lock.
type Machine struct {
	mu       sync.Mutex
	state    State
	current  *SuggestionContext
	original string
	cancel   context.CancelFunc
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Context returns a copy of the live suggestion, or nil
func (m *Machine) Context() *SuggestionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	c := *m.current
	return &c
}

// Pending reports whether an interrupt would cancel something
func (m *Machine) Pending() bool {
	return m.State() != Idle
}

// BeginTranslation records an in-flight request for original. cancel aborts
// it when the user interrupts.
func (m *Machine) BeginTranslation(original string, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = AwaitingSuggestion
	m.original = original
	m.current = nil
	m.cancel = cancel
}

// Offer moves to SuggestionOffered. It returns false when the request was
// cancelled while in flight, in which case nothing should be prefilled.
func (m *Machine) Offer(command string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingSuggestion {
		return false
	}
	m.state = SuggestionOffered
	m.current = &SuggestionContext{OriginalText: m.original, Command: command, Pending: true}
	m.cancel = nil
	return true
}

// Abandon returns to Idle after a failed request. It returns false when the
// user had already cancelled it.
func (m *Machine) Abandon() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != AwaitingSuggestion {
		return false
	}
	m.reset()
	return true
}

// Consume hands back the pending suggestion, if any, and returns to Idle.
// It is called for every submitted line so a suggestion is never replayed.
func (m *Machine) Consume() *SuggestionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != SuggestionOffered {
		return nil
	}
	c := *m.current
	c.Pending = false
	m.reset()
	return &c
}

// OfferFix moves to FixOffered for a failed suggestion of original
func (m *Machine) OfferFix(original string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = FixOffered
	m.original = original
	m.current = nil
	m.cancel = nil
}

// Cancel drops whatever is pending and aborts an in-flight request. It
// returns false when there was nothing to cancel.
func (m *Machine) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return false
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.reset()
	return true
}

// Reset returns to Idle unconditionally
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.current = nil
	m.original = ""
	m.cancel = nil
}
