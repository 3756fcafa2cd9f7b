package session

import "go.uber.org/zap"

// Action is what an interrupt did
type Action int

const (
	// Forwarded means a running command received the interrupt
	Forwarded Action = iota
	// Cancelled means a pending or in-flight suggestion was dropped
	Cancelled
	// Exited means nothing was running or pending, so the session should end
	Exited
)

func (a Action) String() string {
	switch a {
	case Forwarded:
		return "forwarded"
	case Cancelled:
		return "cancelled"
	default:
		return "exit"
	}
}

// HandleInterrupt decides what Ctrl+C means right now. It is called both for
// interrupts read at the prompt and for SIGINT delivered while a command or
// translation runs, and looks at the live state every time. Only the prompt
// path may act on Exited; a delivered SIGINT can outlive the command it was
// meant for.
func (s *Session) HandleInterrupt() Action {
	action := s.dispatchInterrupt()
	s.logger.Debug("interrupt", zap.Stringer("action", action), zap.Stringer("state", s.machine.State()))
	return action
}

func (s *Session) dispatchInterrupt() Action {
	if s.runner.Interrupt() {
		return Forwarded
	}
	if s.machine.Cancel() {
		s.editor.Clear()
		return Cancelled
	}
	return Exited
}
