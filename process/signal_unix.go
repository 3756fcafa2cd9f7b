//go:build !windows

package process

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// forwardInterrupt delivers SIGINT to the running command
func forwardInterrupt(p *os.Process) error {
	return p.Signal(os.Interrupt)
}

// exitStatus maps a finished process to (exit code, signal name). A command
// killed by a signal reports the shell convention 128+n as its code.
func exitStatus(state *os.ProcessState) (int, string) {
	if state == nil {
		return -1, ""
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		name := unix.SignalName(sig)
		if name == "" {
			name = sig.String()
		}
		return 128 + int(sig), name
	}
	return state.ExitCode(), ""
}
