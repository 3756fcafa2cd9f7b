//go:build windows

package process

import "os"

// forwardInterrupt is a no-op: the console already delivers CTRL_C_EVENT to
// every process attached to it, and os.Process.Signal cannot send it.
func forwardInterrupt(p *os.Process) error {
	return nil
}

func exitStatus(state *os.ProcessState) (int, string) {
	if state == nil {
		return -1, ""
	}
	return state.ExitCode(), ""
}
