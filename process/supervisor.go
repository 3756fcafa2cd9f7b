// Package process runs one foreground command at a time on behalf of the
// interactive session.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// stderrTail bounds how much error output an Outcome retains
const stderrTail = 8 * 1024

// SpawnError means the shell could not be started at all. No command ran.
type SpawnError struct {
	Shell string
	Dir   string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s in %s: %v", e.Shell, e.Dir, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Outcome describes how a command finished
type Outcome struct {
	ExitCode    int
	Signal      string // e.g. "SIGTERM" when killed by a signal
	Stderr      string // tail of the error stream
	SpawnErr    error
	Interrupted bool // the user interrupted this command
	Duration    time.Duration
}

// Success reports a clean zero exit
func (o Outcome) Success() bool {
	return o.SpawnErr == nil && o.Signal == "" && o.ExitCode == 0
}

// Failed reports a command that ran and exited nonzero or by signal
func (o Outcome) Failed() bool {
	return o.SpawnErr == nil && (o.ExitCode != 0 || o.Signal != "")
}

// Fixable reports a failure worth handing to the translator. A command the
// user interrupted is never one.
func (o Outcome) Fixable() bool {
	return o.Failed() && !o.Interrupted
}

// Describe renders the exit status for messages
func (o Outcome) Describe() string {
	switch {
	case o.SpawnErr != nil:
		return o.SpawnErr.Error()
	case o.Signal != "":
		return "terminated by " + o.Signal
	default:
		return fmt.Sprintf("exit code %d", o.ExitCode)
	}
}

// Supervisor spawns commands and owns the single running-process slot
type Supervisor struct {
	shell  Shell
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	env    []string
	logger *zap.Logger

	mu          sync.Mutex
	running     *os.Process
	interrupted bool
}

// Option configures a Supervisor
type Option func(*Supervisor)

// WithIO replaces the standard streams. A nil reader gives the child an
// empty stdin.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdin = stdin
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithEnv sets the child environment; nil inherits ours
func WithEnv(env []string) Option {
	return func(s *Supervisor) {
		s.env = env
	}
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// NewSupervisor creates a supervisor wired to the process's own terminal
func NewSupervisor(shell Shell, opts ...Option) *Supervisor {
	s := &Supervisor{
		shell:  shell,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a command currently occupies the slot
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running != nil
}

// Interrupt forwards an interrupt to the running command. It returns false
// when nothing is running, in which case the caller decides what the
// interrupt means.
func (s *Supervisor) Interrupt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running == nil {
		return false
	}
	s.interrupted = true
	if err := forwardInterrupt(s.running); err != nil {
		s.logger.Debug("forwarding interrupt failed", zap.Int("pid", s.running.Pid), zap.Error(err))
	}
	return true
}

// Run executes line through the shell in dir and blocks until the command's
// output streams are drained and its exit status is known. There is no
// timeout; ctx cancellation kills the command.
func (s *Supervisor) Run(ctx context.Context, line, dir string) Outcome {
	start := time.Now()
	argv := s.shell.Command(line)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = s.env
	cmd.Stdin = s.stdin

	// Success output is never retained, so a terminal can be handed to the
	// child as-is and keep its tty behaviour.
	var stdoutPipe io.ReadCloser
	if f, ok := s.stdout.(*os.File); ok {
		cmd.Stdout = f
	} else {
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			return s.spawnFailed(dir, err, start)
		}
		stdoutPipe = pipe
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return s.spawnFailed(dir, err, start)
	}

	s.mu.Lock()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return s.spawnFailed(dir, err, start)
	}
	s.running = cmd.Process
	s.interrupted = false
	s.mu.Unlock()

	s.logger.Debug("command started",
		zap.String("command", line),
		zap.String("dir", dir),
		zap.Int("pid", cmd.Process.Pid))

	tail := newTailBuffer(stderrTail)
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(io.MultiWriter(s.stderr, tail), stderrPipe)
		return err
	})
	if stdoutPipe != nil {
		g.Go(func() error {
			_, err := io.Copy(s.stdout, stdoutPipe)
			return err
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Debug("copying command output", zap.Error(err))
	}
	waitErr := cmd.Wait()

	// The slot is released only now that every stream is closed.
	s.mu.Lock()
	interrupted := s.interrupted
	s.running = nil
	s.interrupted = false
	s.mu.Unlock()

	outcome := Outcome{
		Stderr:   tail.String(),
		Duration: time.Since(start),
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			outcome.SpawnErr = &SpawnError{Shell: s.shell.Path, Dir: dir, Err: waitErr}
			return outcome
		}
	}
	outcome.ExitCode, outcome.Signal = exitStatus(cmd.ProcessState)
	outcome.Interrupted = interrupted || outcome.Signal == "SIGINT" || outcome.ExitCode == 130

	s.logger.Debug("command finished",
		zap.String("command", line),
		zap.Int("exit_code", outcome.ExitCode),
		zap.String("signal", outcome.Signal),
		zap.Bool("interrupted", outcome.Interrupted),
		zap.Duration("duration", outcome.Duration))
	return outcome
}

func (s *Supervisor) spawnFailed(dir string, err error, start time.Time) Outcome {
	s.logger.Warn("spawn failed", zap.String("shell", s.shell.Path), zap.String("dir", dir), zap.Error(err))
	return Outcome{
		ExitCode: -1,
		SpawnErr: &SpawnError{Shell: s.shell.Path, Dir: dir, Err: err},
		Duration: time.Since(start),
	}
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
