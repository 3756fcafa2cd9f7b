//go:build !windows

package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer guards a bytes.Buffer written by the copy goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestSupervisor() (*Supervisor, *syncBuffer, *syncBuffer) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	s := NewSupervisor(Shell{Path: "/bin/sh", Args: []string{"-c"}}, WithIO(nil, stdout, stderr))
	return s, stdout, stderr
}

func TestRunSuccess(t *testing.T) {
	s, stdout, _ := newTestSupervisor()

	out := s.Run(context.Background(), "echo hello", t.TempDir())

	assert.True(t, out.Success())
	assert.False(t, out.Failed())
	assert.Equal(t, "hello\n", stdout.String())
	assert.Empty(t, out.Stderr)
	assert.False(t, s.Running())
}

func TestRunFailureRetainsStderr(t *testing.T) {
	s, _, stderr := newTestSupervisor()

	out := s.Run(context.Background(), "echo oops >&2; exit 3", t.TempDir())

	assert.True(t, out.Failed())
	assert.True(t, out.Fixable())
	assert.Equal(t, 3, out.ExitCode)
	assert.Equal(t, "oops\n", out.Stderr)
	assert.Equal(t, "oops\n", stderr.String(), "stderr must still be streamed live")
	assert.Equal(t, "exit code 3", out.Describe())
}

func TestRunCommandNotFound(t *testing.T) {
	s, _, _ := newTestSupervisor()

	out := s.Run(context.Background(), "definitely-not-a-command-aish", t.TempDir())

	assert.NoError(t, out.SpawnErr, "a missing command is a shell failure, not a spawn failure")
	assert.Equal(t, 127, out.ExitCode)
	assert.True(t, out.Fixable())
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	s, stdout, _ := newTestSupervisor()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	out := s.Run(context.Background(), "pwd -P", dir)

	require.True(t, out.Success())
	assert.Equal(t, dir, strings.TrimSpace(stdout.String()))
}

func TestRunSpawnErrors(t *testing.T) {
	t.Run("MissingShell", func(t *testing.T) {
		s := NewSupervisor(Shell{Path: "/nonexistent/shell", Args: []string{"-c"}}, WithIO(nil, &syncBuffer{}, &syncBuffer{}))
		out := s.Run(context.Background(), "true", t.TempDir())

		var spawnErr *SpawnError
		require.True(t, errors.As(out.SpawnErr, &spawnErr))
		assert.False(t, out.Failed(), "spawn errors are not command failures")
		assert.False(t, out.Fixable())
		assert.False(t, s.Running())
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		s, _, _ := newTestSupervisor()
		out := s.Run(context.Background(), "true", filepath.Join(t.TempDir(), "gone"))
		assert.Error(t, out.SpawnErr)
		assert.False(t, out.Fixable())
	})
}

func TestRunTerminatedBySignal(t *testing.T) {
	s, _, _ := newTestSupervisor()

	out := s.Run(context.Background(), "kill -TERM $$", t.TempDir())

	assert.Equal(t, "SIGTERM", out.Signal)
	assert.True(t, out.Failed())
	assert.True(t, out.Fixable(), "a signal the user did not send is a fixable failure")
	assert.Equal(t, "terminated by SIGTERM", out.Describe())
}

func TestInterrupt(t *testing.T) {
	s, _, _ := newTestSupervisor()

	assert.False(t, s.Interrupt(), "nothing running")

	done := make(chan Outcome, 1)
	go func() {
		done <- s.Run(context.Background(), "exec sleep 5", t.TempDir())
	}()

	require.Eventually(t, s.Running, 2*time.Second, 10*time.Millisecond)
	assert.True(t, s.Interrupt())

	select {
	case out := <-done:
		assert.True(t, out.Interrupted)
		assert.True(t, out.Failed())
		assert.False(t, out.Fixable(), "user interrupts are never offered for fixing")
	case <-time.After(4 * time.Second):
		t.Fatal("interrupted command did not finish")
	}
	assert.False(t, s.Running())
}

func TestRunContextCancelKills(t *testing.T) {
	s, _, _ := newTestSupervisor()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	out := s.Run(ctx, "exec sleep 5", t.TempDir())

	assert.Equal(t, "SIGKILL", out.Signal)
	assert.Less(t, out.Duration, 4*time.Second)
}

func TestRunTerminalStdoutPassthrough(t *testing.T) {
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer devnull.Close()

	s := NewSupervisor(Shell{Path: "/bin/sh", Args: []string{"-c"}}, WithIO(nil, devnull, &syncBuffer{}))
	out := s.Run(context.Background(), "echo to-file", t.TempDir())
	assert.True(t, out.Success())
}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(5)
	tb.Write([]byte("abc"))
	tb.Write([]byte("defgh"))
	assert.Equal(t, "defgh", tb.String())
}
