package process

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ErrNotRunning is returned when signalling a handle whose process has exited.
var ErrNotRunning = errors.New("process: not running")

// stderrTailSize bounds the stderr kept for diagnostics.
const stderrTailSize = 4096

// Handle is a long-running subprocess whose stdout is consumed while it runs.
// The audio capture device uses it to stream encoder output.
type Handle struct {
	cmd    *exec.Cmd
	stdout *io.PipeReader
	stderr *tailBuffer
	grace  time.Duration

	done    chan struct{}
	waitErr error

	mu      sync.Mutex
	paused  bool
	stopped bool
}

// Start launches cmd without waiting for it. The caller must read Stdout
// until EOF and eventually call Stop.
func Start(cmd Command) (*Handle, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	configure(c, cmd)

	pr, pw := io.Pipe()
	h := &Handle{
		cmd:    c,
		stdout: pr,
		stderr: &tailBuffer{max: stderrTailSize},
		grace:  cmd.grace(),
		done:   make(chan struct{}),
	}
	c.Stdout = pw
	c.Stderr = h.stderr

	if err := c.Start(); err != nil {
		_ = pw.Close()
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}

	go func() {
		err := c.Wait()
		_ = pw.Close()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()
	return h, nil
}

// Stdout returns the process output. It reaches EOF once the process exits.
func (h *Handle) Stdout() io.Reader { return h.stdout }

// Done is closed when the process has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the exit error once Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

// Stderr returns the tail of the process's standard error.
func (h *Handle) Stderr() string { return h.stderr.String() }

// Pid returns the process id.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// Suspend stops the process group with SIGSTOP.
func (h *Handle) Suspend() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.signal(syscall.SIGSTOP); err != nil {
		return err
	}
	h.paused = true
	return nil
}

// Continue resumes a suspended process group.
func (h *Handle) Continue() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.signal(syscall.SIGCONT); err != nil {
		return err
	}
	h.paused = false
	return nil
}

// Stop asks the process to finish with SIGINT, which lets encoders flush
// their trailers, and kills it if it has not exited after the grace period.
// Stop is idempotent and returns once the process has exited.
func (h *Handle) Stop() error {
	h.mu.Lock()
	if !h.stopped {
		h.stopped = true
		if h.paused {
			_ = h.signal(syscall.SIGCONT)
			h.paused = false
		}
		_ = h.signal(syscall.SIGINT)
	}
	h.mu.Unlock()

	timer := time.NewTimer(h.grace)
	defer timer.Stop()
	select {
	case <-h.done:
		return nil
	case <-timer.C:
	}

	if err := syscall.Kill(-h.cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("process: kill: %w", err)
	}
	<-h.done
	return nil
}

func (h *Handle) signal(sig syscall.Signal) error {
	select {
	case <-h.done:
		return ErrNotRunning
	default:
	}
	if err := syscall.Kill(-h.cmd.Process.Pid, sig); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return ErrNotRunning
		}
		return fmt.Errorf("process: signal %v: %w", sig, err)
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
