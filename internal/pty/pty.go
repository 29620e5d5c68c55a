// Package pty supervises the pseudo-terminal a recorded command runs
// under: fork/exec of the child, the master file descriptor's read and
// write halves, window-size propagation, and child reaping.
package pty

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// SpawnConfig describes the command to run under the PTY.
type SpawnConfig struct {
	// Command is run as `/bin/sh -c Command`.
	Command string

	// Dir is the child's working directory; empty means inherit.
	Dir string

	// Env holds additional environment entries layered on top of the
	// parent's environment, e.g. ASCIINEMA_SESSION and
	// ASCIINEMA_RELAY_ID.
	Env map[string]string
}

// Supervisor owns the master PTY file descriptor exclusively: no other
// component reads or writes it directly.
type Supervisor struct {
	mu     sync.Mutex
	master *os.File
	cmd    *exec.Cmd
	cols   uint16
	rows   uint16
	logger *slog.Logger
}

// New creates a Supervisor for a PTY of the given initial size.
func New(cols, rows uint16, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{cols: cols, rows: rows, logger: logger}
}

// Spawn creates the PTY and execs the configured command inside it.
func (s *Supervisor) Spawn(cfg SpawnConfig) error {
	cmd := exec.Command("/bin/sh", "-c", cfg.Command)
	cmd.Dir = cfg.Dir

	env := os.Environ()
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: s.rows, Cols: s.cols})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.master = master
	s.cmd = cmd
	s.mu.Unlock()

	s.logger.Info("pty spawned", "command", cfg.Command, "cols", s.cols, "rows", s.rows)
	return nil
}

// Read reads child-output bytes from the master half. An EIO, signaling
// the child has exited and the slave has been closed, is reported as a
// plain io.EOF.
func (s *Supervisor) Read(p []byte) (int, error) {
	n, err := s.master.Read(p)
	if err != nil && errors.Is(err, syscall.EIO) {
		return n, io.EOF
	}
	return n, err
}

// Write sends keystroke bytes to the master half. A zero-byte write
// that fails with EIO (the child has already exited) is swallowed
// silently rather than surfaced as an error.
func (s *Supervisor) Write(p []byte) (int, error) {
	n, err := s.master.Write(p)
	if err != nil && n == 0 && errors.Is(err, syscall.EIO) {
		return 0, nil
	}
	return n, err
}

// Resize issues the window-size ioctl on the master and updates the
// cached size.
func (s *Supervisor) Resize(cols, rows uint16) error {
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	master := s.master
	s.mu.Unlock()

	if master == nil {
		return nil
	}
	return pty.Setsize(master, &pty.Winsize{Rows: rows, Cols: cols})
}

// Size returns the cached terminal dimensions.
func (s *Supervisor) Size() (cols, rows uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Kill sends SIGTERM to the child and waits for it to exit, returning
// its exit status.
func (s *Supervisor) Kill() (int, error) {
	s.mu.Lock()
	cmd := s.cmd
	master := s.master
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return 0, nil
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		s.logger.Warn("failed to signal child", "error", err)
	}

	status, err := s.wait(cmd)
	if master != nil {
		master.Close()
	}
	return status, err
}

// Wait blocks until the child exits (normally, via PTY EOF detection
// upstream) and returns its exit status.
func (s *Supervisor) Wait() (int, error) {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	return s.wait(cmd)
}

func (s *Supervisor) wait(cmd *exec.Cmd) (int, error) {
	if cmd == nil {
		return 0, nil
	}
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
