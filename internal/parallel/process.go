// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/matt-FFFFFF/prunner/internal/teereader"
)

// OutputCallback is invoked whenever bytes arrive on a child's stdout or
// stderr. index identifies the child within the supervisor's pool; pid is
// zero if the process failed to start. lastLine is the most recently
// completed line seen on that stream so far, or "" if none has completed.
type OutputCallback func(index int, pid int, kind StreamKind, chunk []byte, lastLine string)

// ProcessHandle is a single spawned child process as the supervisor sees it:
// a writable stdin sink and a way to learn whether it is still running.
type ProcessHandle interface {
	// Stdin returns the child's standard input. The supervisor writes one
	// newline-terminated item at a time and closes it once the child's
	// segment is exhausted.
	Stdin() io.WriteCloser
	// Pid returns the OS process id, or 0 if the process could not be started.
	Pid() int
	// Running reports whether the process has not yet terminated. It must
	// be safe to call repeatedly from the supervisor's poll loop.
	Running() bool
	// Wait blocks until the process terminates and returns its exit code.
	// It is safe to call after Running() has already returned false.
	Wait() (exitCode int, err error)
}

// ProcessLauncherFactory creates ProcessHandles for the supervisor. The
// supervisor only sees this interface; DefaultProcessLauncherFactory, in this
// file, is the os/exec-backed production implementation, and tests
// substitute a fake.
type ProcessLauncherFactory interface {
	// Create starts a child process running name with args, in cwd, with
	// the given environment. onOutput is called from an internal goroutine
	// per stream for every chunk of output read.
	Create(index int, name string, args []string, cwd string, env []string, onOutput OutputCallback) (ProcessHandle, error)
}

// ProcessLauncherFactoryFunc adapts a plain function to ProcessLauncherFactory.
type ProcessLauncherFactoryFunc func(
	index int, name string, args []string, cwd string, env []string, onOutput OutputCallback,
) (ProcessHandle, error)

// Create implements ProcessLauncherFactory.
func (f ProcessLauncherFactoryFunc) Create(
	index int, name string, args []string, cwd string, env []string, onOutput OutputCallback,
) (ProcessHandle, error) {
	return f(index, name, args, cwd, env, onOutput)
}

// osProcessHandle is the default ProcessHandle, backed by os/exec.Cmd with
// streamed stdin and callback-routed stdout/stderr, grounded in the same
// pipe-and-watchdog shape used elsewhere in this codebase for direct
// process control.
type osProcessHandle struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	waitErr  error
	exitCode int
	mu       sync.Mutex
	done     chan struct{}
	wg       sync.WaitGroup
}

// DefaultProcessLauncherFactory spawns real OS processes via os/exec.
var DefaultProcessLauncherFactory ProcessLauncherFactory = ProcessLauncherFactoryFunc(launchOSProcess)

func launchOSProcess(
	index int, name string, args []string, cwd string, env []string, onOutput OutputCallback,
) (ProcessHandle, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = cwd
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Join(ErrCouldNotCreatePipe, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Join(ErrCouldNotCreatePipe, err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Join(ErrCouldNotCreatePipe, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	h := &osProcessHandle{cmd: cmd, stdin: stdin, done: make(chan struct{})}

	pid := cmd.Process.Pid

	h.wg.Add(2)

	go h.pump(teereader.NewLastLineTeeReader(stdout), index, pid, StreamOut, onOutput)
	go h.pump(teereader.NewLastLineTeeReader(stderr), index, pid, StreamErr, onOutput)

	go func() {
		h.wg.Wait()

		err := cmd.Wait()

		exitCode := 0

		var exitErr *exec.ExitError
		if err != nil {
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			} else {
				exitCode = -1
			}
		}

		h.mu.Lock()
		h.waitErr = err
		h.exitCode = exitCode
		h.mu.Unlock()
		close(h.done)
	}()

	return h, nil
}

func (h *osProcessHandle) pump(r *teereader.LastLineTeeReader, index, pid int, kind StreamKind, onOutput OutputCallback) {
	defer h.wg.Done()

	buf := make([]byte, 4096)

	for {
		n, err := r.Read(buf)
		if n > 0 && onOutput != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onOutput(index, pid, kind, chunk, r.LastLine())
		}

		if err != nil {
			return
		}
	}
}

func (h *osProcessHandle) Stdin() io.WriteCloser {
	return h.stdin
}

func (h *osProcessHandle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}

	return h.cmd.Process.Pid
}

func (h *osProcessHandle) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *osProcessHandle) Wait() (int, error) {
	<-h.done

	h.mu.Lock()
	err := h.waitErr
	exitCode := h.exitCode
	h.mu.Unlock()

	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCode, nil
	}

	return exitCode, fmt.Errorf("wait for child process: %w", err)
}
