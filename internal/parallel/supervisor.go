// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// reapPollInterval is the only time-based constant in the design. It is not
// a correctness parameter: implementations may replace it with an
// event-driven wait over child status and pipes without changing observable
// behaviour.
const reapPollInterval = time.Millisecond

// runningChild is a single child the supervisor is feeding, tracked from
// spawn until it is reaped.
type runningChild struct {
	index  int
	handle ProcessHandle
	sink   io.WriteCloser
	// itemsWritten is how many items have been written to sink since it was opened.
	itemsWritten int
}

// Supervisor is a bounded pool of child processes fed by streaming items to
// each child's stdin, with eager reaping so new children can start as soon
// as a pool slot frees up.
type Supervisor struct {
	spec    *ExecutorSpec
	cfg     Configuration
	in      ParallelizationInput
	logger  Logger
	nextIdx int

	// mu guards the fields below, which are written from the per-child
	// output-callback goroutines spawned by the ProcessLauncherFactory as
	// well as from reap on the main Run goroutine.
	mu              sync.Mutex
	ticksObserved   int
	unexpectedCount int
	childrenCrashed int
	warnings        *multierror.Error
}

// NewSupervisor builds a Supervisor for one planned Configuration.
func NewSupervisor(spec *ExecutorSpec, cfg Configuration, in ParallelizationInput, logger Logger) *Supervisor {
	return &Supervisor{spec: spec, cfg: cfg, in: in, logger: logger}
}

// Run feeds items to a bounded pool of children until items is exhausted
// and every spawned child has terminated. It never spawns more than
// cfg.NumberOfProcesses concurrent children, and no child ever receives
// more than cfg.SegmentSize items. If ctx is cancelled it stops feeding,
// closes the open stdin sink, waits for every running child to be reaped
// and returns ctx's error.
func (s *Supervisor) Run(ctx context.Context, items iter.Seq[Item]) error {
	running := make([]*runningChild, 0, s.cfg.NumberOfProcesses)

	var (
		current *runningChild
		runErr  error
	)

feed:
	for item := range items {
		if ctx.Err() != nil {
			runErr = ctx.Err()

			break
		}

		if current != nil && current.itemsWritten == s.cfg.SegmentSize {
			_ = current.sink.Close()
			current = nil
		}

		for current == nil {
			running = s.reap(running)

			if len(running) < s.cfg.NumberOfProcesses {
				child, err := s.spawn(ctx)
				if err != nil {
					return err
				}

				running = append(running, child)
				current = child

				break
			}

			s.tick()

			select {
			case <-ctx.Done():
				runErr = ctx.Err()

				break feed
			case <-time.After(reapPollInterval):
			}
		}

		if _, err := fmt.Fprintf(current.sink, "%s\n", string(item)); err != nil {
			return fmt.Errorf("write item to child stdin: %w", err)
		}

		current.itemsWritten++
	}

	if current != nil {
		_ = current.sink.Close()
	}

	for len(running) > 0 {
		running = s.reap(running)

		if len(running) == 0 {
			break
		}

		s.tick()
		time.Sleep(reapPollInterval)
	}

	return runErr
}

// reap removes every terminated child from running, logging its completion,
// and returns the surviving slice.
func (s *Supervisor) reap(running []*runningChild) []*runningChild {
	survivors := running[:0]

	for _, c := range running {
		if c.handle.Running() {
			survivors = append(survivors, c)
			continue
		}

		exitCode, _ := c.handle.Wait()
		s.logger.LogCommandFinished(c.index, c.handle.Pid(), exitCode)

		if exitCode != 0 {
			s.recordChildCrash(c.index, c.handle.Pid(), exitCode)
		}
	}

	return survivors
}

// recordTicks folds delta progress-symbol ticks into the run summary.
func (s *Supervisor) recordTicks(delta int) {
	s.mu.Lock()
	s.ticksObserved += delta
	s.mu.Unlock()
}

// recordUnexpectedOutput folds one unexpected-output event into the run
// summary and its warnings.
func (s *Supervisor) recordUnexpectedOutput(index, pid int, kind StreamKind, chunk []byte) {
	s.mu.Lock()
	s.unexpectedCount++
	s.warnings = multierror.Append(s.warnings,
		fmt.Errorf("child %d (pid %d): unexpected %s output: %q", index, pid, kind, chunk))
	s.mu.Unlock()
}

// recordChildCrash folds one non-zero child exit into the run summary and
// its warnings. A crash is never fatal to the run: the pool simply moves on.
func (s *Supervisor) recordChildCrash(index, pid, exitCode int) {
	s.mu.Lock()
	s.childrenCrashed++
	s.warnings = multierror.Append(s.warnings,
		fmt.Errorf("child %d (pid %d): exited with code %d", index, pid, exitCode))
	s.mu.Unlock()
}

// Summary returns the run's accumulated RunSummary, with totalItems filled
// in from the caller's planned Configuration.
func (s *Supervisor) Summary(totalItems int) RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return RunSummary{
		TotalItems:            totalItems,
		TicksObserved:         s.ticksObserved,
		UnexpectedOutputCount: s.unexpectedCount,
		ChildrenCrashed:       s.childrenCrashed,
		Warnings:              s.warnings.ErrorOrNil(),
	}
}

// tick invokes the caller-supplied processTick hook, if any. It is called
// once per idle wait of the poll loop: when the pool is full, and while
// draining the last running children.
func (s *Supervisor) tick() {
	if s.spec.ProcessTick != nil {
		s.spec.ProcessTick()
	}
}

// spawn launches a new child worker wired to a fresh stdin sink and an
// output callback that classifies and forwards its stdout/stderr.
func (s *Supervisor) spawn(_ context.Context) (*runningChild, error) {
	name, args := s.spec.ChildCommandFactory.CreateChildCommand(s.in)

	env := mergeEnv(os.Environ(), s.spec.ExtraEnvironmentVariables)

	index := s.nextIdx
	s.nextIdx++

	onOutput := func(idx, pid int, kind StreamKind, chunk []byte, lastLine string) {
		if kind == StreamErr {
			s.logger.LogUnexpectedChildProcessOutput(idx, pid, kind, chunk, s.spec.ProgressSymbol)
			s.recordUnexpectedOutput(idx, pid, kind, chunk)

			if lastLine != "" {
				s.logger.LogChildActivity(idx, pid, lastLine)
			}

			return
		}

		ticks, unexpected := Demultiplex(chunk, s.spec.ProgressSymbol)
		if ticks > 0 {
			s.logger.LogAdvance(ticks)
			s.recordTicks(ticks)
		}

		if unexpected != nil {
			s.logger.LogUnexpectedChildProcessOutput(idx, pid, kind, chunk, s.spec.ProgressSymbol)
			s.recordUnexpectedOutput(idx, pid, kind, chunk)
		}

		if lastLine != "" {
			s.logger.LogChildActivity(idx, pid, lastLine)
		}
	}

	handle, err := s.spec.ProcessLauncherFactory.Create(index, name, args, s.spec.WorkingDirectory, env, onOutput)
	if err != nil {
		return nil, fmt.Errorf("spawn child %d: %w", index, err)
	}

	s.logger.LogCommandStarted(index, handle.Pid(), commandLine(name, args))

	return &runningChild{index: index, handle: handle, sink: handle.Stdin()}, nil
}

// mergeEnv overlays extra on top of base ("parent environment"), matching
// §5's discipline: a nil overlay means "inherit only".
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}

	merged := make([]string, len(base), len(base)+len(extra))
	copy(merged, base)

	for k, v := range extra {
		merged = append(merged, fmt.Sprintf("%s=%s", k, v))
	}

	return merged
}

func commandLine(name string, args []string) string {
	line := name

	for _, a := range args {
		line += " " + a
	}

	return line
}
