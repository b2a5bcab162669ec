// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLauncher tracks how many children were spawned and how many items
// each one was fed, so segment-rotation and pool-bound invariants can be
// asserted directly instead of only via the aggregated tick count.
type countingLauncher struct {
	mu       sync.Mutex
	spawned  int
	perChild []int
}

func (l *countingLauncher) factory() ProcessLauncherFactory {
	return ProcessLauncherFactoryFunc(func(
		index int, _ string, _ []string, _ string, _ []string, onOutput OutputCallback,
	) (ProcessHandle, error) {
		l.mu.Lock()
		l.spawned++
		l.perChild = append(l.perChild, 0)
		slot := len(l.perChild) - 1
		l.mu.Unlock()

		h := &fakeProcessHandle{pid: index + 1, done: make(chan struct{})}

		stdin := &fakeStdin{}
		stdin.onWrite = func([]byte) {
			l.mu.Lock()
			l.perChild[slot]++
			l.mu.Unlock()
			onOutput(index, h.pid, StreamOut, []byte{'.'}, "")
		}
		stdin.onClose = func() {
			close(h.done)
		}

		h.stdin = stdin

		return h, nil
	})
}

func itemSeq(items ...Item) func(func(Item) bool) {
	return func(yield func(Item) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}

func TestSupervisor_RotatesSegmentsAcrossChildren(t *testing.T) {
	launcher := &countingLauncher{}

	spec := &ExecutorSpec{
		ChildCommandFactory:    ChildCommandFactoryFunc(func(ParallelizationInput) (string, []string) { return "worker", nil }),
		ProcessLauncherFactory: launcher.factory(),
		ProgressSymbol:         '.',
	}

	cfg := Configuration{ShouldSpawnChildren: true, NumberOfProcesses: 2, SegmentSize: 2, NumberOfSegments: 3, TotalItems: 5}
	logger := &recordingLogger{}
	sup := NewSupervisor(spec, cfg, ParallelizationInput{}, logger)

	err := sup.Run(context.Background(), itemSeq("a", "b", "c", "d", "e"))
	require.NoError(t, err)

	assert.Equal(t, 3, launcher.spawned)
	assert.Equal(t, 5, logger.totalAdvance())
	assert.Len(t, logger.commandsFinished, 3)

	for _, n := range launcher.perChild {
		assert.LessOrEqual(t, n, 2)
	}
}

func TestSupervisor_NeverExceedsProcessBound(t *testing.T) {
	var (
		mu      sync.Mutex
		peak    int
		current int
	)

	spec := &ExecutorSpec{
		ChildCommandFactory: ChildCommandFactoryFunc(func(ParallelizationInput) (string, []string) { return "worker", nil }),
		ProgressSymbol:      '.',
	}

	spec.ProcessLauncherFactory = ProcessLauncherFactoryFunc(func(
		index int, _ string, _ []string, _ string, _ []string, onOutput OutputCallback,
	) (ProcessHandle, error) {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()

		h := &fakeProcessHandle{pid: index + 1, done: make(chan struct{})}

		stdin := &fakeStdin{}
		stdin.onWrite = func([]byte) {
			onOutput(index, h.pid, StreamOut, []byte{'.'}, "")
		}
		stdin.onClose = func() {
			mu.Lock()
			current--
			mu.Unlock()
			close(h.done)
		}

		h.stdin = stdin

		return h, nil
	})

	cfg := Configuration{ShouldSpawnChildren: true, NumberOfProcesses: 2, SegmentSize: 1, NumberOfSegments: 6, TotalItems: 6}
	logger := &recordingLogger{}
	sup := NewSupervisor(spec, cfg, ParallelizationInput{}, logger)

	err := sup.Run(context.Background(), itemSeq("a", "b", "c", "d", "e", "f"))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, 2)
	assert.Equal(t, 6, logger.totalAdvance())
}

func TestSupervisor_ProcessTickCalledDuringWait(t *testing.T) {
	var ticks int

	var mu sync.Mutex

	spec := &ExecutorSpec{
		ChildCommandFactory: ChildCommandFactoryFunc(func(ParallelizationInput) (string, []string) { return "worker", nil }),
		ProgressSymbol:      '.',
		ProcessTick: func() {
			mu.Lock()
			ticks++
			mu.Unlock()
		},
	}

	spec.ProcessLauncherFactory = ProcessLauncherFactoryFunc(func(
		index int, _ string, _ []string, _ string, _ []string, onOutput OutputCallback,
	) (ProcessHandle, error) {
		h := &fakeProcessHandle{pid: index + 1, done: make(chan struct{})}

		stdin := &fakeStdin{}
		stdin.onWrite = func([]byte) {
			onOutput(index, h.pid, StreamOut, []byte{'.'}, "")
		}
		stdin.onClose = func() {
			// Hold the child open briefly so the pool-bound wait loop
			// spins at least once while a second item wants a slot.
			go func() {
				time.Sleep(5 * time.Millisecond)
				close(h.done)
			}()
		}

		h.stdin = stdin

		return h, nil
	})

	cfg := Configuration{ShouldSpawnChildren: true, NumberOfProcesses: 1, SegmentSize: 1, NumberOfSegments: 2, TotalItems: 2}
	logger := &recordingLogger{}
	sup := NewSupervisor(spec, cfg, ParallelizationInput{}, logger)

	err := sup.Run(context.Background(), itemSeq("a", "b"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, ticks)
}

func TestSupervisor_ContextCancellationStopsFeeding(t *testing.T) {
	spec := &ExecutorSpec{
		ChildCommandFactory: ChildCommandFactoryFunc(func(ParallelizationInput) (string, []string) { return "worker", nil }),
		ProgressSymbol:      '.',
	}

	spec.ProcessLauncherFactory = ProcessLauncherFactoryFunc(func(
		index int, _ string, _ []string, _ string, _ []string, onOutput OutputCallback,
	) (ProcessHandle, error) {
		h := &fakeProcessHandle{pid: index + 1, done: make(chan struct{})}

		stdin := &fakeStdin{}
		stdin.onWrite = func([]byte) {
			onOutput(index, h.pid, StreamOut, []byte{'.'}, "")
		}
		stdin.onClose = func() {
			close(h.done)
		}

		h.stdin = stdin

		return h, nil
	})

	cfg := Configuration{ShouldSpawnChildren: true, NumberOfProcesses: 1, SegmentSize: 1, NumberOfSegments: 1, TotalItems: 1}
	logger := &recordingLogger{}
	sup := NewSupervisor(spec, cfg, ParallelizationInput{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sup.Run(ctx, itemSeq("a"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSupervisor_SummaryAggregatesCrashesAndUnexpectedOutput(t *testing.T) {
	spec := &ExecutorSpec{
		ChildCommandFactory: ChildCommandFactoryFunc(func(ParallelizationInput) (string, []string) { return "worker", nil }),
		ProgressSymbol:      '.',
	}

	spec.ProcessLauncherFactory = ProcessLauncherFactoryFunc(func(
		index int, _ string, _ []string, _ string, _ []string, onOutput OutputCallback,
	) (ProcessHandle, error) {
		h := &fakeProcessHandle{pid: index + 1, done: make(chan struct{}), exitCode: 1}

		stdin := &fakeStdin{}
		stdin.onWrite = func([]byte) {
			onOutput(index, h.pid, StreamErr, []byte("stack trace\n"), "stack trace")
		}
		stdin.onClose = func() {
			close(h.done)
		}

		h.stdin = stdin

		return h, nil
	})

	cfg := Configuration{ShouldSpawnChildren: true, NumberOfProcesses: 1, SegmentSize: 1, NumberOfSegments: 1, TotalItems: 1}
	logger := &recordingLogger{}
	sup := NewSupervisor(spec, cfg, ParallelizationInput{}, logger)

	err := sup.Run(context.Background(), itemSeq("a"))
	require.NoError(t, err)

	summary := sup.Summary(cfg.TotalItems)
	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, 1, summary.UnexpectedOutputCount)
	assert.Equal(t, 1, summary.ChildrenCrashed)
	require.Error(t, summary.Warnings)
	assert.Contains(t, summary.Warnings.Error(), "unexpected stderr output")
	assert.Contains(t, summary.Warnings.Error(), "exited with code 1")

	require.Len(t, logger.childActivity, 1)
	assert.Equal(t, "stack trace", logger.childActivity[0].lastLine)
}
