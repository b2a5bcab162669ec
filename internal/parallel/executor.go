// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"context"
	"io"
	"unicode/utf8"
)

// ExecutorSpec is the immutable configuration for one execute() invocation.
// It is built once, by a builder external to this package (typically from
// CLI flags and a job description file); the core only ever consumes it.
type ExecutorSpec struct {
	// FetchItems lazily produces the full item set for coordinator invocations
	// that were not given a single concrete Item.
	FetchItems ItemProducerFunc
	// RunSingleCommand is the per-item action.
	RunSingleCommand RunSingleCommandFunc
	// GetItemName names the unit of work, used in LogFinish.
	GetItemName GetItemNameFunc
	// ErrorHandler decides the exit-code contribution of a failed item.
	ErrorHandler ErrorHandler
	// ChildSourceStream is where a worker process reads its segment from (its own stdin).
	ChildSourceStream io.Reader
	// BatchSize is the default number of items processed between hooks.
	BatchSize int
	// SegmentSize is the default number of items a single child consumes.
	SegmentSize int
	// ProgressSymbol is the single code point a worker emits per processed item.
	ProgressSymbol rune
	// RunBeforeFirstCommand runs once, coordinator-side, before any dispatch.
	RunBeforeFirstCommand BeforeFirstCommandFunc
	// RunAfterLastCommand runs once, coordinator-side, after all work completes.
	RunAfterLastCommand AfterLastCommandFunc
	// RunBeforeBatch runs before each batch's items.
	RunBeforeBatch BeforeBatchFunc
	// RunAfterBatch runs after each batch's items.
	RunAfterBatch AfterBatchFunc
	// ChildCommandFactory builds the child worker's command line.
	ChildCommandFactory ChildCommandFactory
	// WorkingDirectory is the directory children are started in.
	WorkingDirectory string
	// ExtraEnvironmentVariables overlays the parent environment for children.
	// A nil map means "inherit only".
	ExtraEnvironmentVariables map[string]string
	// ProcessLauncherFactory creates child process handles for the supervisor.
	ProcessLauncherFactory ProcessLauncherFactory
	// ProcessTick is invoked once per idle wait of the supervisor's poll
	// loop, so callers can integrate periodic bookkeeping.
	ProcessTick func()
}

// validate checks the invariants of §4.7: sizes, progress symbol, stream handle.
func (s *ExecutorSpec) validate(spawnsChildren bool) error {
	if s.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if s.SegmentSize < 1 {
		return ErrInvalidSegmentSize
	}

	if s.ProgressSymbol == 0 || utf8.RuneLen(s.ProgressSymbol) < 1 {
		return ErrInvalidProgressSymbol
	}

	if s.RunSingleCommand == nil {
		return ErrNilRunSingleCommand
	}

	if s.ErrorHandler == nil {
		return ErrNilErrorHandler
	}

	if s.ChildSourceStream == nil {
		return ErrNilChildStream
	}

	if spawnsChildren {
		if s.ChildCommandFactory == nil {
			return ErrNilChildCommandFactory
		}

		if s.ProcessLauncherFactory == nil {
			return ErrNilProcessLauncherFactory
		}
	}

	return nil
}

// Executor is the façade dispatching between the coordinator and worker
// roles for one ExecutorSpec.
type Executor struct {
	spec *ExecutorSpec
}

// NewExecutor validates spec and returns an Executor ready to run either role.
// Validation is eager: invariant violations fail fast, before any child is
// spawned, including a nil ChildSourceStream — the role isn't known yet at
// construction, so the stream must already be a valid readable byte source.
func NewExecutor(spec *ExecutorSpec) (*Executor, error) {
	if err := spec.validate(false); err != nil {
		return nil, err
	}

	return &Executor{spec: spec}, nil
}

// Execute dispatches to the worker role when in.IsChild is true, otherwise
// runs the coordinator role: plan, spawn or run in-process, and return the
// final exit code in [0, 255].
func (e *Executor) Execute(
	ctx context.Context,
	in ParallelizationInput,
	stdin io.Reader,
	stdout io.Writer,
	logger Logger,
) (int, error) {
	if in.IsChild {
		return runWorker(ctx, e.spec, stdin, stdout, logger)
	}

	return e.executeCoordinator(ctx, in, stdin, stdout, logger)
}

func (e *Executor) executeCoordinator(
	ctx context.Context,
	in ParallelizationInput,
	stdin io.Reader,
	stdout io.Writer,
	logger Logger,
) (int, error) {
	spec := e.spec

	if spec.RunBeforeFirstCommand != nil {
		if err := spec.RunBeforeFirstCommand(ctx, stdin, stdout); err != nil {
			return 0, err
		}
	}

	batchSize := spec.BatchSize
	if in.BatchSize != nil {
		batchSize = *in.BatchSize
	}

	segmentSize := spec.SegmentSize
	if in.SegmentSize != nil {
		segmentSize = *in.SegmentSize
	}

	var (
		it  *ItemIterator
		err error
	)

	switch {
	case in.Item != nil:
		it, err = NewItemIteratorFromSlice(Item(*in.Item))
	default:
		it, err = NewItemIteratorFromProducer(spec.FetchItems, batchSize)
	}

	if err != nil {
		return 0, err
	}

	shouldSpawn := !in.ShouldBeProcessedInMainProcess()
	if shouldSpawn {
		if err := spec.validate(true); err != nil {
			return 0, err
		}
	}

	cfg, err := PlanConfiguration(shouldSpawn, it.TotalItems(), in.NumberOfProcesses, segmentSize, batchSize)
	if err != nil {
		return 0, err
	}

	logger.LogConfiguration(cfg)
	logger.LogStart(cfg.TotalItems)

	exitCode := 0
	summary := RunSummary{TotalItems: cfg.TotalItems}

	if cfg.ShouldSpawnChildren {
		sup := NewSupervisor(spec, cfg, in, logger)
		if err := sup.Run(ctx, it.Items()); err != nil {
			return 0, err
		}

		summary = sup.Summary(cfg.TotalItems)
	} else {
		exitCode, err = runWorkerLoop(ctx, spec, it, stdin, stdout, logger, logger.LogAdvance)
		if err != nil {
			return 0, err
		}

		summary.TicksObserved = cfg.TotalItems
	}

	itemName := ""
	if spec.GetItemName != nil {
		itemName = spec.GetItemName()
	}

	logger.LogFinish(itemName, summary)

	if spec.RunAfterLastCommand != nil {
		if err := spec.RunAfterLastCommand(ctx, stdin, stdout); err != nil {
			return 0, err
		}
	}

	return clamp(exitCode, 0, 255), nil
}
