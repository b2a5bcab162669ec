// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"context"
	"fmt"
	"io"
)

// runWorker is the entry point for the worker role: it materializes the
// item iterator from the injected ChildSourceStream and runs the shared
// worker loop, advancing progress by writing the progress symbol to stdout
// once per attempted item.
func runWorker(
	ctx context.Context,
	spec *ExecutorSpec,
	stdin io.Reader,
	stdout io.Writer,
	logger Logger,
) (int, error) {
	it, err := NewItemIteratorFromStream(spec.ChildSourceStream, spec.BatchSize)
	if err != nil {
		return 0, err
	}

	symbol := make([]byte, progressSymbolByteLen(spec.ProgressSymbol))
	copy(symbol, []byte(string(spec.ProgressSymbol)))

	advance := func(delta int) {
		for range delta {
			_, _ = stdout.Write(symbol) //nolint:errcheck // best-effort; parent tolerates buffered/lossy delivery
		}
	}

	return runWorkerLoop(ctx, spec, it, stdin, stdout, logger, advance)
}

// runWorkerLoop is shared by the worker role and the coordinator's
// in-process (non-spawning) mode. It processes each batch: BeforeBatch,
// then each item wrapped in the error handler, then AfterBatch. advance is
// called once per attempted item — success or handled failure both count.
func runWorkerLoop(
	ctx context.Context,
	spec *ExecutorSpec,
	it *ItemIterator,
	stdin io.Reader,
	stdout io.Writer,
	logger Logger,
	advance func(delta int),
) (int, error) {
	total := 0

	for batch := range it.Batches() {
		var batchCtx any

		if spec.RunBeforeBatch != nil {
			var err error

			batchCtx, err = spec.RunBeforeBatch(ctx, stdin, stdout, batch)
			if err != nil {
				return 0, fmt.Errorf("before batch hook: %w", err)
			}
		}

		for _, item := range batch {
			total += runTolerantSingleItem(ctx, spec, item, logger)
			advance(1)
		}

		if spec.RunAfterBatch != nil {
			if err := spec.RunAfterBatch(ctx, stdin, stdout, batch, batchCtx); err != nil {
				return 0, fmt.Errorf("after batch hook: %w", err)
			}
		}
	}

	return clamp(total, 0, 255), nil
}

// runTolerantSingleItem attempts the per-item action and, on failure,
// delegates to the ErrorHandler for an exit-code contribution. It never
// returns an error to its caller: failures are always handled, never
// propagated out of the worker loop.
func runTolerantSingleItem(ctx context.Context, spec *ExecutorSpec, item Item, logger Logger) int {
	err := spec.RunSingleCommand(ctx, item)
	if err == nil {
		return 0
	}

	contribution := spec.ErrorHandler.HandleError(item, err, logger)
	if contribution < 0 {
		contribution = 0
	}

	return contribution
}
