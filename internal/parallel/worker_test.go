// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failingHalfHandler() ErrorHandler {
	return ErrorHandlerFunc(func(item Item, failure error, logger Logger) int {
		return 1
	})
}

func TestRunWorkerLoop_AdvancesOncePerItem(t *testing.T) {
	var processed []Item

	spec := &ExecutorSpec{
		RunSingleCommand: func(_ context.Context, item Item) error {
			processed = append(processed, item)
			return nil
		},
		ErrorHandler: failingHalfHandler(),
		BatchSize:    2,
	}

	it, err := NewItemIteratorFromProducer(func() ([]Item, error) {
		return []Item{"a", "b", "c"}, nil
	}, 2)
	require.NoError(t, err)

	logger := &recordingLogger{}

	var advanced int

	exitCode, err := runWorkerLoop(context.Background(), spec, it, nil, nil, logger, func(delta int) {
		advanced += delta
	})
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, 3, advanced)
	assert.Equal(t, []Item{"a", "b", "c"}, processed)
}

func TestRunWorkerLoop_FailedItemsRouteToErrorHandler(t *testing.T) {
	spec := &ExecutorSpec{
		RunSingleCommand: func(_ context.Context, item Item) error {
			if item == "bad" {
				return errBoom
			}

			return nil
		},
		ErrorHandler: failingHalfHandler(),
		BatchSize:    10,
	}

	it, err := NewItemIteratorFromProducer(func() ([]Item, error) {
		return []Item{"good", "bad", "good"}, nil
	}, 10)
	require.NoError(t, err)

	logger := &recordingLogger{}

	exitCode, err := runWorkerLoop(context.Background(), spec, it, nil, nil, logger, func(int) {})
	require.NoError(t, err)
	assert.Equal(t, 1, exitCode)
}

func TestRunWorkerLoop_HooksRunAroundEachBatch(t *testing.T) {
	var order []string

	spec := &ExecutorSpec{
		RunSingleCommand: func(context.Context, Item) error { return nil },
		ErrorHandler:     failingHalfHandler(),
		BatchSize:        2,
		RunBeforeBatch: func(context.Context, io.Reader, io.Writer, Batch) (any, error) {
			order = append(order, "before")
			return "ctx-value", nil
		},
		RunAfterBatch: func(_ context.Context, _ io.Reader, _ io.Writer, _ Batch, batchCtx any) error {
			order = append(order, "after:"+batchCtx.(string))
			return nil
		},
	}

	it, err := NewItemIteratorFromProducer(func() ([]Item, error) {
		return []Item{"a", "b", "c"}, nil
	}, 2)
	require.NoError(t, err)

	_, err = runWorkerLoop(context.Background(), spec, it, nil, nil, &recordingLogger{}, func(int) {})
	require.NoError(t, err)
	assert.Equal(t, []string{"before", "after:ctx-value", "before", "after:ctx-value"}, order)
}

func TestRunWorker_WritesProgressSymbolPerItem(t *testing.T) {
	in := strings.NewReader("a\nb\nc\n")

	spec := &ExecutorSpec{
		RunSingleCommand:  func(context.Context, Item) error { return nil },
		ErrorHandler:      failingHalfHandler(),
		ChildSourceStream: in,
		BatchSize:         1,
		ProgressSymbol:    '.',
	}

	out := &bytes.Buffer{}

	exitCode, err := runWorker(context.Background(), spec, in, out, &recordingLogger{})
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, "...", out.String())
}
