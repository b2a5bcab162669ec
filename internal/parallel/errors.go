// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import "errors"

var (
	// ErrInvalidBatchSize is returned when a batch size is less than one.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
	// ErrInvalidSegmentSize is returned when a segment size is less than one.
	ErrInvalidSegmentSize = errors.New("segment size must be at least 1")
	// ErrInvalidProgressSymbol is returned when the progress symbol is not exactly one code point.
	ErrInvalidProgressSymbol = errors.New("progress symbol must be exactly one code point")
	// ErrNilChildStream is returned when a worker is asked to run without a readable stdin source.
	ErrNilChildStream = errors.New("child source stream must not be nil")
	// ErrItemContainsNewline is returned when an item contains a line feed byte.
	ErrItemContainsNewline = errors.New("item must not contain a newline")
	// ErrItemEmpty is returned when an item is the empty string.
	ErrItemEmpty = errors.New("item must not be empty")
	// ErrNilFetchItems is returned when no item source and no single item were supplied.
	ErrNilFetchItems = errors.New("fetchItems must not be nil when no single item is supplied")
	// ErrNilRunSingleCommand is returned when the per-item action is missing.
	ErrNilRunSingleCommand = errors.New("runSingleCommand must not be nil")
	// ErrNilErrorHandler is returned when no error handler is supplied.
	ErrNilErrorHandler = errors.New("errorHandler must not be nil")
	// ErrNilChildCommandFactory is returned when spawning is requested without a way to build the child command line.
	ErrNilChildCommandFactory = errors.New("childCommandFactory must not be nil when spawning children")
	// ErrNilProcessLauncherFactory is returned when spawning is requested without a launcher factory.
	ErrNilProcessLauncherFactory = errors.New("processLauncherFactory must not be nil when spawning children")
	// ErrCouldNotStartProcess is returned when a child process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start child process")
	// ErrCouldNotCreatePipe is returned when a child's stdin pipe could not be created.
	ErrCouldNotCreatePipe = errors.New("could not create child stdin pipe")
)
