// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"io"
	"strings"
	"sync"
)

// LastLineTeeReader wraps an io.Reader and tracks the last complete line
// seen so far, without buffering the full stream. It is safe for
// concurrent use: Read runs on the supervisor's pump goroutine while
// LastLine is polled from wherever a child's row is rendered.
type LastLineTeeReader struct {
	reader         io.Reader
	lastLine       string
	partialBuilder strings.Builder
	mu             sync.RWMutex
}

// NewLastLineTeeReader wraps r, tracking the last complete line read
// through it without holding on to any other output.
func NewLastLineTeeReader(r io.Reader) *LastLineTeeReader {
	return &LastLineTeeReader{reader: r}
}

// Read implements io.Reader, passing bytes through unchanged while
// updating the last-line tracking.
func (lt *LastLineTeeReader) Read(p []byte) (n int, err error) {
	n, err = lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		lt.processNewData(string(p[:n]))
		lt.mu.Unlock()
	}

	return n, err //nolint:wrapcheck
}

// processNewData folds newly read bytes into the partial-line builder and
// promotes any newly completed line to lastLine. Must be called with mu held.
func (lt *LastLineTeeReader) processNewData(data string) {
	lt.partialBuilder.WriteString(data)
	combined := lt.partialBuilder.String()

	lines := strings.Split(combined, "\n")
	if len(lines) == 1 {
		return
	}

	lt.lastLine = lines[len(lines)-2]
	lt.partialBuilder.Reset()

	if data[len(data)-1] != '\n' {
		lt.partialBuilder.WriteString(lines[len(lines)-1])
	}
}

// LastLine returns the last complete line read so far, or the empty string
// if none has completed yet. Safe for concurrent use.
func (lt *LastLineTeeReader) LastLine() string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.lastLine
}
