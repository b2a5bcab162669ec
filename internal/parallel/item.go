// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"fmt"
	"strings"
)

// Item is a single opaque unit of work. It must not contain a newline byte,
// since newline is the frame separator on the wire to worker processes.
type Item string

// Validate checks the item invariants: non-empty, no embedded newline.
func (i Item) Validate() error {
	if i == "" {
		return ErrItemEmpty
	}

	if strings.ContainsRune(string(i), '\n') {
		return fmt.Errorf("%w: %q", ErrItemContainsNewline, string(i))
	}

	return nil
}

// Batch is an ordered group of items processed together with surrounding hooks.
// Batches never span segment boundaries.
type Batch []Item

// Segment is an ordered group of items streamed to exactly one child process.
// A segment is the entire workload of one child's lifetime.
type Segment []Item

// chunk splits items into fixed-size groups of at most size, preserving order.
// The final group may be shorter than size.
func chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}

	if len(items) == 0 {
		return nil
	}

	out := make([][]T, 0, (len(items)+size-1)/size)

	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		out = append(out, items[start:end])
	}

	return out
}
