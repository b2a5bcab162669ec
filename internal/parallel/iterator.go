// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
)

// ItemProducerFunc lazily produces the full set of items to distribute.
// It is invoked exactly once, at iterator construction, so that TotalItems
// can be reported without re-materializing the source.
type ItemProducerFunc func() ([]Item, error)

// ItemIterator is a restartable, single-pass-per-caller sequence of batches
// built from an in-memory list, a lazy producer, or a newline-delimited
// byte stream. It always knows its TotalItems up front.
type ItemIterator struct {
	batches    [][]Item
	totalItems int
}

// TotalItems returns the number of items the iterator was built from.
func (it *ItemIterator) TotalItems() int {
	return it.totalItems
}

// Batches returns a lazy sequence of ordered batches.
func (it *ItemIterator) Batches() iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for _, b := range it.batches {
			if !yield(Batch(b)) {
				return
			}
		}
	}
}

// Items returns a lazy flat sequence of items, in batch order.
func (it *ItemIterator) Items() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, b := range it.batches {
			for _, item := range b {
				if !yield(item) {
					return
				}
			}
		}
	}
}

// validateItems checks every item's invariants before it is handed to a batch.
func validateItems(items []Item) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// NewItemIteratorFromSlice yields one batch of one item; TotalItems is 1.
// It is the single-item shortcut used when ParallelizationInput carries a
// concrete item rather than an item source.
func NewItemIteratorFromSlice(item Item) (*ItemIterator, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	return &ItemIterator{
		batches:    [][]Item{{item}},
		totalItems: 1,
	}, nil
}

// NewItemIteratorFromProducer invokes producer once to obtain the full item
// set, then partitions it into batches of batchSize.
func NewItemIteratorFromProducer(producer ItemProducerFunc, batchSize int) (*ItemIterator, error) {
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}

	if producer == nil {
		return nil, ErrNilFetchItems
	}

	items, err := producer()
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	if err := validateItems(items); err != nil {
		return nil, err
	}

	return &ItemIterator{
		batches:    chunk(items, batchSize),
		totalItems: len(items),
	}, nil
}

// NewItemIteratorFromStream reads a newline-delimited byte stream to EOF.
// Each line, with its terminator stripped, becomes an item. The final
// record need not be newline-terminated. Empty input yields zero batches.
func NewItemIteratorFromStream(r io.Reader, batchSize int) (*ItemIterator, error) {
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}

	if r == nil {
		return nil, ErrNilChildStream
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var items []Item

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		items = append(items, Item(line))
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read item stream: %w", err)
	}

	return &ItemIterator{
		batches:    chunk(items, batchSize),
		totalItems: len(items),
	}, nil
}
