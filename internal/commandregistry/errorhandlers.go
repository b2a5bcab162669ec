// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package commandregistry

import (
	"encoding/json"

	"github.com/matt-FFFFFF/prunner/internal/parallel"
)

// tolerantErrorHandlerConfig configures the "tolerant" error handler: every
// failed item contributes a fixed amount to the worker's exit code, but
// processing of subsequent items always continues.
type tolerantErrorHandlerConfig struct {
	// ExitCodeContribution is added to the running total for each failed item. Defaults to 1.
	ExitCodeContribution int `json:"exitCodeContribution"`
}

func newTolerantErrorHandler(raw json.RawMessage) (parallel.ErrorHandler, error) {
	cfg := tolerantErrorHandlerConfig{ExitCodeContribution: 1}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	}

	contribution := cfg.ExitCodeContribution
	if contribution < 0 {
		contribution = 0
	}

	return parallel.ErrorHandlerFunc(func(item parallel.Item, failure error, logger parallel.Logger) int {
		return contribution
	}), nil
}

// newFailFastErrorHandler contributes the maximum exit code for any
// failure, so a single failed item is guaranteed to make the worker's exit
// code non-zero regardless of how many other items succeed.
func newFailFastErrorHandler(json.RawMessage) (parallel.ErrorHandler, error) {
	return parallel.ErrorHandlerFunc(func(item parallel.Item, failure error, logger parallel.Logger) int {
		return 255
	}), nil
}

// newIgnoreErrorHandler always contributes zero: failures are recorded (the
// action already returned an error, which the worker loop tolerates) but
// never affect the exit code.
func newIgnoreErrorHandler(json.RawMessage) (parallel.ErrorHandler, error) {
	return parallel.ErrorHandlerFunc(func(item parallel.Item, failure error, logger parallel.Logger) int {
		return 0
	}), nil
}
