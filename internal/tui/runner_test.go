// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matt-FFFFFF/prunner/internal/progress"
)

func TestReporter_ReportAfterCloseIsANoop(t *testing.T) {
	r := NewReporter(nil)
	r.Close()

	assert.NotPanics(t, func() {
		r.Report(progress.ProgressEvent{Type: progress.EventStarted})
	})
}

func TestReporter_CloseIsIdempotent(t *testing.T) {
	r := NewReporter(nil)

	assert.NotPanics(t, func() {
		r.Close()
		r.Close()
	})
}

func TestNewRunner_WiresReporterIntoModel(t *testing.T) {
	runner := NewRunner(t.Context(), 5)

	assert.NotNil(t, runner.Reporter())
	assert.Same(t, runner.model.reporter, runner.Reporter())
}
