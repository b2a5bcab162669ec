// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	execlog "github.com/matt-FFFFFF/prunner/internal/progress"
)

// Runner drives a bubbletea program showing a live view of one run,
// fed by a Reporter it hands to the caller's logger.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
	mutex    sync.Mutex
}

// Reporter implements progress.ProgressReporter and forwards every event to
// the tea program driving the live view.
type Reporter struct {
	program *tea.Program
	mutex   sync.RWMutex
	closed  bool
}

// NewReporter creates a Reporter bound to program.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{program: program}
}

// Report implements progress.ProgressReporter.
func (r *Reporter) Report(event execlog.ProgressEvent) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.closed {
		return
	}

	r.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.ProgressReporter.
func (r *Reporter) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.closed = true
}

// NewRunner builds a Runner ready to drive a live view for a run with
// totalItems already known (from the coordinator's planned Configuration).
func NewRunner(ctx context.Context, totalItems int) *Runner {
	model := NewModel(ctx, totalItems)
	program := tea.NewProgram(model)
	reporter := NewReporter(program)

	model.SetReporter(reporter)

	return &Runner{model: model, program: program, reporter: reporter}
}

// Reporter returns the progress.ProgressReporter to hand to the run's Logger.
func (r *Runner) Reporter() execlog.ProgressReporter {
	return r.reporter
}

// Run starts the live view and executes exec concurrently, returning exec's
// result once both the run and the tea program have finished.
func (r *Runner) Run(ctx context.Context, exec func(context.Context) (int, error)) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	type result struct {
		exitCode int
		err      error
	}

	resultCh := make(chan result, 1)

	go func() {
		exitCode, err := exec(ctx)
		resultCh <- result{exitCode: exitCode, err: err}
		r.program.Send(RunCompletedMsg{ExitCode: exitCode, Err: err})
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	res := <-resultCh
	r.reporter.Close()
	<-tuiDone

	return res.exitCode, res.err
}
