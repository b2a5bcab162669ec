// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress adapts the parallel engine's Logger collaborator
// interface onto this codebase's ambient logging and progress-event stack:
// a context-scoped slog.Logger (internal/ctxlog) for structured lines, and
// a channel-based ProgressReporter (internal/progress) for anything that
// wants to subscribe to live coordinator/worker lifecycle events, such as
// the TUI.
package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/prunner/internal/ctxlog"
	"github.com/matt-FFFFFF/prunner/internal/parallel"
	"github.com/matt-FFFFFF/prunner/internal/progress"
)

// SlogLogger implements parallel.Logger on top of a context-scoped slog
// logger and, optionally, a progress.ProgressReporter for live subscribers.
// A single SlogLogger instance is created per Executor.Execute invocation;
// runID distinguishes concurrent runs sharing one log stream.
type SlogLogger struct {
	ctx      context.Context
	label    string
	runID    string
	reporter progress.ProgressReporter
}

// New creates a SlogLogger scoped to ctx's logger. reporter may be nil, in
// which case no ProgressEvent is emitted and only slog lines are produced.
func New(ctx context.Context, label string, reporter progress.ProgressReporter) *SlogLogger {
	return &SlogLogger{
		ctx:      ctx,
		label:    label,
		runID:    uuid.NewString(),
		reporter: reporter,
	}
}

// WithoutProgress returns a parallel.Logger that writes only structured log
// lines, with no ProgressEvent emission, sharing this logger's context and
// run ID.
func (l *SlogLogger) WithoutProgress() parallel.Logger {
	return &ctxlogLogger{ctx: l.ctx, runID: l.runID}
}

// LogConfiguration implements parallel.Logger.
func (l *SlogLogger) LogConfiguration(cfg parallel.Configuration) {
	ctxlog.Logger(l.ctx).Info("planned configuration",
		"runID", l.runID,
		"label", l.label,
		"shouldSpawnChildren", cfg.ShouldSpawnChildren,
		"numberOfProcesses", cfg.NumberOfProcesses,
		"segmentSize", cfg.SegmentSize,
		"numberOfSegments", cfg.NumberOfSegments,
		"totalItems", cfg.TotalItems,
	)
	l.report(progress.EventProgress, "planned configuration", progress.EventData{
		ProgressMessage: fmt.Sprintf(
			"%d processes, %d segments of up to %d items",
			cfg.NumberOfProcesses, cfg.NumberOfSegments, cfg.SegmentSize,
		),
	})
}

// LogStart implements parallel.Logger.
func (l *SlogLogger) LogStart(totalItems int) {
	ctxlog.Logger(l.ctx).Info("starting", "runID", l.runID, "totalItems", totalItems)
	l.report(progress.EventStarted, "starting", progress.EventData{})
}

// LogAdvance implements parallel.Logger.
func (l *SlogLogger) LogAdvance(delta int) {
	l.report(progress.EventProgress, "advance", progress.EventData{ProgressMessage: fmt.Sprintf("+%d", delta)})
}

// LogFinish implements parallel.Logger. It prints a one-line result summary
// alongside the structured log entry: how much of the run's planned work was
// observed, and how many children misbehaved along the way.
func (l *SlogLogger) LogFinish(itemName string, summary parallel.RunSummary) {
	ctxlog.Logger(l.ctx).Info("finished",
		"runID", l.runID,
		"itemName", itemName,
		"totalItems", summary.TotalItems,
		"ticksObserved", summary.TicksObserved,
		"unexpectedOutputCount", summary.UnexpectedOutputCount,
		"childrenCrashed", summary.ChildrenCrashed,
		"warnings", summary.Warnings,
	)

	msg := fmt.Sprintf(
		"%d/%d ticks, %d unexpected output event(s), %d child(ren) crashed",
		summary.TicksObserved, summary.TotalItems, summary.UnexpectedOutputCount, summary.ChildrenCrashed,
	)

	l.report(progress.EventCompleted, "finished", progress.EventData{ProgressMessage: msg})
}

// LogCommandStarted implements parallel.Logger, reporting under the child's
// own row so the TUI can show one line per running child instead of
// collapsing every child onto the coordinator's row.
func (l *SlogLogger) LogCommandStarted(index, pid int, cmd string) {
	ctxlog.Logger(l.ctx).Debug("child command started",
		"runID", l.runID, "index", index, "pid", pid, "command", cmd)
	l.reportChild(index, pid, progress.EventStarted, "child command started", progress.EventData{})
}

// LogCommandFinished implements parallel.Logger.
func (l *SlogLogger) LogCommandFinished(index, pid, exitCode int) {
	ctxlog.Logger(l.ctx).Debug("child command finished",
		"runID", l.runID, "index", index, "pid", pid, "exitCode", exitCode)

	if exitCode != 0 {
		l.reportChild(index, pid, progress.EventFailed, "child command failed", progress.EventData{ExitCode: exitCode})
		return
	}

	l.reportChild(index, pid, progress.EventCompleted, "child command finished", progress.EventData{ExitCode: exitCode})
}

// LogChildActivity implements parallel.Logger, surfacing the last complete
// line a still-running child has printed.
func (l *SlogLogger) LogChildActivity(index, pid int, lastLine string) {
	if lastLine == "" {
		return
	}

	l.reportChild(index, pid, progress.EventOutput, "child activity", progress.EventData{OutputLine: lastLine})
}

// LogUnexpectedChildProcessOutput implements parallel.Logger.
func (l *SlogLogger) LogUnexpectedChildProcessOutput(
	index, pid int, kind parallel.StreamKind, chunk []byte, progressSymbol rune,
) {
	ctxlog.Logger(l.ctx).Warn("unexpected child output",
		"runID", l.runID,
		"index", index,
		"pid", pid,
		"stream", kind.String(),
		"progressSymbol", string(progressSymbol),
		"chunk", string(chunk),
	)
	l.reportChild(index, pid, progress.EventOutput, "unexpected child output", progress.EventData{
		OutputLine: string(chunk),
		IsStderr:   kind == parallel.StreamErr,
	})
}

func (l *SlogLogger) report(t progress.EventType, msg string, data progress.EventData) {
	if l.reporter == nil {
		return
	}

	l.reporter.Report(progress.ProgressEvent{
		CommandPath: []string{l.label},
		Type:        t,
		Message:     msg,
		Data:        data,
	})
}

// reportChild is like report, but labels the event with the child's own
// index and pid instead of the coordinator's label, so the TUI renders it
// as a distinct row.
func (l *SlogLogger) reportChild(index, pid int, t progress.EventType, msg string, data progress.EventData) {
	if l.reporter == nil {
		return
	}

	l.reporter.Report(progress.ProgressEvent{
		CommandPath: []string{childLabel(index, pid)},
		Type:        t,
		Message:     msg,
		Data:        data,
	})
}

// childLabel names a child's TUI row from its pool index and OS pid.
func childLabel(index, pid int) string {
	return fmt.Sprintf("child-%d (pid %d)", index, pid)
}

// ctxlogLogger adapts ctxlog to parallel.Logger for use inside ErrorHandler
// implementations that only need structured logging, not progress events.
type ctxlogLogger struct {
	ctx   context.Context
	runID string
}

func (l *ctxlogLogger) LogConfiguration(parallel.Configuration)     {}
func (l *ctxlogLogger) LogStart(int)                                {}
func (l *ctxlogLogger) LogAdvance(int)                              {}
func (l *ctxlogLogger) LogFinish(string, parallel.RunSummary)       {}
func (l *ctxlogLogger) LogCommandStarted(int, int, string)          {}
func (l *ctxlogLogger) LogCommandFinished(int, int, int)            {}
func (l *ctxlogLogger) LogChildActivity(int, int, string)           {}

func (l *ctxlogLogger) LogUnexpectedChildProcessOutput(index, pid int, kind parallel.StreamKind, chunk []byte, sym rune) {
	ctxlog.Logger(l.ctx).Warn("unexpected output reported via error handler",
		"runID", l.runID, "index", index, "pid", pid, "stream", kind.String())
}
