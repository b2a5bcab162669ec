// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time Terminal User Interface for monitoring a
// parallel run. It displays the overall tick progress against the total item
// count plus one row per running child process (pid, segment index, last
// output line), fed by internal/progress events emitted from
// internal/parallel/progress.SlogLogger.
package tui
