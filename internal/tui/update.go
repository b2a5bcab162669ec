// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	execlog "github.com/matt-FFFFFF/prunner/internal/progress"
)

// ProgressEventMsg wraps a progress event for delivery through the tea runtime.
type ProgressEventMsg struct {
	Event execlog.ProgressEvent
}

// RunCompletedMsg indicates the underlying run has finished.
type RunCompletedMsg struct {
	ExitCode int
	Err      error
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.mutex.Unlock()

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)

	case RunCompletedMsg:
		m.mutex.Lock()
		m.done = true

		if msg.Err != nil || msg.ExitCode != 0 {
			m.failed = true
		}

		m.mutex.Unlock()
	}

	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	return m.String()
}
