// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	execlog "github.com/matt-FFFFFF/prunner/internal/progress"
)

// ChildStatus is the display state of one running or finished child.
type ChildStatus int

const (
	ChildRunning ChildStatus = iota
	ChildSucceeded
	ChildFailed
)

// ChildRow is the live display state of a single child worker process.
type ChildRow struct {
	Label      string
	Status     ChildStatus
	LastOutput string
	ExitCode   int
}

// Model is the bubbletea model for a parallel run's live view.
type Model struct {
	ctx      context.Context
	reporter execlog.ProgressReporter
	bar      progress.Model
	styles   *Styles

	mutex     sync.RWMutex
	total     int
	completed int
	children  map[string]*ChildRow
	done      bool
	failed    bool
	width     int
	summary   string
}

// Styles holds the lipgloss styles used to render the model.
type Styles struct {
	Title   lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles builds the default style set.
func NewStyles() *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Output:  lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Italic(true),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1),
	}
}

// NewModel creates a TUI model with totalItems already known.
func NewModel(ctx context.Context, totalItems int) *Model {
	return &Model{
		ctx:      ctx,
		bar:      progress.New(progress.WithDefaultGradient()),
		styles:   NewStyles(),
		total:    totalItems,
		children: make(map[string]*ChildRow),
	}
}

// SetReporter attaches the reporter this model listens on.
func (m *Model) SetReporter(reporter execlog.ProgressReporter) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.reporter = reporter
}

func (m *Model) childRow(label string) *ChildRow {
	row, ok := m.children[label]
	if !ok {
		row = &ChildRow{Label: label}
		m.children[label] = row
	}

	return row
}

// processProgressEvent folds one event into model state.
func (m *Model) processProgressEvent(event execlog.ProgressEvent) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	label := "coordinator"
	if len(event.CommandPath) > 0 {
		label = event.CommandPath[len(event.CommandPath)-1]
	}

	switch event.Type {
	case execlog.EventStarted:
		m.childRow(label).Status = ChildRunning

	case execlog.EventProgress:
		m.completed++

	case execlog.EventOutput:
		row := m.childRow(label)
		row.LastOutput = strings.TrimSpace(event.Data.OutputLine)

		if event.Data.IsStderr {
			row.LastOutput = "[stderr] " + row.LastOutput
		}

	case execlog.EventFailed:
		row := m.childRow(label)
		row.Status = ChildFailed
		row.ExitCode = event.Data.ExitCode
		m.failed = true

	case execlog.EventCompleted:
		if label == "coordinator" {
			m.done = true
			m.summary = event.Data.ProgressMessage
		} else {
			m.childRow(label).Status = ChildSucceeded
		}
	}
}

func (m *Model) sortedChildLabels() []string {
	labels := make([]string, 0, len(m.children))
	for label := range m.children {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	return labels
}

func statusGlyph(styles *Styles, status ChildStatus) string {
	switch status {
	case ChildSucceeded:
		return styles.Success.Render("done")
	case ChildFailed:
		return styles.Failed.Render("failed")
	default:
		return styles.Running.Render("running")
	}
}

func (m *Model) ratio() float64 {
	if m.total <= 0 {
		return 0
	}

	return float64(m.completed) / float64(m.total)
}

func (m *Model) String() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var b strings.Builder

	b.WriteString(m.styles.Title.Render("prunner"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d/%d\n", m.bar.ViewAs(m.ratio()), m.completed, m.total)

	for _, label := range m.sortedChildLabels() {
		row := m.children[label]

		line := fmt.Sprintf("  %-16s %-8s %s", label, statusGlyph(m.styles, row.Status), m.styles.Output.Render(row.LastOutput))
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.done {
		if m.failed {
			b.WriteString(m.styles.Failed.Render("run finished with failures"))
		} else {
			b.WriteString(m.styles.Success.Render("run finished"))
		}

		b.WriteString("\n")

		if m.summary != "" {
			b.WriteString(m.styles.Output.Render(m.summary))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.styles.Help.Render("press q to quit"))

	return b.String()
}

var _ tea.Model = (*Model)(nil)
