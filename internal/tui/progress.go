package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianshen/codesensei/internal/tutorial"
)

var (
	progressTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#EEEEEE"}).
				Bold(true)

	progressPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})

	progressDoneStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#007700", Dark: "#00CC00"})

	progressErrStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"})

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EFF"})
)

// stageLabels maps pipeline stages to the text shown in the checklist.
var stageLabels = map[tutorial.Stage]string{
	tutorial.StageFetch:         "Fetching source files",
	tutorial.StageAbstractions:  "Identifying abstractions",
	tutorial.StageRelationships: "Analyzing relationships",
	tutorial.StageOrder:         "Ordering chapters",
	tutorial.StageChapters:      "Writing chapters",
	tutorial.StageAssemble:      "Assembling tutorial",
}

// stageOrder lists the stages in pipeline order. A ProgressMsg for a stage
// marks every earlier stage as completed.
var stageOrder = []tutorial.Stage{
	tutorial.StageFetch,
	tutorial.StageAbstractions,
	tutorial.StageRelationships,
	tutorial.StageOrder,
	tutorial.StageChapters,
	tutorial.StageAssemble,
}

func stageIndex(s tutorial.Stage) int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return 0
}

// ProgressMsg carries a pipeline progress update into the model. Send it
// with (*tea.Program).Send from the pipeline goroutine.
type ProgressMsg struct {
	Stage   tutorial.Stage
	Message string
}

// DoneMsg signals that the pipeline finished. Path is the written tutorial
// on success; Err is the pipeline failure otherwise.
type DoneMsg struct {
	Path string
	Err  error
}

// ProgressModel renders pipeline progress as a stage checklist with a
// spinner on the active stage.
type ProgressModel struct {
	spinner spinner.Model
	project string
	stage   tutorial.Stage
	message string
	done    bool
	path    string
	err     error
	aborted bool
}

// NewProgressModel creates a progress display for the named project.
func NewProgressModel(project string) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return ProgressModel{
		spinner: s,
		project: project,
		stage:   tutorial.StageFetch,
	}
}

// Aborted reports whether the user quit before the pipeline finished.
func (m ProgressModel) Aborted() bool { return m.aborted }

// Err returns the pipeline failure carried by the final DoneMsg, if any.
func (m ProgressModel) Err() error { return m.err }

// Init starts the spinner.
func (m ProgressModel) Init() tea.Cmd { return m.spinner.Tick }

// Update handles progress, completion, key, and spinner tick messages.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case ProgressMsg:
		m.stage = msg.Stage
		m.message = msg.Message
		return m, nil

	case DoneMsg:
		m.done = true
		m.path = msg.Path
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the stage checklist.
func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(progressTitleStyle.Render(fmt.Sprintf("Generating tutorial for %s", m.project)))
	b.WriteString("\n\n")

	current := stageIndex(m.stage)
	for i, stage := range stageOrder {
		label := stageLabels[stage]
		switch {
		case m.done && m.err == nil, i < current:
			b.WriteString("  " + progressDoneStyle.Render("✓") + " " + label)
		case m.done && m.err != nil && i == current:
			b.WriteString("  " + progressErrStyle.Render("✗") + " " + label)
		case i == current:
			b.WriteString("  " + m.spinner.View() + label)
			if m.message != "" {
				b.WriteString(progressPendingStyle.Render(": " + m.message))
			}
		default:
			b.WriteString("    " + progressPendingStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(progressErrStyle.Render(fmt.Sprintf("✗ %v", m.err)))
		} else {
			b.WriteString(progressDoneStyle.Render(fmt.Sprintf("✓ Tutorial written to %s", m.path)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
