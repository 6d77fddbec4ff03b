// Package tui provides an interactive bubbletea viewer for stepping
// through a scheduler run one time-step at a time.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/synapse/internal/sched"
)

// maxLogLines bounds the visible firing log.
const maxLogLines = 200

// autorunInterval paces time-steps in run-to-end mode so the cascade is
// watchable.
const autorunInterval = 80 * time.Millisecond

// stepMsg asks the model to pull one time-step from the run.
type stepMsg struct{}

// stepEntry is one rendered line of the firing log.
type stepEntry struct {
	seq   int
	fired []string
}

// Model drives one trial of a scheduler interactively. Construct with
// New and hand it to tea.NewProgram.
type Model struct {
	network string
	sched   *sched.Scheduler
	run     *sched.Run
	keys    KeyMap

	steps   []stepEntry
	autorun bool
	done    bool
	err     error
	width   int
}

// New builds a TUI model over a freshly started run.
func New(network string, s *sched.Scheduler, term map[sched.TimeScale]sched.Condition) (Model, error) {
	run, err := s.Run(term)
	if err != nil {
		return Model{}, err
	}
	return Model{
		network: network,
		sched:   s,
		run:     run,
		keys:    DefaultKeyMap(),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func stepCmd() tea.Msg { return stepMsg{} }

func autorunTick() tea.Cmd {
	return tea.Tick(autorunInterval, func(time.Time) tea.Msg { return stepMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.run.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Step):
			if m.done {
				return m, nil
			}
			m.autorun = false
			return m, stepCmd
		case key.Matches(msg, m.keys.Run):
			if m.done {
				return m, nil
			}
			m.autorun = true
			return m, stepCmd
		}
		return m, nil

	case stepMsg:
		if m.done {
			return m, nil
		}
		if !m.run.Next() {
			m.done = true
			m.err = m.run.Err()
			return m, nil
		}
		m.steps = append(m.steps, stepEntry{
			seq:   len(m.steps),
			fired: m.run.Fired().Sorted(),
		})
		if len(m.steps) > maxLogLines {
			m.steps = m.steps[len(m.steps)-maxLogLines:]
		}
		if m.autorun {
			return m, autorunTick()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.statusBar())
	sb.WriteString("\n\n")
	sb.WriteString(m.queueView())
	sb.WriteString("\n")
	sb.WriteString(m.logView())
	sb.WriteString("\n")

	switch {
	case m.err != nil:
		sb.WriteString(styleErr.Render(fmt.Sprintf("✗ %v", m.err)))
		sb.WriteString("\n")
	case m.done:
		sb.WriteString(styleDone.Render(fmt.Sprintf("✓ trial complete (%d time-steps)", len(m.steps))))
		sb.WriteString("\n")
	}

	sb.WriteString(styleHelp.Render("space step · enter run to end · q quit"))
	return sb.String()
}

// statusBar renders the network name and live clock counters.
func (m Model) statusBar() string {
	clock := m.sched.Clock()
	counters := fmt.Sprintf("trial %d · pass %d · step %d",
		clock.Time(sched.ScaleRun, sched.ScaleTrial),
		clock.Time(sched.ScaleTrial, sched.ScalePass),
		clock.Time(sched.ScaleTrial, sched.ScaleTimeStep))

	bar := lipgloss.JoinHorizontal(lipgloss.Top,
		styleStatusLabel.Render("synapse "),
		m.network,
		"  ",
		counters)
	return styleStatusBar.Render(bar)
}

// queueView renders the consideration queue, one line per layer.
func (m Model) queueView() string {
	var sb strings.Builder
	for i, layer := range m.sched.ConsiderationQueue() {
		sb.WriteString(styleLayerIndex.Render(fmt.Sprintf("layer %d  ", i)))
		for j, id := range layer {
			if j > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(styleMechanism.Render(id))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// logView renders the firing log, newest last.
func (m Model) logView() string {
	if len(m.steps) == 0 {
		return styleStall.Render("  (press space to step)") + "\n"
	}
	var sb strings.Builder
	for _, step := range m.steps {
		sb.WriteString(styleStepSeq.Render(fmt.Sprintf("%4d ", step.seq)))
		if len(step.fired) == 0 {
			sb.WriteString(styleStall.Render("—"))
		} else {
			sb.WriteString(styleMechanism.Render(strings.Join(step.fired, "  ")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
