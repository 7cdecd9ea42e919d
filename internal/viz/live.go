package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/entrosim/internal/dynamo"
)

const historyCapacity = 600

// StepMsg carries one accepted step into the program.
type StepMsg dynamo.StepInfo

// DoneMsg reports the end of the integration.
type DoneMsg struct {
	Result *dynamo.Result
	Err    error
}

type tickMsg time.Time

type series struct {
	name  string
	value func(dynamo.StepInfo) float64
}

var allSeries = []series{
	{"T9", func(s dynamo.StepInfo) float64 { return s.T9 }},
	{"entropy", func(s dynamo.StepInfo) float64 { return s.Entropy }},
	{"log10 rho", func(s dynamo.StepInfo) float64 { return math.Log10(s.Rho) }},
	{"x0", func(s dynamo.StepInfo) float64 { return s.State[0] }},
	{"log10 dt", func(s dynamo.StepInfo) float64 { return math.Log10(s.Dt) }},
}

// Model is the live view of one run.
type Model struct {
	label    string
	tEnd     float64
	cancel   context.CancelFunc
	history  []dynamo.StepInfo
	last     dynamo.StepInfo
	steps    int
	done     bool
	err      error
	result   *dynamo.Result
	selected int
	theme    Theme
	st       styles
	frame    int
	showHelp bool
}

// NewModel creates the view for zone label integrated up to tEnd. cancel
// stops the integration when the user quits; it may be nil.
func NewModel(label string, tEnd float64, cancel context.CancelFunc) Model {
	theme := Themes[0]
	return Model{
		label:   label,
		tEnd:    tEnd,
		cancel:  cancel,
		history: make([]dynamo.StepInfo, 0, historyCapacity),
		theme:   theme,
		st:      newStyles(theme),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "g":
			m.selected = (m.selected + 1) % len(allSeries)
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case StepMsg:
		m.push(dynamo.StepInfo(msg))
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.result = msg.Result
	case tickMsg:
		m.frame++
		if !m.done {
			return m, tick()
		}
	}
	return m, nil
}

// push appends a step. A full history is thinned to every other entry so
// the graph always spans the whole run.
func (m *Model) push(info dynamo.StepInfo) {
	if len(m.history) == historyCapacity {
		kept := m.history[:0]
		for i := 0; i < len(m.history); i += 2 {
			kept = append(kept, m.history[i])
		}
		m.history = kept
	}
	m.history = append(m.history, info)
	m.last = info
	m.steps++
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.st.failed.Render("FAILED")
	case m.done:
		return m.st.done.Render("DONE")
	}
	return m.st.running.Render(AnimatedSpinner(m.frame) + " RUNNING")
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(m.st.header.Render("ZONE "+m.label) + "\n")
	s.WriteString(m.status() + "\n\n")

	fraction := 0.0
	if m.tEnd > 0 {
		fraction = m.last.Time / m.tEnd
	}
	s.WriteString(m.st.progressBar(fraction, 40) + fmt.Sprintf(" %5.1f%%\n\n", 100*math.Min(fraction, 1)))

	sel := allSeries[m.selected]
	if len(m.history) > 1 {
		data := make([]float64, len(m.history))
		for i, info := range m.history {
			data[i] = sel.value(info)
		}
		chart := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption(sel.name+" vs step"),
		)
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
	}
	row("step", fmt.Sprintf("%d", m.steps))
	row("time", fmt.Sprintf("%.6e s", m.last.Time))
	row("dt", fmt.Sprintf("%.3e s", m.last.Dt))
	row("T9", fmt.Sprintf("%.6g", m.last.T9))
	row("rho", fmt.Sprintf("%.6e g/cc", m.last.Rho))
	row("entropy", fmt.Sprintf("%.6g", m.last.Entropy))

	if len(m.history) > 1 {
		ent := make([]float64, len(m.history))
		for i, info := range m.history {
			ent[i] = info.Entropy
		}
		s.WriteString(m.st.label.Render("s trend") + m.st.sparkline(ent, 30) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + m.st.failed.Render(m.err.Error()) + "\n")
	}
	if m.done && m.result != nil {
		s.WriteString(fmt.Sprintf("\n%d steps, %d checkpoints\n", m.result.StepsTaken, m.result.Checkpoints))
	}

	s.WriteString(m.st.help.Render("G:Series  T:Theme  ?:Help  Q:Quit"))
	view := m.st.panel.Render(s.String())

	if m.showHelp {
		help := lipgloss.NewStyle().Foreground(m.theme.Accent).Render(
			"G  cycle plotted series\nT  cycle themes (" + strings.Join(ThemeNames(), ", ") + ")\n?  toggle this help\nQ  quit and cancel the run")
		return lipgloss.JoinVertical(lipgloss.Left, help, view)
	}
	return view
}

// Sender delivers messages to a running program; *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramObserver forwards accepted steps to a live view.
type ProgramObserver struct {
	sender Sender
}

func NewProgramObserver(s Sender) *ProgramObserver {
	return &ProgramObserver{sender: s}
}

func (o *ProgramObserver) OnStep(info dynamo.StepInfo) {
	info.State = info.State.Clone()
	o.sender.Send(StepMsg(info))
}
