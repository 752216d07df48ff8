// Package ui renders the console as a terminal panel.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/open-teleop/teleop-console/domain/console"
)

// DefaultPeriod is the render and enable-publish interval.
const DefaultPeriod = 50 * time.Millisecond

const framePrecision = 4

// style keys
const (
	buttonHome       = console.CommandHome
	buttonManual     = console.CommandManual
	buttonTeleopTest = console.CommandTeleopTest
	buttonTeleop     = console.CommandTeleop
	buttonToggle     = "toggle"
)

// Console is what the panel drives.
type Console interface {
	Tick() console.State
	Snapshot() console.State
	Apply(cmd console.Command) error
	Toggle(name string) (console.Command, error)
}

// Bus reports whether the message bus is still usable.
type Bus interface {
	OK() bool
	Err() error
}

// Options configures a Model.
type Options struct {
	Period time.Duration
	Theme  Theme
	Bus    Bus
}

var _ tea.Model = Model{}

type tickMsg time.Time

// Model is the bubbletea model of the console panel.
type Model struct {
	console Console
	bus     Bus
	period  time.Duration
	title   string
	styles  Styles
	keys    keyMap
	help    help.Model
	state   console.State
	width   int
	exitErr error
}

// New creates a panel for c.
func New(c Console, opts Options) Model {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Theme.Title == "" {
		opts.Theme = DefaultTheme()
	}

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(opts.Theme.Buttons.Toggle)).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(opts.Theme.Muted))
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color(opts.Theme.Muted))

	return Model{
		console: c,
		bus:     opts.Bus,
		period:  opts.Period,
		title:   opts.Theme.Title,
		styles:  NewStyles(opts.Theme),
		keys:    defaultKeyMap(),
		help:    h,
		state:   c.Snapshot(),
	}
}

// ExitErr returns why the panel quit on its own, nil after a user quit.
func (m Model) ExitErr() error {
	return m.exitErr
}

// State returns the last rendered snapshot.
func (m Model) State() console.State {
	return m.state
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles ticks, key presses and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.bus != nil && !m.bus.OK() {
			m.exitErr = console.ErrBusClosed
			if err := m.bus.Err(); err != nil {
				m.exitErr = fmt.Errorf("%w: %v", console.ErrBusClosed, err)
			}
			return m, tea.Quit
		}
		m.state = m.console.Tick()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Home):
		err = m.console.Apply(console.Command{Name: console.CommandHome})
	case key.Matches(msg, m.keys.Manual):
		err = m.console.Apply(console.Command{Name: console.CommandManual})
	case key.Matches(msg, m.keys.TeleopTest):
		err = m.console.Apply(console.Command{Name: console.CommandTeleopTest})
	case key.Matches(msg, m.keys.Teleop):
		err = m.console.Apply(console.Command{Name: console.CommandTeleop})
	case key.Matches(msg, m.keys.Clutch):
		_, err = m.console.Toggle(console.CommandClutch)
	case key.Matches(msg, m.keys.Head):
		_, err = m.console.Toggle(console.CommandHead)
	case key.Matches(msg, m.keys.MoveTool):
		_, err = m.console.Toggle(console.CommandMoveTool)
	default:
		return m, nil
	}

	m.state = m.console.Snapshot()
	if err != nil {
		m.state.LastError = err.Error()
	}
	return m, nil
}

// View renders the frames on the left and the button groups on the right.
func (m Model) View() string {
	s := m.state

	poses := lipgloss.JoinVertical(lipgloss.Left,
		m.renderFrame("MTM", s.MasterFrame, s.MasterUpdatedAt),
		m.renderFrame("PSM", s.SlaveFrame, s.SlaveUpdatedAt),
	)

	consoleGroup := m.renderGroup("Console", lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderButton(buttonHome, "Home", "h", s.ConsoleButton == console.CommandHome),
		m.renderButton(buttonManual, "Manual", "m", s.ConsoleButton == console.CommandManual),
		m.renderButton(buttonTeleopTest, "TeleopTest", "t", s.ConsoleButton == console.CommandTeleopTest),
		m.renderButton(buttonTeleop, "Teleop", "T", s.ConsoleButton == console.CommandTeleop),
	))
	mtmGroup := m.renderGroup("MTM", lipgloss.JoinVertical(lipgloss.Left,
		m.renderButton(buttonToggle, "Clutch", "c", s.Clutch),
		m.renderButton(buttonToggle, "Head", "space", s.Head),
	))
	psmGroup := m.renderGroup("PSM", m.renderButton(buttonToggle, "Move Tool", "v", s.MoveTool))

	right := lipgloss.JoinVertical(lipgloss.Left,
		consoleGroup,
		lipgloss.JoinHorizontal(lipgloss.Top, mtmGroup, " ", psmGroup),
		"",
		m.renderStatus(),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, poses, "  ", right)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render(m.title),
		body,
		"",
		m.help.View(m.keys),
	)
}

func (m Model) renderFrame(label string, f console.Frame, updated time.Time) string {
	header := m.styles.FrameLabel.Render(label)
	if updated.IsZero() {
		header += " " + m.styles.Muted.Render("(no pose yet)")
	} else {
		header += " " + m.styles.Muted.Render(updated.Format("15:04:05.000"))
	}
	rows := strings.Join(f.Rows(framePrecision), "\n")
	return m.styles.FrameBox.Render(header + "\n" + rows)
}

func (m Model) renderGroup(label, content string) string {
	return m.styles.GroupBox.Render(m.styles.GroupLabel.Render(label) + "\n" + content)
}

func (m Model) renderButton(styleKey, label, keyHint string, checked bool) string {
	style := m.styles.Button[styleKey]
	mark := "[ ]"
	if checked {
		mark = "[x]"
		style = style.Inherit(m.styles.Checked)
	}
	return style.Render(fmt.Sprintf("%s %s", mark, label)) + m.styles.Muted.Render(" "+keyHint)
}

func (m Model) renderStatus() string {
	s := m.state

	enable := m.styles.Disabled.Render("teleop disabled")
	if s.Enabled {
		enable = m.styles.Enabled.Render("TELEOP ENABLED")
	}

	modes := fmt.Sprintf("MTM %s  PSM %s", modeLabel(s.MasterMode), modeLabel(s.SlaveMode))
	lines := []string{
		enable,
		m.styles.Muted.Render(modes),
		m.styles.Muted.Render(fmt.Sprintf("tick %d", s.Ticks)),
	}
	if s.LastError != "" {
		lines = append(lines, m.styles.Error.Render(s.LastError))
	}
	return strings.Join(lines, "\n")
}

func modeLabel(m *console.Mode) string {
	if m == nil {
		return "-"
	}
	return m.String()
}
