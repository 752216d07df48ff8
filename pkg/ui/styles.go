package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Theme is the panel stylesheet as stored on disk. Colours are anything
// lipgloss.Color accepts: "#RRGGBB" or an ANSI 256 index.
type Theme struct {
	Title       string       `yaml:"title"`
	Accent      string       `yaml:"accent"`
	Muted       string       `yaml:"muted"`
	FrameBorder string       `yaml:"frame_border"`
	GroupBorder string       `yaml:"group_border"`
	Enabled     string       `yaml:"enabled"`
	Disabled    string       `yaml:"disabled"`
	Error       string       `yaml:"error"`
	Buttons     ButtonColors `yaml:"buttons"`
}

// ButtonColors colours the console group buttons.
type ButtonColors struct {
	Home       string `yaml:"home"`
	Manual     string `yaml:"manual"`
	TeleopTest string `yaml:"teleop_test"`
	Teleop     string `yaml:"teleop"`
	Toggle     string `yaml:"toggle"`
}

// DefaultTheme is used when no stylesheet can be read.
func DefaultTheme() Theme {
	return Theme{
		Title:       "Teleop Console",
		Accent:      "86",
		Muted:       "241",
		FrameBorder: "62",
		GroupBorder: "240",
		Enabled:     "#00D75F",
		Disabled:    "#D70000",
		Error:       "196",
		Buttons: ButtonColors{
			Home:       "#008000",
			Manual:     "#FF0000",
			TeleopTest: "#0000FF",
			Teleop:     "#A52A2A",
			Toggle:     "205",
		},
	}
}

// LoadTheme reads a YAML stylesheet. Keys missing from the file keep their
// default values.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()

	data, err := os.ReadFile(path)
	if err != nil {
		return theme, fmt.Errorf("read stylesheet: %w", err)
	}
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return DefaultTheme(), fmt.Errorf("parse stylesheet %s: %w", path, err)
	}
	return theme, nil
}

// Styles are the lipgloss styles the panel renders with.
type Styles struct {
	Title      lipgloss.Style
	FrameBox   lipgloss.Style
	FrameLabel lipgloss.Style
	GroupBox   lipgloss.Style
	GroupLabel lipgloss.Style
	Button     map[string]lipgloss.Style
	Checked    lipgloss.Style
	Enabled    lipgloss.Style
	Disabled   lipgloss.Style
	Muted      lipgloss.Style
	Error      lipgloss.Style
}

// NewStyles maps a theme onto lipgloss styles.
func NewStyles(t Theme) Styles {
	button := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Padding(0, 1)
	}

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Accent)).
			MarginBottom(1),
		FrameBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.FrameBorder)).
			Padding(0, 1),
		FrameLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Accent)),
		GroupBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(t.GroupBorder)).
			Padding(0, 1),
		GroupLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		Button: map[string]lipgloss.Style{
			buttonHome:       button(t.Buttons.Home),
			buttonManual:     button(t.Buttons.Manual),
			buttonTeleopTest: button(t.Buttons.TeleopTest),
			buttonTeleop:     button(t.Buttons.Teleop),
			buttonToggle:     button(t.Buttons.Toggle),
		},
		Checked: lipgloss.NewStyle().Reverse(true),
		Enabled: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Enabled)),
		Disabled: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Disabled)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)),
	}
}
