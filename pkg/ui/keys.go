package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Home       key.Binding
	Manual     key.Binding
	TeleopTest key.Binding
	Teleop     key.Binding
	Clutch     key.Binding
	Head       key.Binding
	MoveTool   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Home: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "home"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manual"),
		),
		TeleopTest: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "teleop test"),
		),
		Teleop: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "teleop"),
		),
		Clutch: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clutch"),
		),
		// bubbletea reports the space bar as " "
		Head: key.NewBinding(
			key.WithKeys(" ", "H"),
			key.WithHelp("space/H", "head"),
		),
		MoveTool: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "move tool"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Home, k.Manual, k.TeleopTest, k.Teleop, k.Head, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Home, k.Manual, k.TeleopTest, k.Teleop},
		{k.Clutch, k.Head, k.MoveTool},
		{k.Help, k.Quit},
	}
}
