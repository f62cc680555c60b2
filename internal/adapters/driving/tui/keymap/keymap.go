// Package keymap defines keybindings for the task monitor.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings.
type KeyMap struct {
	Quit         key.Binding
	Up           key.Binding
	Down         key.Binding
	Open         key.Binding
	Back         key.Binding
	Filter       key.Binding
	CancelTask   key.Binding
	ClearDone    key.Binding
	Refresh      key.Binding
	ReloadConfig key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		CancelTask: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel task"),
		),
		ClearDone: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear finished"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ReloadConfig: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload config"),
		),
	}
}

// ListHelp returns keybindings shown under the task list.
func (k *KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Filter, k.CancelTask, k.ClearDone, k.Refresh, k.Quit}
}

// DetailHelp returns keybindings shown under a task's details.
func (k *KeyMap) DetailHelp() []key.Binding {
	return []key.Binding{k.CancelTask, k.Back, k.Quit}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}

// HelpLine renders bindings as "[key] desc" pairs.
func HelpLine(bindings []key.Binding) string {
	var line string
	for i, b := range bindings {
		if i > 0 {
			line += "  "
		}
		h := b.Help()
		line += "[" + h.Key + "] " + h.Desc
	}
	return line
}
