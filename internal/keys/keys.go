// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// WorkspaceKeyMap holds the bindings that work in every mode. They all use
// ctrl or function keys so editors keep their printable keys.
type WorkspaceKeyMap struct {
	// Mode switching
	NextMode key.Binding
	PrevMode key.Binding

	// Running
	Run   key.Binding
	Stop  key.Binding
	Flash key.Binding

	// Content
	Decompose key.Binding
	Yank      key.Binding
	Export    key.Binding
	Reload    key.Binding

	// General
	ToggleLog key.Binding
	Help      key.Binding
	Escape    key.Binding
	Quit      key.Binding
}

// SelectorKeyMap drives the instance selector strip.
type SelectorKeyMap struct {
	Prev   key.Binding
	Next   key.Binding
	Choose key.Binding
	Full   key.Binding
	Close  key.Binding
}

// IDEKeyMap is used by the simulator pane while the editor is blurred.
type IDEKeyMap struct {
	Focus     key.Binding
	NextBoard key.Binding
	Toggle    key.Binding
	Up        key.Binding
	Down      key.Binding
}

// ConsoleKeyMap lists the bindings the console captures while running.
// Button keys themselves are resolved by console.KeyButton.
type ConsoleKeyMap struct {
	Focus key.Binding
	Step  key.Binding
}

// OutputKeyMap is used by the Execute and Terminal output panes.
type OutputKeyMap struct {
	Focus key.Binding
}

// Workspace is the global keymap.
var Workspace = WorkspaceKeyMap{
	NextMode: key.NewBinding(
		key.WithKeys("ctrl+n", "f3"),
		key.WithHelp("ctrl+n", "next mode"),
	),
	PrevMode: key.NewBinding(
		key.WithKeys("ctrl+p", "f2"),
		key.WithHelp("ctrl+p", "previous mode"),
	),
	Run: key.NewBinding(
		key.WithKeys("ctrl+r", "f5"),
		key.WithHelp("ctrl+r", "run"),
	),
	Stop: key.NewBinding(
		key.WithKeys("ctrl+t", "f6"),
		key.WithHelp("ctrl+t", "stop"),
	),
	Flash: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("ctrl+f", "flash board"),
	),
	Decompose: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "instances"),
	),
	Yank: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy buffer"),
	),
	Export: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("ctrl+e", "export"),
	),
	Reload: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "reload file"),
	),
	ToggleLog: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", "toggle log"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "help"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "ctrl+q"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

// Selector is the instance selector keymap.
var Selector = SelectorKeyMap{
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "shift+tab"),
		key.WithHelp("←/h", "previous"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "l", "tab"),
		key.WithHelp("→/l", "next"),
	),
	Choose: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "edit instance"),
	),
	Full: key.NewBinding(
		key.WithKeys("f", "0"),
		key.WithHelp("f", "full buffer"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc", "close"),
	),
}

// IDE is the simulator pane keymap.
var IDE = IDEKeyMap{
	Focus: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("ctrl+w", "editor/pins"),
	),
	NextBoard: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "next board"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "toggle input"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "previous pin"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "next pin"),
	),
}

// Console is the console pane keymap.
var Console = ConsoleKeyMap{
	Focus: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("ctrl+w", "editor/screen"),
	),
	Step: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "step frame"),
	),
}

// Output is the output pane keymap.
var Output = OutputKeyMap{
	Focus: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("ctrl+w", "editor/output"),
	),
}

// ShortHelp returns keybindings for the short help view.
func (k WorkspaceKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextMode, k.Run, k.Stop, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k WorkspaceKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextMode, k.PrevMode},                             // Modes
		{k.Run, k.Stop, k.Flash},                             // Running
		{k.Decompose, k.Yank, k.Export, k.Reload},            // Content
		{k.ToggleLog, k.Help, k.Escape, k.Quit},              // General
		{IDE.Focus, IDE.NextBoard, IDE.Toggle, Console.Step}, // Panes
	}
}
