package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Clear    key.Binding
	Scan     key.Binding
	Finalize key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓/←/→", "move")),
		Down:     key.NewBinding(key.WithKeys("down")),
		Left:     key.NewBinding(key.WithKeys("left")),
		Right:    key.NewBinding(key.WithKeys("right")),
		Clear:    key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("⌫", "clear cell")),
		Scan:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "enter scan")),
		Finalize: key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "finalize")),
		Confirm:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "proceed")),
		Cancel:   key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
		Help:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "save & quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Scan, k.Finalize, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Clear},
		{k.Scan, k.Finalize},
		{k.Help, k.Quit},
	}
}

// confirmHelp is shown while the finalize confirmation is open.
type confirmHelp struct{ keys keyMap }

func (c confirmHelp) ShortHelp() []key.Binding { return []key.Binding{c.keys.Confirm, c.keys.Cancel} }

func (c confirmHelp) FullHelp() [][]key.Binding { return [][]key.Binding{c.ShortHelp()} }
