package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap avoids the control keys the editor already binds.
type KeyMap struct {
	Export     key.Binding
	Format     key.Binding
	Scale      key.Binding
	Theme      key.Binding
	Background key.Binding
	Language   key.Binding
	Settings   key.Binding
	Audit      key.Binding
	Share      key.Binding
	Clear      key.Binding
	Help       key.Binding
	Quit       key.Binding

	// Settings panel navigation.
	Up     key.Binding
	Down   key.Binding
	Less   key.Binding
	More   key.Binding
	Toggle key.Binding
	Close  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Export:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "export")),
		Format:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "format")),
		Scale:      key.NewBinding(key.WithKeys("alt+e"), key.WithHelp("alt+e", "scale")),
		Theme:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "theme")),
		Background: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "background")),
		Language:   key.NewBinding(key.WithKeys("alt+g"), key.WithHelp("alt+g", "language")),
		Settings:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "settings")),
		Audit:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "audit")),
		Share:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy link")),
		Clear:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear")),
		Help:       key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),

		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		Less:   key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/h", "decrease")),
		More:   key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/l", "increase")),
		Toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Export, k.Format, k.Settings, k.Share, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Export, k.Format, k.Scale},
		{k.Theme, k.Background, k.Language},
		{k.Audit, k.Share, k.Clear},
		{k.Settings, k.Help, k.Quit},
	}
}

// panelKeys is the help shown while the settings panel has focus.
type panelKeys KeyMap

func (k panelKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Less, k.More, k.Toggle, k.Close}
}

func (k panelKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Less, k.More, k.Toggle},
		{k.Close, k.Export, k.Quit},
	}
}
