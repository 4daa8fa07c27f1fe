package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the app bindings. Keys found in the keyboard mapping play
// notes instead, so these are checked only for unmapped keys.
type KeyMap struct {
	Quit        key.Binding
	OctaveDown  key.Binding
	OctaveUp    key.Binding
	PrevChannel key.Binding
	NextChannel key.Binding
	Playable    key.Binding
	ReleaseAll  key.Binding
	Help        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		OctaveDown: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "octave down"),
		),
		OctaveUp: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "octave up"),
		),
		PrevChannel: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev channel"),
		),
		NextChannel: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next channel"),
		),
		Playable: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "playable on/off"),
		),
		ReleaseAll: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "release all"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.OctaveDown, k.OctaveUp, k.PrevChannel, k.NextChannel, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.OctaveDown, k.OctaveUp},
		{k.PrevChannel, k.NextChannel},
		{k.Playable, k.ReleaseAll},
		{k.Help, k.Quit},
	}
}
