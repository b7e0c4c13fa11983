package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/cj3636/gblame/internal/config"
)

// keyMap holds the bindings for every action in the blame view.
type keyMap struct {
	Quit              key.Binding
	LineDown          key.Binding
	LineUp            key.Binding
	BlockDown         key.Binding
	BlockUp           key.Binding
	TravelBack        key.Binding
	TravelForward     key.Binding
	PageDown          key.Binding
	PageUp            key.Binding
	GoTop             key.Binding
	GoBottom          key.Binding
	CopyCommit        key.Binding
	ToggleSyntax      key.Binding
	ToggleHelp        key.Binding
	ToggleLineNumbers key.Binding
}

func newKeyMap(kb config.Keybindings) keyMap {
	bind := func(action, desc string) key.Binding {
		keys := kb[action]
		return key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), desc),
		)
	}

	return keyMap{
		Quit:              bind("quit", "quit"),
		LineDown:          bind("line_down", "next line"),
		LineUp:            bind("line_up", "previous line"),
		BlockDown:         bind("block_down", "next block"),
		BlockUp:           bind("block_up", "previous block"),
		TravelBack:        bind("travel_back", "blame parent commit"),
		TravelForward:     bind("travel_forward", "return to newer view"),
		PageDown:          bind("page_down", "half page down"),
		PageUp:            bind("page_up", "half page up"),
		GoTop:             bind("go_top", "first line"),
		GoBottom:          bind("go_bottom", "last line"),
		CopyCommit:        bind("copy_commit", "copy commit id"),
		ToggleSyntax:      bind("toggle_syntax", "toggle syntax colors"),
		ToggleHelp:        bind("toggle_help", "toggle help"),
		ToggleLineNumbers: bind("toggle_line_numbers", "toggle line numbers"),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TravelBack, k.TravelForward, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.LineDown, k.LineUp, k.BlockDown, k.BlockUp},
		{k.PageDown, k.PageUp, k.GoTop, k.GoBottom},
		{k.TravelBack, k.TravelForward, k.CopyCommit},
		{k.ToggleSyntax, k.ToggleLineNumbers, k.ToggleHelp, k.Quit},
	}
}
