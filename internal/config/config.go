package config

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/gblame/internal/highlight"
)

// Config holds the application configuration
type Config struct {
	Theme            Theme
	ThemePreset      ThemePreset
	HighContrast     bool
	SyntaxStyle      string
	SyntaxHighlight  bool
	ShowLineNo       bool
	TabSize          int
	IgnoreWhitespace bool
	DateFormat       string
	CacheSize        int
	LogFile          string
	LogLevel         string
	Columns          ColumnWidths
	Keybindings      Keybindings
}

// ThemePreset describes a named theme configuration.
type ThemePreset string

const (
	PresetDefault  ThemePreset = "default"
	PresetSolarize ThemePreset = "solarized"
	PresetDracula  ThemePreset = "dracula"
)

// ColumnWidths sets the width of the fixed blame columns. The content
// column takes whatever is left.
type ColumnWidths struct {
	Time    int
	Author  int
	Commit  int
	Message int
	LineNo  int
}

// Keybindings maps semantic actions to one or more key sequences.
type Keybindings map[string][]string

// Theme defines the color scheme for the application
type Theme struct {
	TimeFg       lipgloss.Color
	AuthorFg     lipgloss.Color
	CommitFg     lipgloss.Color
	MessageFg    lipgloss.Color
	LineNumberFg lipgloss.Color
	ContentFg    lipgloss.Color
	SelectedBg   lipgloss.Color
	BorderFg     lipgloss.Color
	TitleFg      lipgloss.Color
	TitleBg      lipgloss.Color
	HelpFg       lipgloss.Color
	InfoFg       lipgloss.Color
	ErrorFg      lipgloss.Color
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ThemePreset:      PresetDefault,
		Theme:            ThemeForPreset(PresetDefault, false),
		HighContrast:     false,
		SyntaxStyle:      highlight.DefaultStyle,
		SyntaxHighlight:  true,
		ShowLineNo:       true,
		TabSize:          4,
		IgnoreWhitespace: false,
		DateFormat:       "2006-01-02",
		CacheSize:        256,
		LogLevel:         "info",
		Columns:          DefaultColumns(),
		Keybindings:      DefaultKeybindings(),
	}
}

// DefaultColumns mirrors the widths of the classic blame layout.
func DefaultColumns() ColumnWidths {
	return ColumnWidths{Time: 10, Author: 15, Commit: 8, Message: 30, LineNo: 5}
}

// DefaultTheme returns the default color theme
func DefaultTheme() Theme {
	return Theme{
		TimeFg:       lipgloss.Color("#5F87FF"),
		AuthorFg:     lipgloss.Color("#E06C75"),
		CommitFg:     lipgloss.Color("#98C379"),
		MessageFg:    lipgloss.Color("#8FBF7F"),
		LineNumberFg: lipgloss.Color("#E5C07B"),
		ContentFg:    lipgloss.Color("#D0D0D0"),
		SelectedBg:   lipgloss.Color("#3F3F3F"),
		BorderFg:     lipgloss.Color("#3A3A3A"),
		TitleFg:      lipgloss.Color("#FFFFFF"),
		TitleBg:      lipgloss.Color("#5F5FAF"),
		HelpFg:       lipgloss.Color("#888888"),
		InfoFg:       lipgloss.Color("#87D7FF"),
		ErrorFg:      lipgloss.Color("#FF5F5F"),
	}
}

// ThemeForPreset resolves a preset name to a concrete Theme, optionally
// applying a high-contrast variation.
func ThemeForPreset(preset ThemePreset, highContrast bool) Theme {
	switch preset {
	case PresetSolarize:
		return applyContrast(Theme{
			TimeFg:       lipgloss.Color("#268BD2"),
			AuthorFg:     lipgloss.Color("#DC322F"),
			CommitFg:     lipgloss.Color("#859900"),
			MessageFg:    lipgloss.Color("#2AA198"),
			LineNumberFg: lipgloss.Color("#B58900"),
			ContentFg:    lipgloss.Color("#93A1A1"),
			SelectedBg:   lipgloss.Color("#073642"),
			BorderFg:     lipgloss.Color("#657B83"),
			TitleFg:      lipgloss.Color("#EEE8D5"),
			TitleBg:      lipgloss.Color("#586E75"),
			HelpFg:       lipgloss.Color("#93A1A1"),
			InfoFg:       lipgloss.Color("#2AA198"),
			ErrorFg:      lipgloss.Color("#DC322F"),
		}, highContrast)
	case PresetDracula:
		return applyContrast(Theme{
			TimeFg:       lipgloss.Color("#8BE9FD"),
			AuthorFg:     lipgloss.Color("#FF79C6"),
			CommitFg:     lipgloss.Color("#50FA7B"),
			MessageFg:    lipgloss.Color("#F1FA8C"),
			LineNumberFg: lipgloss.Color("#6272A4"),
			ContentFg:    lipgloss.Color("#F8F8F2"),
			SelectedBg:   lipgloss.Color("#44475A"),
			BorderFg:     lipgloss.Color("#44475A"),
			TitleFg:      lipgloss.Color("#F8F8F2"),
			TitleBg:      lipgloss.Color("#6272A4"),
			HelpFg:       lipgloss.Color("#BD93F9"),
			InfoFg:       lipgloss.Color("#8BE9FD"),
			ErrorFg:      lipgloss.Color("#FF5555"),
		}, highContrast)
	default:
		return applyContrast(DefaultTheme(), highContrast)
	}
}

// DefaultKeybindings returns the built-in keybinding map.
func DefaultKeybindings() Keybindings {
	return Keybindings{
		"quit":                {"q", "ctrl+c", "esc"},
		"line_down":           {"j", "down"},
		"line_up":             {"k", "up"},
		"block_down":          {"}", "J"},
		"block_up":            {"{", "K"},
		"travel_back":         {"left", "h"},
		"travel_forward":      {"right", "l"},
		"page_down":           {"pgdown", "ctrl+d"},
		"page_up":             {"pgup", "ctrl+u"},
		"go_top":              {"g", "home"},
		"go_bottom":           {"G", "end"},
		"copy_commit":         {"y"},
		"toggle_syntax":       {"c"},
		"toggle_help":         {"?"},
		"toggle_line_numbers": {"ctrl+n"},
	}
}

// MergeKeybindings overlays user overrides onto defaults.
func MergeKeybindings(overrides Keybindings) Keybindings {
	defaults := DefaultKeybindings()
	for action, keys := range overrides {
		if len(keys) == 0 {
			continue
		}
		defaults[action] = keys
	}
	return defaults
}

func applyContrast(theme Theme, highContrast bool) Theme {
	if !highContrast {
		return theme
	}

	boost := func(c lipgloss.Color, factor float64) lipgloss.Color {
		return lipgloss.Color(adjustBrightness(string(c), factor))
	}

	return Theme{
		TimeFg:       boost(theme.TimeFg, 0.25),
		AuthorFg:     boost(theme.AuthorFg, 0.25),
		CommitFg:     boost(theme.CommitFg, 0.25),
		MessageFg:    boost(theme.MessageFg, 0.25),
		LineNumberFg: boost(theme.LineNumberFg, 0.2),
		ContentFg:    boost(theme.ContentFg, 0.2),
		SelectedBg:   boost(theme.SelectedBg, 0.15),
		BorderFg:     boost(theme.BorderFg, 0.2),
		TitleFg:      boost(theme.TitleFg, 0.2),
		TitleBg:      boost(theme.TitleBg, 0.2),
		HelpFg:       boost(theme.HelpFg, 0.2),
		InfoFg:       boost(theme.InfoFg, 0.2),
		ErrorFg:      boost(theme.ErrorFg, 0.2),
	}
}

func adjustBrightness(hex string, factor float64) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}

	var r, g, b int
	_, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return hex
	}

	boost := func(value int) int {
		adjusted := float64(value) * (1 + factor)
		if adjusted > 255 {
			adjusted = 255
		}
		return int(adjusted)
	}

	return fmt.Sprintf("#%02x%02x%02x", boost(r), boost(g), boost(b))
}
