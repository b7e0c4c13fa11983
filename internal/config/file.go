package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of the configuration. Unset fields keep their
// defaults.
type File struct {
	Theme            string              `yaml:"theme,omitempty"`
	HighContrast     *bool               `yaml:"high_contrast,omitempty"`
	SyntaxStyle      string              `yaml:"syntax_style,omitempty"`
	SyntaxHighlight  *bool               `yaml:"syntax_highlight,omitempty"`
	ShowLineNumbers  *bool               `yaml:"show_line_numbers,omitempty"`
	TabSize          int                 `yaml:"tab_size,omitempty"`
	IgnoreWhitespace *bool               `yaml:"ignore_whitespace,omitempty"`
	DateFormat       string              `yaml:"date_format,omitempty"`
	CacheSize        int                 `yaml:"cache_size,omitempty"`
	LogFile          string              `yaml:"log_file,omitempty"`
	LogLevel         string              `yaml:"log_level,omitempty"`
	Columns          *FileColumns        `yaml:"columns,omitempty"`
	Keybindings      map[string][]string `yaml:"keybindings,omitempty"`
}

// FileColumns overrides individual column widths.
type FileColumns struct {
	Time    int `yaml:"time,omitempty"`
	Author  int `yaml:"author,omitempty"`
	Commit  int `yaml:"commit,omitempty"`
	Message int `yaml:"message,omitempty"`
	LineNo  int `yaml:"line_number,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/gblame/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gblame", "config.yaml")
}

// Load reads the configuration at path on top of the defaults. A missing
// file is only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	file.Apply(cfg)
	return cfg, nil
}

// Validate rejects values that cannot be applied.
func (f File) Validate() error {
	switch ThemePreset(strings.ToLower(f.Theme)) {
	case "", PresetDefault, PresetSolarize, PresetDracula:
	default:
		return fmt.Errorf("unknown theme %q", f.Theme)
	}
	if f.TabSize < 0 {
		return fmt.Errorf("tab_size must not be negative")
	}
	if f.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	for action := range f.Keybindings {
		if _, ok := DefaultKeybindings()[action]; !ok {
			return fmt.Errorf("unknown keybinding action %q", action)
		}
	}
	return nil
}

// Apply copies every set field onto cfg.
func (f File) Apply(cfg *Config) {
	if f.Theme != "" {
		cfg.ThemePreset = ThemePreset(strings.ToLower(f.Theme))
	}
	if f.HighContrast != nil {
		cfg.HighContrast = *f.HighContrast
	}
	cfg.Theme = ThemeForPreset(cfg.ThemePreset, cfg.HighContrast)

	if f.SyntaxStyle != "" {
		cfg.SyntaxStyle = f.SyntaxStyle
	}
	if f.SyntaxHighlight != nil {
		cfg.SyntaxHighlight = *f.SyntaxHighlight
	}
	if f.ShowLineNumbers != nil {
		cfg.ShowLineNo = *f.ShowLineNumbers
	}
	if f.TabSize > 0 {
		cfg.TabSize = f.TabSize
	}
	if f.IgnoreWhitespace != nil {
		cfg.IgnoreWhitespace = *f.IgnoreWhitespace
	}
	if f.DateFormat != "" {
		cfg.DateFormat = f.DateFormat
	}
	if f.CacheSize > 0 {
		cfg.CacheSize = f.CacheSize
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if c := f.Columns; c != nil {
		setWidth(&cfg.Columns.Time, c.Time)
		setWidth(&cfg.Columns.Author, c.Author)
		setWidth(&cfg.Columns.Commit, c.Commit)
		setWidth(&cfg.Columns.Message, c.Message)
		setWidth(&cfg.Columns.LineNo, c.LineNo)
	}
	cfg.Keybindings = MergeKeybindings(f.Keybindings)
}

func setWidth(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
