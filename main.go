package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cj3636/gblame/internal/blame"
	"github.com/cj3636/gblame/internal/config"
	"github.com/cj3636/gblame/internal/export"
	"github.com/cj3636/gblame/internal/git"
	"github.com/cj3636/gblame/internal/highlight"
	"github.com/cj3636/gblame/internal/history"
	"github.com/cj3636/gblame/internal/logging"
	"github.com/cj3636/gblame/internal/tui"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

const version = "0.1.0"

var (
	showVersion      bool
	help             bool
	ref              string
	configPath       string
	theme            string
	highContrast     bool
	syntaxStyle      string
	noSyntax         bool
	noLineNumber     bool
	ignoreWhitespace bool
	tabSize          int
	logFile          string
	logLevel         string
	exportFormat     string
	exportFile       string
	exportCopy       bool
)

func init() {
	flag.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	flag.StringVarP(&ref, "ref", "r", "", "Commit, branch or tag to start at (defaults to HEAD)")
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&theme, "theme", "", "Theme preset: default, solarized or dracula")
	flag.BoolVar(&highContrast, "high-contrast", false, "Brighten the theme colors")
	flag.StringVar(&syntaxStyle, "syntax-style", "", "Chroma style used for syntax highlighting")
	flag.BoolVar(&noSyntax, "no-syntax", false, "Disable syntax highlighting")
	flag.BoolVarP(&noLineNumber, "no-line-numbers", "n", false, "Hide line numbers")
	flag.BoolVarP(&ignoreWhitespace, "ignore-whitespace", "w", false, "Ignore whitespace changes when assigning lines")
	flag.IntVarP(&tabSize, "tab-size", "t", 4, "Set tab size")
	flag.StringVar(&logFile, "log-file", "", "Write debug logs to this file")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flag.StringVar(&exportFormat, "export-format", "", "Export blame as html, markdown, or ansi without launching the TUI")
	flag.StringVar(&exportFile, "export-file", "", "Write exported blame to the provided file path")
	flag.BoolVar(&exportCopy, "export-copy", false, "Copy the exported blame to your clipboard")
	flag.BoolVarP(&help, "help", "h", false, "Show help information")
	flag.Usage = usage
}

func usage() {
	fmt.Println("gblame - Browse git blame back through a file's history")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  gblame [options] <file> [ref]")
	fmt.Println("")
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  gblame main.go")
	fmt.Println("  gblame internal/server.go v1.2.0      # Start at a tag")
	fmt.Println("  gblame -w --theme dracula main.go      # Ignore whitespace, dracula theme")
	fmt.Println("  gblame --export-format html --export-file blame.html main.go # Export without TUI")
	fmt.Println("")
	fmt.Println("Keyboard shortcuts:")
	fmt.Println("  j/↓ k/↑      Next / previous line")
	fmt.Println("  }/J {/K      Next / previous block")
	fmt.Println("  ←/h          Blame the parent of the selected line's commit")
	fmt.Println("  →/l          Return to the newer view")
	fmt.Println("  ctrl+d/u     Half page down / up")
	fmt.Println("  g/G          Go to top / bottom")
	fmt.Println("  y            Copy commit id")
	fmt.Println("  c            Toggle syntax highlighting")
	fmt.Println("  ctrl+n       Toggle line numbers")
	fmt.Println("  ?            Toggle help panel")
	fmt.Println("  q            Quit")
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig() (*config.Config, error) {
	path, required := configPath, configPath != ""
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}

	changed := flag.CommandLine.Changed
	if changed("theme") || changed("high-contrast") {
		if changed("theme") {
			override := config.File{Theme: theme}
			if err := override.Validate(); err != nil {
				return nil, err
			}
			cfg.ThemePreset = config.ThemePreset(strings.ToLower(theme))
		}
		if changed("high-contrast") {
			cfg.HighContrast = highContrast
		}
		cfg.Theme = config.ThemeForPreset(cfg.ThemePreset, cfg.HighContrast)
	}
	if changed("syntax-style") {
		cfg.SyntaxStyle = syntaxStyle
	}
	if noSyntax {
		cfg.SyntaxHighlight = false
	}
	if noLineNumber {
		cfg.ShowLineNo = false
	}
	if changed("ignore-whitespace") {
		cfg.IgnoreWhitespace = ignoreWhitespace
	}
	if changed("tab-size") && tabSize > 0 {
		cfg.TabSize = tabSize
	}
	if changed("log-file") {
		cfg.LogFile = logFile
	}
	if changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func main() {
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("gblame version %s\n", version)
		fmt.Println("Browse git blame back through a file's history")
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		usage()
		os.Exit(1)
	}
	target := args[0]
	startRef := "HEAD"
	switch {
	case len(args) == 2:
		startRef = args[1]
	case ref != "":
		startRef = ref
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(target, startRef, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run opens the blame of target at startRef and either exports it or hands
// it to the TUI. The logger is flushed before run returns.
func run(target, startRef string, cfg *config.Config) (err error) {
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer func() {
		if err != nil {
			logger.Error("gblame failed", zap.String("path", target), zap.String("ref", startRef), zap.Error(err))
		}
		logger.Close()
	}()

	repo, err := git.Open(target, git.WithLogger(logger.Logger), git.WithIgnoreWhitespace(cfg.IgnoreWhitespace))
	if err != nil {
		return err
	}
	relPath, err := repo.RelPath(target)
	if err != nil {
		return err
	}
	cached, err := git.NewCachedRepo(repo, cfg.CacheSize)
	if err != nil {
		return err
	}

	nav, err := history.New(cached, relPath, startRef, history.WithLogger(logger.Logger))
	if err != nil {
		return fmt.Errorf("blaming %s at %s: %w", relPath, startRef, err)
	}

	// Built even when highlighting starts off so it can be toggled on.
	hl := highlight.New(cfg.SyntaxStyle)

	if exportFormat != "" || exportFile != "" || exportCopy {
		return runExport(nav.Current(), cached, hl, cfg, startRef)
	}

	model := tui.NewModel(nav, cfg, cached, hl).WithLogger(logger.Logger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runExport(view *blame.View, commits *git.CachedRepo, hl *highlight.Highlighter, cfg *config.Config, startRef string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	opts := export.Options{
		Title:           fmt.Sprintf("%s @ %s (%s)", filepath.Base(view.Path), startRef, view.Anchor.Short()),
		ShowLineNumbers: cfg.ShowLineNo,
		DateFormat:      cfg.DateFormat,
	}
	// Summaries are optional in the export.
	if meta, err := commits.Commits(view.Commits()...); err == nil {
		opts.Commits = meta
	}
	if cfg.SyntaxHighlight && format == export.FormatANSI {
		opts.Highlighted = hl.Lines(view.Path, view.Contents())
	}

	rendered, err := export.Render(view, format, opts)
	if err != nil {
		return fmt.Errorf("exporting blame: %w", err)
	}

	if exportFile != "" {
		if err := os.WriteFile(exportFile, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Blame saved to %s\n", exportFile)
	}

	if exportCopy {
		if err := export.CopyToClipboard(rendered, os.Stdout); err != nil {
			return fmt.Errorf("copying blame to clipboard: %w", err)
		}
		fmt.Println("Blame copied to clipboard.")
	}

	if exportFile == "" && !exportCopy {
		fmt.Println(rendered)
	}
	return nil
}
