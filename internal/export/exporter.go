package export

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/cj3636/gblame/internal/blame"
	"github.com/dustin/go-humanize"
)

// Format represents the desired export format.
type Format string

const (
	// FormatHTML emits an HTML document for the blame.
	FormatHTML Format = "html"
	// FormatMarkdown emits a Markdown code block.
	FormatMarkdown Format = "markdown"
	// FormatANSI emits an ANSI-colored string.
	FormatANSI Format = "ansi"
)

// ParseFormat accepts the format names and aliases the CLI understands.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(raw) {
	case "", string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatHTML), "htm":
		return FormatHTML, nil
	case string(FormatANSI), "text":
		return FormatANSI, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", raw)
	}
}

// Options control how a view is exported.
type Options struct {
	// Title will be shown in all outputs when provided.
	Title string
	// ShowLineNumbers determines whether line numbers are included.
	ShowLineNumbers bool
	// DateFormat is the layout used for commit dates.
	DateFormat string
	// Commits supplies summaries for block headers; missing entries fall
	// back to the data on the line record.
	Commits map[blame.CommitID]blame.Commit
	// Highlighted replaces line content in ANSI output when it has one
	// entry per line.
	Highlighted []string
	// Now anchors relative dates; zero means time.Now.
	Now time.Time
}

// Render returns the view in the requested format.
func Render(v *blame.View, format Format, opts Options) (string, error) {
	if v == nil {
		return "", errors.New("blame view is nil")
	}
	if opts.DateFormat == "" {
		opts.DateFormat = "2006-01-02"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	switch format {
	case FormatHTML:
		return renderHTML(v, opts), nil
	case FormatMarkdown:
		return renderMarkdown(v, opts), nil
	case FormatANSI:
		return renderANSI(v, opts), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// header describes the commit of the block starting at a line.
type header struct {
	commit  string
	author  string
	date    string
	age     string
	summary string
}

func headerFor(rec blame.LineRecord, opts Options) header {
	h := header{
		commit: rec.Commit.Short(),
		author: rec.Author,
		date:   rec.Time.Format(opts.DateFormat),
		age:    humanize.RelTime(rec.Time, opts.Now, "ago", "from now"),
	}
	if c, ok := opts.Commits[rec.Commit]; ok {
		h.summary = c.Summary
	}
	return h
}

// blockStarts returns the set of lines that begin a block.
func blockStarts(v *blame.View) map[int]bool {
	starts := make(map[int]bool, len(v.Blocks))
	for _, b := range v.Blocks {
		starts[b.Start] = true
	}
	return starts
}

func defaultTitle(v *blame.View) string {
	return fmt.Sprintf("Blame: %s @ %s", v.Path, v.Anchor.Short())
}

func renderHTML(v *blame.View, opts Options) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	b.WriteString("<style>body{background:#0f111a;color:#e5e7eb;font-family:Menlo,Consolas,monospace;}" +
		"table{border-collapse:collapse;}td{padding:0 8px;vertical-align:top;white-space:pre;}" +
		"tr.start td{border-top:1px solid #374151;}" +
		".commit{color:#8dd39e;}.author{color:#f19999;}.date{color:#93c5fd;}" +
		".summary{color:#cbd5e1;}.lineno{color:#9ca3af;text-align:right;}" +
		"h1{font-size:18px;margin-bottom:12px;}" +
		"</style></head><body>")

	title := opts.Title
	if title == "" {
		title = defaultTitle(v)
	}
	fmt.Fprintf(&b, "<h1>%s</h1>\n<table>\n", html.EscapeString(title))

	starts := blockStarts(v)
	for _, rec := range v.Lines {
		class := ""
		meta := "<td></td><td></td><td></td><td></td>"
		if starts[rec.Number] {
			h := headerFor(rec, opts)
			class = " class=\"start\""
			meta = fmt.Sprintf("<td class=\"commit\">%s</td><td class=\"author\">%s</td><td class=\"date\" title=\"%s\">%s</td><td class=\"summary\">%s</td>",
				html.EscapeString(h.commit), html.EscapeString(h.author), html.EscapeString(h.age),
				html.EscapeString(h.date), html.EscapeString(h.summary))
		}
		lineNo := ""
		if opts.ShowLineNumbers {
			lineNo = fmt.Sprintf("<td class=\"lineno\">%d</td>", rec.Number)
		}
		fmt.Fprintf(&b, "<tr%s>%s%s<td>%s</td></tr>\n", class, meta, lineNo, html.EscapeString(rec.Content))
	}

	b.WriteString("</table></body></html>")
	return b.String()
}

func renderMarkdown(v *blame.View, opts Options) string {
	var b strings.Builder

	if opts.Title != "" {
		b.WriteString("# ")
		b.WriteString(opts.Title)
		b.WriteString("\n\n")
	}

	starts := blockStarts(v)
	b.WriteString("```\n")
	for _, rec := range v.Lines {
		meta := strings.Repeat(" ", 8+1+15+1+10)
		if starts[rec.Number] {
			h := headerFor(rec, opts)
			meta = fmt.Sprintf("%-8s %-15s %-10s", h.commit, truncate(h.author, 15), h.date)
		}
		if opts.ShowLineNumbers {
			fmt.Fprintf(&b, "%s %5d | %s\n", meta, rec.Number, rec.Content)
		} else {
			fmt.Fprintf(&b, "%s | %s\n", meta, rec.Content)
		}
	}
	b.WriteString("```\n")
	return b.String()
}

func renderANSI(v *blame.View, opts Options) string {
	var b strings.Builder
	title := opts.Title
	if title != "" {
		fmt.Fprintf(&b, "%s\n\n", title)
	}

	const (
		reset  = "\u001b[0m"
		green  = "\u001b[32m"
		red    = "\u001b[31m"
		blue   = "\u001b[34m"
		yellow = "\u001b[33m"
		gray   = "\u001b[90m"
	)

	highlighted := len(opts.Highlighted) == len(v.Lines)
	starts := blockStarts(v)
	for i, rec := range v.Lines {
		if starts[rec.Number] {
			h := headerFor(rec, opts)
			fmt.Fprintf(&b, "%s%s%s %s%s%s %s%s%s %s%s%s\n",
				green, h.commit, reset, red, h.author, reset, blue, h.date, reset, gray, h.summary, reset)
		}
		content := rec.Content
		if highlighted {
			content = opts.Highlighted[i] + reset
		}
		if opts.ShowLineNumbers {
			fmt.Fprintf(&b, "%s%5d%s %s\n", yellow, rec.Number, reset, content)
		} else {
			fmt.Fprintf(&b, "%s\n", content)
		}
	}
	return b.String()
}

// truncate shortens s to maxLen terminal cells without splitting a rune.
func truncate(s string, maxLen int) string {
	return ansi.Truncate(s, maxLen, "...")
}
