// Package highlight colours file content for the terminal, one line at a
// time, without changing the number of lines.
package highlight

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// Highlighter renders lines with ANSI colour escapes.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

// New creates a highlighter using the named chroma style. Unknown names
// fall back to chroma's default style.
func New(styleName string) *Highlighter {
	if styleName == "" {
		styleName = DefaultStyle
	}
	return &Highlighter{
		style:     styles.Get(styleName),
		formatter: formatters.Get("terminal16m"),
	}
}

// StyleName returns the name of the style in use.
func (h *Highlighter) StyleName() string {
	return h.style.Name
}

// Lines returns the highlighted form of each input line. The result always
// has the same length as lines; when the file type is unknown or
// tokenising fails the input is returned unchanged.
func (h *Highlighter) Lines(path string, lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	if len(lines) == 0 {
		return out
	}

	text := strings.Join(lines, "\n") + "\n"
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		return out
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return out
	}

	for i, tokens := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		if i >= len(out) {
			break
		}
		var b strings.Builder
		if err := h.formatter.Format(&b, h.style, chroma.Literator(trimNewline(tokens)...)); err != nil {
			continue
		}
		out[i] = b.String()
	}
	return out
}

// trimNewline drops the line terminator that SplitTokensIntoLines leaves on
// the last token so escapes never wrap onto the next row.
func trimNewline(tokens []chroma.Token) []chroma.Token {
	trimmed := make([]chroma.Token, 0, len(tokens))
	for _, tok := range tokens {
		tok.Value = strings.TrimSuffix(tok.Value, "\n")
		if tok.Value == "" {
			continue
		}
		trimmed = append(trimmed, tok)
	}
	return trimmed
}
