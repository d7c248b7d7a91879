// Package highlight colors source text for the read-only views (JSON,
// Diagram, Notebook cells) with chroma.
package highlight

import (
	"context"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/canvas/internal/cachemanager"
	"github.com/zjrosen/canvas/internal/log"
)

// DefaultStyle is used when the configured style is unknown.
const DefaultStyle = "monokai"

// languageAliases maps buffer languages to chroma lexer names where they
// differ. Mermaid has no lexer; it falls back to plain text.
var languageAliases = map[string]string{
	"ino":      "arduino",
	"md":       "markdown",
	"js":       "javascript",
	"py":       "python",
	"sh":       "bash",
	"terminal": "bash",
}

type request struct {
	text string
	lang string
}

// Highlighter renders text as ANSI-colored terminal output.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
	cache     *cachemanager.ReadThroughCache[string, string, request]
}

// New creates a highlighter for a chroma style name.
func New(style string) *Highlighter {
	s := chromastyles.Get(style)
	if s == chromastyles.Fallback {
		log.Warn(log.CatUI, "unknown highlight style, using default", "style", style)
		s = chromastyles.Get(DefaultStyle)
	}
	f := formatters.Get("terminal256")
	if f == nil {
		f = formatters.Fallback
	}
	h := &Highlighter{style: s, formatter: f}
	manager := cachemanager.NewInMemoryCacheManager[string, string]("highlight", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	h.cache = cachemanager.NewReadThroughCache[string, string, request](manager, h.render)
	return h
}

// Highlight colors text as lang. An empty or unknown lang is guessed from
// the content. On a lexer failure the text comes back unchanged.
func (h *Highlighter) Highlight(text, lang string) string {
	key := cachemanager.Key("highlight", text, h.style.Name, lang)
	out, err := h.cache.Get(context.Background(), key, request{text: text, lang: lang}, cachemanager.DefaultExpiration)
	if err != nil {
		log.Debug(log.CatUI, "highlight failed", "lang", lang, "error", err)
		return text
	}
	return out
}

// Lexer resolves lang to a chroma lexer, analysing text when lang is not
// known.
func Lexer(text, lang string) chroma.Lexer {
	name := strings.ToLower(strings.TrimSpace(lang))
	if alias, ok := languageAliases[name]; ok {
		name = alias
	}
	var l chroma.Lexer
	if name != "" {
		l = lexers.Get(name)
	}
	if l == nil {
		l = lexers.Analyse(text)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

func (h *Highlighter) render(_ context.Context, req request) (string, error) {
	it, err := Lexer(req.text, req.lang).Tokenise(nil, req.text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return "", err
	}
	out := b.String()
	// Lexers with EnsureNL add a newline the buffer never had.
	if !strings.HasSuffix(req.text, "\n") {
		if i := strings.LastIndex(out, "\n"); i >= 0 && ansi.Strip(out[i+1:]) == "" {
			out = out[:i] + out[i+1:]
		}
	}
	return out, nil
}
