// Package markdown renders markdown for the Markdown and Preview modes.
package markdown

import (
	"context"
	"strconv"

	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/canvas/internal/cachemanager"
)

// noMarginStyle removes document margins so the pane border is the frame.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer wraps glamour with a fixed style and a render cache. Rendering
// is keyed on style, width and content, so re-entering a mode with an
// unchanged buffer returns the cached view.
type Renderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    *cachemanager.ReadThroughCache[string, string, string]
	manager  *cachemanager.InMemoryCacheManager[string, string]
}

// New creates a renderer. style is a glamour style name ("dark", "light",
// "notty", ...); empty means "dark". A fixed style avoids
// WithAutoStyle's terminal background query, whose reply would leak into
// the input stream.
func New(width int, style string) (*Renderer, error) {
	if style == "" {
		style = "dark"
	}
	r := &Renderer{
		style:   style,
		manager: cachemanager.NewInMemoryCacheManager[string, string]("markdown", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	}
	r.cache = cachemanager.NewReadThroughCache[string, string, string](r.manager, r.render)
	if err := r.SetWidth(width); err != nil {
		return nil, err
	}
	return r, nil
}

// SetWidth rebuilds the term renderer for a new word wrap width.
func (r *Renderer) SetWidth(width int) error {
	if width == r.width && r.renderer != nil {
		return nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStylePath(r.style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	r.renderer, r.width = tr, width
	return nil
}

// Width returns the configured word wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Render transforms markdown to styled terminal output.
func (r *Renderer) Render(markdown string) (string, error) {
	key := cachemanager.Key("markdown", markdown, r.style, strconv.Itoa(r.width))
	return r.cache.Get(context.Background(), key, markdown, cachemanager.DefaultExpiration)
}

// Cached reports how many renders are held.
func (r *Renderer) Cached() int { return r.manager.Len() }

func (r *Renderer) render(_ context.Context, markdown string) (string, error) {
	return r.renderer.Render(markdown)
}
