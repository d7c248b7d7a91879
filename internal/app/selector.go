package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/canvas/internal/decompose"
	"github.com/zjrosen/canvas/internal/keys"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/ui/toaster"
	"github.com/zjrosen/canvas/internal/workspace"
)

// chipWidth caps an instance name on the selector strip.
const chipWidth = 24

// Zone ID prefixes for mouse click detection.
const (
	zoneTabPrefix  = "tab:"
	zoneChipPrefix = "chip:"
)

func tabZoneID(m workspace.Mode) string { return zoneTabPrefix + m.String() }

func chipZoneID(i int) string { return fmt.Sprintf("%s%d", zoneChipPrefix, i) }

// selector is the instance strip shown after a decomposition. It takes the
// keyboard while focused; once an instance is chosen it stays visible with
// the choice marked.
type selector struct {
	items   []decompose.Instance
	cursor  int
	active  int
	focused bool
}

func newSelector() selector { return selector{active: -1} }

func (s selector) open(items []decompose.Instance) selector {
	return selector{items: items, active: -1, focused: len(items) > 0}
}

func (s selector) visible() bool { return len(s.items) > 0 }

// view renders the chips, scrolled so the cursor chip is on screen.
func (s selector) view(width int) string {
	labels := make([]string, len(s.items))
	widths := make([]int, len(s.items))
	for i, inst := range s.items {
		labels[i] = runewidth.Truncate(inst.Name, chipWidth, "…")
		widths[i] = runewidth.StringWidth(labels[i]) + 3 // padding and gap
	}
	prefix := "Instances "
	avail := max(width-runewidth.StringWidth(prefix)-1, 1)

	start := 0
	for start < s.cursor && sum(widths[start:s.cursor+1]) > avail {
		start++
	}

	var b strings.Builder
	b.WriteString(styles.HintStyle.Render(prefix))
	if start > 0 {
		b.WriteString(styles.HintStyle.Render("…"))
	}
	used := 0
	for i := start; i < len(labels); i++ {
		if used+widths[i] > avail {
			b.WriteString(styles.HintStyle.Render("…"))
			break
		}
		style := styles.ChipInactiveStyle
		switch {
		case s.focused && i == s.cursor:
			style = styles.ChipActiveStyle
		case !s.focused && i == s.active:
			style = styles.ChipActiveStyle
		}
		b.WriteString(zone.Mark(chipZoneID(i), style.Render(labels[i])))
		b.WriteString(" ")
		used += widths[i]
	}
	return b.String()
}

func sum(ws []int) int {
	n := 0
	for _, w := range ws {
		n += w
	}
	return n
}

func (m *Model) handleSelectorKey(msg tea.KeyMsg) tea.Cmd {
	sel := &m.selector
	switch {
	case key.Matches(msg, keys.Selector.Prev):
		sel.cursor = (sel.cursor + len(sel.items) - 1) % len(sel.items)
	case key.Matches(msg, keys.Selector.Next):
		sel.cursor = (sel.cursor + 1) % len(sel.items)
	case key.Matches(msg, keys.Selector.Choose):
		return m.choose(sel.cursor)
	case key.Matches(msg, keys.Selector.Full):
		return m.choose(-1)
	case key.Matches(msg, keys.Selector.Close):
		sel.focused = false
		if sel.active < 0 {
			*sel = newSelector()
			m.layout()
		}
	}
	return nil
}

// choose edits instance i in the surface, or the full buffer for -1.
func (m *Model) choose(i int) tea.Cmd {
	if err := m.ctrl.SelectInstance(i); err != nil {
		return m.toast(err.Error(), toaster.StyleError)
	}
	if i < 0 {
		m.selector = newSelector()
		m.layout()
		return nil
	}
	m.selector.active = i
	m.selector.focused = false
	return nil
}
