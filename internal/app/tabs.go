package app

import (
	"strings"

	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/workspace"
)

// tabBar renders one clickable tab per mode. Tabs past the window width are
// replaced by an ellipsis, except the active one, which is always shown.
func (m Model) tabBar() string {
	active := m.ctrl.Active()
	modes := workspace.Modes()

	// Drop tabs from the end, then from the start, until the active tab
	// fits.
	first, last := 0, len(modes)
	width := func() int {
		w := 0
		for _, md := range modes[first:last] {
			w += runewidth.StringWidth(md.Title()) + 3 // padding and gap
		}
		return w + 2 // room for an ellipsis
	}
	for width() > m.width && last-first > 1 {
		if int(active) < last-1 {
			last--
		} else {
			first++
		}
	}

	var b strings.Builder
	if first > 0 {
		b.WriteString(styles.HintStyle.Render("… "))
	}
	for i, md := range modes[first:last] {
		if i > 0 {
			b.WriteString(" ")
		}
		style := styles.TabInactiveStyle
		if md == active {
			style = styles.TabActiveStyle
		}
		b.WriteString(zone.Mark(tabZoneID(md), style.Render(md.Title())))
	}
	if last < len(modes) {
		b.WriteString(styles.HintStyle.Render(" …"))
	}
	return b.String()
}
