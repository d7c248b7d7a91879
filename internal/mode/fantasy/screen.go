package fantasy

import (
	"strings"

	"github.com/muesli/termenv"

	"github.com/zjrosen/canvas/internal/console"
)

// shades stands in for colour on terminals without any.
var shades = []rune(" ░▒▓█")

// Step is the pixel sampling step that fits the raster into cols×rows
// cells, two pixel rows per cell. It is never below minStep.
func Step(cols, rows, minStep int) int {
	step := max(minStep, 1)
	for console.Width/step > cols || console.Height/step > rows*2 {
		step++
	}
	return step
}

// RenderScreen draws the raster with upper half blocks, sampling every
// step-th pixel. The foreground is the upper pixel and the background the
// lower. Runs of equal colours share one escape sequence.
func RenderScreen(pix []uint8, step int, profile termenv.Profile) string {
	if len(pix) < console.Width*console.Height {
		return ""
	}
	step = max(step, 1)
	cols := console.Width / step
	rows := (console.Height/step + 1) / 2

	var colours [console.PaletteSize]termenv.Color
	for i, c := range console.Sweetie16 {
		colours[i] = profile.Color(c.Hex())
	}
	at := func(x, y int) uint8 {
		if y >= console.Height {
			return 0
		}
		return pix[y*console.Width+x] % console.PaletteSize
	}

	var b strings.Builder
	b.Grow(rows * cols * 4)
	for r := range rows {
		if r > 0 {
			b.WriteByte('\n')
		}
		top, bottom := -1, -1
		for c := range cols {
			x := c * step
			t := at(x, 2*r*step)
			u := at(x, (2*r+1)*step)
			if profile == termenv.Ascii {
				b.WriteRune(shade(t, u))
				continue
			}
			if int(t) != top || int(u) != bottom {
				top, bottom = int(t), int(u)
				b.WriteString(termenv.CSI + colours[t].Sequence(false) + ";" + colours[u].Sequence(true) + "m")
			}
			b.WriteRune('▀')
		}
		if profile != termenv.Ascii {
			b.WriteString(termenv.CSI + termenv.ResetSeq + "m")
		}
	}
	return b.String()
}

// shade maps the mean luminance of two palette entries to a block.
func shade(a, b uint8) rune {
	lum := func(i uint8) int {
		c := console.Sweetie16[i]
		return (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
	}
	l := (lum(a) + lum(b)) / 2
	return shades[min(l*len(shades)/256, len(shades)-1)]
}
