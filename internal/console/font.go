package console

import (
	"strings"
	"unicode"
)

// Glyph cell of the built-in font. Lowercase letters draw as uppercase.
const (
	glyphW   = 3
	glyphH   = 5
	advanceX = glyphW + 1
	advanceY = glyphH + 1
)

var glyphSrc = map[rune]string{
	'0': "### #.# #.# #.# ###", '1': ".#. ##. .#. .#. ###", '2': "### ..# ### #.. ###",
	'3': "### ..# .## ..# ###", '4': "#.# #.# ### ..# ..#", '5': "### #.. ### ..# ###",
	'6': "### #.. ### #.# ###", '7': "### ..# ..# .#. .#.", '8': "### #.# ### #.# ###",
	'9': "### #.# ### ..# ###",
	'A': ".#. #.# ### #.# #.#", 'B': "##. #.# ##. #.# ##.", 'C': ".## #.. #.. #.. .##",
	'D': "##. #.# #.# #.# ##.", 'E': "### #.. ##. #.. ###", 'F': "### #.. ##. #.. #..",
	'G': ".## #.. #.# #.# .##", 'H': "#.# #.# ### #.# #.#", 'I': "### .#. .#. .#. ###",
	'J': "..# ..# ..# #.# .#.", 'K': "#.# #.# ##. #.# #.#", 'L': "#.. #.. #.. #.. ###",
	'M': "#.# ### ### #.# #.#", 'N': "##. #.# #.# #.# #.#", 'O': ".#. #.# #.# #.# .#.",
	'P': "##. #.# ##. #.. #..", 'Q': ".#. #.# #.# ##. .##", 'R': "##. #.# ##. #.# #.#",
	'S': ".## #.. .#. ..# ##.", 'T': "### .#. .#. .#. .#.", 'U': "#.# #.# #.# #.# ###",
	'V': "#.# #.# #.# #.# .#.", 'W': "#.# #.# ### ### #.#", 'X': "#.# #.# .#. #.# #.#",
	'Y': "#.# #.# .#. .#. .#.", 'Z': "### ..# .#. #.. ###",
	' ': "... ... ... ... ...", '!': ".#. .#. .#. ... .#.", '.': "... ... ... ... .#.",
	',': "... ... ... .#. #..", ':': "... .#. ... .#. ...", ';': "... .#. ... .#. #..",
	'-': "... ... ### ... ...", '+': "... .#. ### .#. ...", '=': "... ### ... ### ...",
	'?': "##. ..# .#. ... .#.", '/': "..# ..# .#. #.. #..", '(': ".#. #.. #.. #.. .#.",
	')': ".#. ..# ..# ..# .#.", '\'': ".#. .#. ... ... ...", '"': "#.# #.# ... ... ...",
	'*': "... #.# .#. #.# ...", '<': "..# .#. #.. .#. ..#", '>': "#.. .#. ..# .#. #..",
	'_': "... ... ... ... ###", '#': "#.# ### #.# ### #.#", '%': "#.. ..# .#. #.. ..#",
	'[': "##. #.. #.. #.. ##.", ']': ".## ..# ..# ..# .##",
}

var glyphs = buildGlyphs()

func buildGlyphs() map[rune][glyphH]uint8 {
	out := make(map[rune][glyphH]uint8, len(glyphSrc))
	for r, src := range glyphSrc {
		var g [glyphH]uint8
		for row, bits := range strings.Fields(src) {
			for col, b := range bits {
				if b == '#' {
					g[row] |= 1 << (glyphW - 1 - col)
				}
			}
		}
		out[r] = g
	}
	return out
}

func glyph(r rune) [glyphH]uint8 {
	if g, ok := glyphs[unicode.ToUpper(r)]; ok {
		return g
	}
	return glyphs['?']
}

// Print draws text at (x, y) and returns the width of the widest line in
// pixels. A newline starts a new line at x.
func (s *Screen) Print(text string, x, y, c, scale int) int {
	scale = min(max(scale, 1), Width)
	cx, cy, widest := x, y, 0
	for _, r := range text {
		if r == '\n' {
			widest = max(widest, cx-x)
			cx = x
			cy += advanceY * scale
			continue
		}
		g := glyph(r)
		for row := 0; row < glyphH; row++ {
			for col := 0; col < glyphW; col++ {
				if g[row]&(1<<(glyphW-1-col)) != 0 {
					s.Rect(cx+col*scale, cy+row*scale, scale, scale, c)
				}
			}
		}
		cx += advanceX * scale
	}
	return max(widest, cx-x)
}
