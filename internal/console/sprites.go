package console

import (
	"strconv"
	"strings"
)

// Sprites are 8x8 cells of 4-bit colour indices, 16 per sheet row.
const (
	SpriteSize  = 8
	spritesRow  = 16
	spriteCount = 512
)

// Sheet holds decoded sprite pixels indexed by sprite id.
type Sheet struct {
	cells map[int]*[SpriteSize * SpriteSize]uint8
}

// NewSheet decodes hex data as lifted from a cartridge: one hex digit per
// pixel, row-major. Short or malformed entries decode what they can.
func NewSheet(data map[int]string) *Sheet {
	sh := &Sheet{cells: make(map[int]*[SpriteSize * SpriteSize]uint8, len(data))}
	for id, hex := range data {
		if id < 0 || id >= spriteCount {
			continue
		}
		var cell [SpriteSize * SpriteSize]uint8
		for i, ch := range strings.TrimSpace(hex) {
			if i >= len(cell) {
				break
			}
			v, err := strconv.ParseUint(string(ch), 16, 8)
			if err != nil {
				continue
			}
			cell[i] = uint8(v)
		}
		sh.cells[id] = &cell
	}
	return sh
}

// Len reports how many sprites are defined.
func (sh *Sheet) Len() int { return len(sh.cells) }

func (sh *Sheet) pixel(id, x, y int) uint8 {
	cell, ok := sh.cells[id]
	if !ok {
		return 0
	}
	return cell[y*SpriteSize+x]
}

// SpriteOpts mirrors the optional arguments of spr().
type SpriteOpts struct {
	ColorKey int // -1 draws every pixel
	Scale    int
	Flip     int // bit 0 horizontal, bit 1 vertical
	Rotate   int // quarter turns clockwise
	W, H     int // size in cells
}

// Sprite draws a W x H block of cells starting at id; cell (i, j) is
// id + i + j*16.
func (s *Screen) Sprite(sh *Sheet, id, x, y int, o SpriteOpts) {
	x, y = clampCoord(x), clampCoord(y)
	o.Scale = min(max(o.Scale, 1), Width)
	o.W, o.H = min(max(1, o.W), spritesRow), min(max(1, o.H), spritesRow)
	pw, ph := o.W*SpriteSize, o.H*SpriteSize
	for sy := 0; sy < ph; sy++ {
		for sx := 0; sx < pw; sx++ {
			cell := id + sx/SpriteSize + (sy/SpriteSize)*spritesRow
			c := int(sh.pixel(cell, sx%SpriteSize, sy%SpriteSize))
			if c == o.ColorKey {
				continue
			}
			dx, dy := sx, sy
			if o.Flip&1 != 0 {
				dx = pw - 1 - dx
			}
			if o.Flip&2 != 0 {
				dy = ph - 1 - dy
			}
			w, h := pw, ph
			for r := 0; r < ((o.Rotate%4)+4)%4; r++ {
				dx, dy = h-1-dy, dx
				w, h = h, w
			}
			px, py := x+dx*o.Scale, y+dy*o.Scale
			if px >= Width || py >= Height || px+o.Scale <= 0 || py+o.Scale <= 0 {
				continue
			}
			s.Rect(px, py, o.Scale, o.Scale, c)
		}
	}
}
