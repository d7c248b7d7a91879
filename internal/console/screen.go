package console

// Raster size in logical pixels.
const (
	Width  = 240
	Height = 136
)

// Screen is an indexed-colour raster. Every write is clipped and the colour
// is reduced modulo the palette size.
type Screen struct {
	Pix [Width * Height]uint8
}

func (s *Screen) Clear(c int) {
	v := colour(c)
	for i := range s.Pix {
		s.Pix[i] = v
	}
}

func (s *Screen) Set(x, y, c int) {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return
	}
	s.Pix[y*Width+x] = colour(c)
}

// At returns the colour at (x, y), or 0 outside the raster.
func (s *Screen) At(x, y int) int {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return 0
	}
	return int(s.Pix[y*Width+x])
}

// coordLimit bounds every coordinate and size before drawing, so products
// of two coordinates stay well inside int.
const coordLimit = 1 << 20

func clampCoord(v int) int { return min(max(v, -coordLimit), coordLimit) }

// span clips the half-open range [from, from+n) to [0, limit).
func span(from, n, limit int) (int, int) {
	return max(from, 0), min(from+n, limit)
}

// Line draws with Bresenham's algorithm, both endpoints included. A line
// whose bounding box misses the raster draws nothing; otherwise the walk
// ends once it has left the raster for good.
func (s *Screen) Line(x0, y0, x1, y1, c int) {
	x0, y0, x1, y1 = clampCoord(x0), clampCoord(y0), clampCoord(x1), clampCoord(y1)
	if max(x0, x1) < 0 || max(y0, y1) < 0 || min(x0, x1) >= Width || min(y0, y1) >= Height {
		return
	}
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	entered := false
	for {
		inside := x0 >= 0 && y0 >= 0 && x0 < Width && y0 < Height
		if inside {
			s.Pix[y0*Width+x0] = colour(c)
			entered = true
		} else if entered {
			return
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (s *Screen) Rect(x, y, w, h, c int) {
	x0, x1 := span(clampCoord(x), clampCoord(w), Width)
	y0, y1 := span(clampCoord(y), clampCoord(h), Height)
	v := colour(c)
	for j := y0; j < y1; j++ {
		for i := x0; i < x1; i++ {
			s.Pix[j*Width+i] = v
		}
	}
}

func (s *Screen) RectB(x, y, w, h, c int) {
	x, y, w, h = clampCoord(x), clampCoord(y), clampCoord(w), clampCoord(h)
	if w <= 0 || h <= 0 {
		return
	}
	x0, x1 := span(x, w, Width)
	for i := x0; i < x1; i++ {
		s.Set(i, y, c)
		s.Set(i, y+h-1, c)
	}
	y0, y1 := span(y, h, Height)
	for j := y0; j < y1; j++ {
		s.Set(x, j, c)
		s.Set(x+w-1, j, c)
	}
}

func (s *Screen) Circ(cx, cy, r, c int) {
	cx, cy, r = clampCoord(cx), clampCoord(cy), clampCoord(r)
	if r < 0 {
		return
	}
	x0, x1 := span(cx-r, 2*r+1, Width)
	y0, y1 := span(cy-r, 2*r+1, Height)
	v := colour(c)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if dx, dy := x-cx, y-cy; dx*dx+dy*dy <= r*r {
				s.Pix[y*Width+x] = v
			}
		}
	}
}

// CircB draws the outline with the midpoint algorithm. Outlines that miss
// the raster, or enclose all of it, draw nothing.
func (s *Screen) CircB(cx, cy, r, c int) {
	cx, cy, r = clampCoord(cx), clampCoord(cy), clampCoord(r)
	if r < 0 {
		return
	}
	if cx+r < 0 || cy+r < 0 || cx-r >= Width || cy-r >= Height {
		return
	}
	if encloses(cx, cy, r-1) {
		return
	}
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			s.Set(cx+p[0], cy+p[1], c)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// encloses reports whether every raster corner lies strictly within r of
// (cx, cy).
func encloses(cx, cy, r int) bool {
	if r <= 0 {
		return false
	}
	for _, p := range [][2]int{{0, 0}, {Width - 1, 0}, {0, Height - 1}, {Width - 1, Height - 1}} {
		dx, dy := p[0]-cx, p[1]-cy
		if dx*dx+dy*dy >= r*r {
			return false
		}
	}
	return true
}

func colour(c int) uint8 { return uint8(((c % PaletteSize) + PaletteSize) % PaletteSize) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
