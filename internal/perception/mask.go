package perception

import "image"

// Mask is a binary obstacle mask in frame-local coordinates (origin 0,0)
type Mask struct {
	W, H int
	bits []bool
}

// Segment applies the analyzer's color predicate to every pixel
func (a *Analyzer) Segment(img image.Image) *Mask {
	b := img.Bounds()
	m := &Mask{W: b.Dx(), H: b.Dy(), bits: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			m.bits[y*m.W+x] = a.pred.Match(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return m
}

// At reports whether (x, y) is masked
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.bits[y*m.W+x]
}

// Count returns the number of masked pixels inside r
func (m *Mask) Count(r image.Rectangle) int {
	r = r.Intersect(image.Rect(0, 0, m.W, m.H))
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.bits[y*m.W : (y+1)*m.W]
		for x := r.Min.X; x < r.Max.X; x++ {
			if row[x] {
				n++
			}
		}
	}
	return n
}
