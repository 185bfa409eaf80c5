package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// quadTris splits a quad into two triangles sharing the 0-2 diagonal.
var quadTris = [2][3]int{{0, 1, 2}, {0, 2, 3}}

// RasterizeQuad fills a textured quad given in screen space, compositing
// over what is already in fb. Each pixel is covered at most once, so the
// shared diagonal is not blended twice.
//
// This is the HOT PATH; no allocations in the pixel loop.
func RasterizeQuad(fb *FrameBuffer, px, py [4]float64, uvs [4]mgl64.Vec2, tex *image.NRGBA) {
	minX := int(math.Floor(min(px[0], px[1], px[2], px[3])))
	maxX := int(math.Ceil(max(px[0], px[1], px[2], px[3])))
	minY := int(math.Floor(min(py[0], py[1], py[2], py[3])))
	maxY := int(math.Ceil(max(py[0], py[1], py[2], py[3])))

	if minX < 0 {
		minX = 0
	}
	if maxX > fb.Width-1 {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > fb.Height-1 {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup per triangle
	var setups [2]triSetup
	valid := false
	for t, tri := range quadTris {
		setups[t] = newTriSetup(px, py, tri)
		valid = valid || setups[t].ok
	}
	if !valid {
		return
	}

	for sy := minY; sy <= maxY; sy++ {
		cy := float64(sy) + 0.5
		for sx := minX; sx <= maxX; sx++ {
			cx := float64(sx) + 0.5
			for t := range setups {
				s := &setups[t]
				if !s.ok {
					continue
				}
				w0, w1, w2, inside := s.weights(cx, cy)
				if !inside {
					continue
				}
				tri := quadTris[t]
				u := w0*uvs[tri[0]][0] + w1*uvs[tri[1]][0] + w2*uvs[tri[2]][0]
				v := w0*uvs[tri[0]][1] + w1*uvs[tri[1]][1] + w2*uvs[tri[2]][1]
				r, g, b, a := SampleTexture(tex, u, v)
				fb.BlendOver(sx, sy, r, g, b, a)
				break
			}
		}
	}
}

type triSetup struct {
	ok     bool
	x2, y2 float64
	dy12   float64
	dx21   float64
	dy20   float64
	dx02   float64
	invDet float64
}

func newTriSetup(px, py [4]float64, tri [3]int) triSetup {
	x0, y0 := px[tri[0]], py[tri[0]]
	x1, y1 := px[tri[1]], py[tri[1]]
	x2, y2 := px[tri[2]], py[tri[2]]

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return triSetup{}
	}
	return triSetup{
		ok:     true,
		x2:     x2,
		y2:     y2,
		dy12:   y1 - y2,
		dx21:   x2 - x1,
		dy20:   y2 - y0,
		dx02:   x0 - x2,
		invDet: 1.0 / det,
	}
}

func (s *triSetup) weights(x, y float64) (w0, w1, w2 float64, inside bool) {
	dsx := x - s.x2
	dsy := y - s.y2
	w0 = (s.dy12*dsx + s.dx21*dsy) * s.invDet
	w1 = (s.dy20*dsx + s.dx02*dsy) * s.invDet
	w2 = 1.0 - w0 - w1
	inside = w0 >= -1e-9 && w1 >= -1e-9 && w2 >= -1e-9
	return
}
