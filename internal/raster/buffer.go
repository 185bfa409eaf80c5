package raster

// FrameBuffer holds the rendering target as a flat slice for cache locality.
// Color is straight (non-premultiplied) RGBA, starting fully transparent.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8 // RGBA interleaved, len = W*H*4
}

// NewFrameBuffer allocates a transparent color buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
	}
}

// BlendOver composites a straight-alpha color over the pixel at (x, y).
func (fb *FrameBuffer) BlendOver(x, y int, r, g, b, a uint8) {
	if a == 0 {
		return
	}
	i := (y*fb.Width + x) * 4
	if a == 255 {
		fb.Color[i] = r
		fb.Color[i+1] = g
		fb.Color[i+2] = b
		fb.Color[i+3] = 255
		return
	}

	sa := float64(a) / 255
	da := float64(fb.Color[i+3]) / 255 * (1 - sa)
	oa := sa + da
	fb.Color[i] = clamp255((float64(r)*sa + float64(fb.Color[i])*da) / oa)
	fb.Color[i+1] = clamp255((float64(g)*sa + float64(fb.Color[i+1])*da) / oa)
	fb.Color[i+2] = clamp255((float64(b)*sa + float64(fb.Color[i+2])*da) / oa)
	fb.Color[i+3] = clamp255(oa * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
