package geometry

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"atlas-importer/internal/atlas"
	"atlas-importer/internal/texture"
)

// DefaultScaleFactor converts atlas pixels to scene units.
const DefaultScaleFactor = 0.01

// Options controls MapManifest.
type Options struct {
	ScaleFactor float64 // 0 means DefaultScaleFactor
	Workers     int     // > 1 maps frames concurrently
}

// MapFrame derives the plane for one frame.
//
// The plane covers only the trimmed pixels, and its center is moved to where
// those pixels sat inside the untrimmed sprite. Pixel Y grows downward while
// scene Y and texture V grow upward, hence the flips.
func MapFrame(f atlas.Frame, img texture.Dimensions, scale float64, stackIndex int) Descriptor {
	r := f.Record
	x, y, w, h := r.Frame.X, r.Frame.Y, r.Frame.W, r.Frame.H
	sw, sh := r.SourceSize.W, r.SourceSize.H
	sx, sy := r.SpriteSourceSize.X, r.SpriteSourceSize.Y
	iw, ih := float64(img.Width), float64(img.Height)

	u0, u1 := x/iw, (x+w)/iw
	vBottom, vTop := 1-(y+h)/ih, 1-y/ih

	return Descriptor{
		Name:       f.Name,
		StackIndex: stackIndex,
		PlaneSize:  mgl64.Vec2{w * scale, h * scale},
		UV: UVQuad{
			{u0, vBottom},
			{u1, vBottom},
			{u1, vTop},
			{u0, vTop},
		},
		Position: mgl64.Vec3{
			(sx + w/2 - sw/2) * scale,
			-(sy + h/2 - sh/2) * scale,
			float64(stackIndex) * scale,
		},
	}
}

// MapManifest maps every frame in manifest order. Stack indices follow that
// order whether or not the work is spread over goroutines.
func MapManifest(m *atlas.Manifest, img texture.Dimensions, opts Options) []Descriptor {
	scale := opts.ScaleFactor
	if scale == 0 {
		scale = DefaultScaleFactor
	}

	out := make([]Descriptor, len(m.Frames))
	if opts.Workers <= 1 || len(m.Frames) < 2 {
		for i, f := range m.Frames {
			out[i] = MapFrame(f, img, scale, i)
		}
		return out
	}

	workers := opts.Workers
	if workers > len(m.Frames) {
		workers = len(m.Frames)
	}

	frameChan := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range frameChan {
				out[idx] = MapFrame(m.Frames[idx], img, scale, idx)
			}
		}()
	}
	for i := range m.Frames {
		frameChan <- i
	}
	close(frameChan)
	wg.Wait()

	return out
}
