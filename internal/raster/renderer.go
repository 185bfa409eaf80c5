package raster

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"

	"atlas-importer/internal/postprocess"
	"atlas-importer/internal/scene"
	"atlas-importer/internal/texture"
)

// PreviewConfig controls the preview render.
type PreviewConfig struct {
	Size        int // longest side of the drawn planes in pixels
	Supersample int
	Margin      int // transparent border added around the planes, in pixels
}

// Preview is a scene.Target that renders the planes as seen from +Z with an
// orthographic camera and writes the picture on Finish. Planes are painted
// back to front by Z, so the image reproduces the composite the atlas was
// cut from.
type Preview struct {
	path    string
	cfg     PreviewConfig
	atlases []*texture.Atlas
	planes  []scene.Plane
}

// NewPreview returns a preview target writing to path. The extension picks
// the encoding: .webp or .png.
func NewPreview(path string, cfg PreviewConfig) *Preview {
	if cfg.Size <= 0 {
		cfg.Size = 512
	}
	if cfg.Supersample <= 0 {
		cfg.Supersample = 1
	}
	if cfg.Margin < 0 {
		cfg.Margin = 0
	}
	return &Preview{path: path, cfg: cfg}
}

func (p *Preview) CreateTexturedMaterial(img *texture.Atlas) (scene.MaterialRef, error) {
	if img == nil || img.Image == nil {
		return 0, fmt.Errorf("raster: material needs decoded pixels")
	}
	p.atlases = append(p.atlases, img)
	return scene.MaterialRef(len(p.atlases) - 1), nil
}

func (p *Preview) CreatePlane(pl scene.Plane) (scene.ObjectRef, error) {
	if int(pl.Material) < 0 || int(pl.Material) >= len(p.atlases) {
		return 0, fmt.Errorf("raster: unknown material %d", pl.Material)
	}
	p.planes = append(p.planes, pl)
	return scene.ObjectRef(len(p.planes) - 1), nil
}

// outputSize fits the XY extent into cfg.Size keeping the aspect ratio.
func (p *Preview) outputSize(spanX, spanY float64) (int, int) {
	size := p.cfg.Size
	if spanX >= spanY {
		return size, max(1, int(math.Round(float64(size)*spanY/spanX)))
	}
	return max(1, int(math.Round(float64(size)*spanX/spanY))), size
}

// Render draws every plane and returns the final, downsampled image.
func (p *Preview) Render() *image.NRGBA {
	m := p.cfg.Margin
	if len(p.planes) == 0 {
		side := p.cfg.Size + 2*m
		return image.NewNRGBA(image.Rect(0, 0, side, side))
	}

	// XY extent of all planes
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pl := range p.planes {
		for _, c := range pl.Corners() {
			v := c.Add(pl.Position)
			minX, maxX = math.Min(minX, v[0]), math.Max(maxX, v[0])
			minY, maxY = math.Min(minY, v[1]), math.Max(maxY, v[1])
		}
	}
	spanX := math.Max(maxX-minX, 1e-9)
	spanY := math.Max(maxY-minY, 1e-9)

	// The margin surrounds the fitted area, so the planes keep their
	// aspect ratio.
	fitW, fitH := p.outputSize(spanX, spanY)
	outW, outH := fitW+2*m, fitH+2*m
	ss := p.cfg.Supersample
	rw, rh := outW*ss, outH*ss
	margin := float64(m * ss)
	drawW, drawH := float64(fitW*ss), float64(fitH*ss)

	proj := mgl64.Ortho2D(minX, minX+spanX, minY, minY+spanY)
	toScreen := func(v mgl64.Vec3) (float64, float64) {
		ndc := proj.Mul4x1(mgl64.Vec4{v[0], v[1], 0, 1})
		return margin + (ndc[0]+1)/2*drawW, margin + (1-ndc[1])/2*drawH
	}

	// Painter's order: back to front, creation order among equal depths.
	order := make([]int, len(p.planes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.planes[order[a]].Position[2] < p.planes[order[b]].Position[2]
	})

	fb := NewFrameBuffer(rw, rh)
	for _, i := range order {
		pl := p.planes[i]
		var px, py [4]float64
		var uvs [4]mgl64.Vec2
		for k, c := range pl.Corners() {
			px[k], py[k] = toScreen(c.Add(pl.Position))
			uvs[k] = pl.UV.ForLoop(k)
		}
		RasterizeQuad(fb, px, py, uvs, p.atlases[pl.Material].Image)
	}

	img := image.NewNRGBA(image.Rect(0, 0, rw, rh))
	copy(img.Pix, fb.Color)
	if ss > 1 {
		img = postprocess.Downsample(img, outW, outH)
	}
	return img
}

// Finish renders and encodes the preview.
func (p *Preview) Finish() error {
	ext := strings.ToLower(filepath.Ext(p.path))
	if ext != ".webp" && ext != ".png" {
		return fmt.Errorf("raster: unsupported preview format %q", ext)
	}

	img := p.Render()

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("raster: %w", err)
	}
	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("raster: %w", err)
	}
	defer f.Close()

	switch ext {
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	case ".png":
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("raster: encode %s: %w", p.path, err)
	}
	return f.Close()
}

// Outputs lists the file written by Finish.
func (p *Preview) Outputs() []string {
	return []string{p.path}
}
