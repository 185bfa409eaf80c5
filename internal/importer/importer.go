// Package importer runs one atlas conversion: parse the manifest, load the
// atlas image, map every frame and hand the planes to each scene target.
package importer

import (
	"fmt"
	"math"

	"atlas-importer/internal/atlas"
	"atlas-importer/internal/geometry"
	"atlas-importer/internal/scene"
	"atlas-importer/internal/texture"
)

// ImageLoader loads atlas images. *texture.Cache satisfies it.
type ImageLoader interface {
	Load(path string) (*texture.Atlas, error)
}

type loaderFunc func(string) (*texture.Atlas, error)

func (f loaderFunc) Load(path string) (*texture.Atlas, error) { return f(path) }

// Options describes one conversion.
type Options struct {
	ManifestPath string
	ImagePath    string  // empty: meta.image, then a file next to the manifest
	ScaleFactor  float64 // 0 means geometry.DefaultScaleFactor
	Duplicates   atlas.DuplicatePolicy
	Workers      int
	Images       ImageLoader // nil: decode directly
}

// Result is what a successful conversion produced.
type Result struct {
	Manifest    *atlas.Manifest
	Image       *texture.Atlas
	Descriptors []geometry.Descriptor
	Warnings    []string
}

// Run converts the atlas and assembles it into every target in order.
// Manifest and image errors are reported before any target sees a call.
func Run(opts Options, targets ...scene.Target) (*Result, error) {
	if s := opts.ScaleFactor; s < 0 || math.IsInf(s, 0) || math.IsNaN(s) {
		return nil, fmt.Errorf("importer: scale factor must be positive, got %g", s)
	}

	policy := opts.Duplicates
	if policy == "" {
		policy = atlas.DuplicateWarn
	}

	m, err := atlas.ParseFile(opts.ManifestPath)
	if err != nil {
		return nil, err
	}
	if err := m.CheckDuplicates(policy); err != nil {
		return nil, err
	}

	imagePath := opts.ImagePath
	if imagePath == "" {
		imagePath, err = texture.ResolveImage(opts.ManifestPath, m.Meta.Image)
		if err != nil {
			return nil, err
		}
	}

	loader := opts.Images
	if loader == nil {
		loader = loaderFunc(texture.Load)
	}
	img, err := loader.Load(imagePath)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Manifest: m,
		Image:    img,
		Warnings: warnings(m, img),
	}
	res.Descriptors = geometry.MapManifest(m, img.Dimensions, geometry.Options{
		ScaleFactor: opts.ScaleFactor,
		Workers:     opts.Workers,
	})

	for _, t := range targets {
		if _, err := scene.Assemble(t, img, res.Descriptors); err != nil {
			return nil, fmt.Errorf("importer: %s: %w", opts.ManifestPath, err)
		}
	}
	return res, nil
}

func warnings(m *atlas.Manifest, img *texture.Atlas) []string {
	out := append([]string(nil), m.Warnings...)
	for _, name := range m.Duplicates {
		out = append(out, fmt.Sprintf("duplicate frame %q: later entry replaces the earlier one", name))
	}
	for _, name := range m.Rotated() {
		out = append(out, fmt.Sprintf("frame %q is stored rotated; mapped as unrotated", name))
	}
	if s := m.Meta.Size; s != nil && (int(s.W) != img.Width || int(s.H) != img.Height) {
		out = append(out, fmt.Sprintf("meta.size %gx%g does not match image %dx%d", s.W, s.H, img.Width, img.Height))
	}
	return out
}
