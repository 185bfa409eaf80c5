package main

import (
	"flag"
	"fmt"
	"os"

	"atlas-importer/internal/atlas"
	"atlas-importer/internal/importer"
	"atlas-importer/internal/scene"
)

func main() {
	image := flag.String("image", "", "Atlas image (default: meta.image, then next to the manifest)")
	scale := flag.Float64("scale", 0, "Scene units per pixel (default: 0.01)")
	uv := flag.Bool("uv", false, "Print the four UV corners of every plane")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: atlasinspect [flags] <manifest.json>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	rec := &scene.Recorder{}
	res, err := importer.Run(importer.Options{
		ManifestPath: path,
		ImagePath:    *image,
		ScaleFactor:  *scale,
		Duplicates:   atlas.DuplicateWarn,
	}, rec)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	m := res.Manifest
	fmt.Printf("Image: %s (%dx%d %s)\n", res.Image.Path, res.Image.Width, res.Image.Height, res.Image.Format)
	if m.Meta.App != "" {
		fmt.Printf("Packer: %s %s\n", m.Meta.App, m.Meta.Version)
	}
	fmt.Printf("Frames: %d\n", m.Len())
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}

	for i, p := range rec.Planes {
		r := m.Frames[i].Record
		fmt.Printf("  [%d] %q\n", i, p.Name)
		fmt.Printf("    Frame: %gx%g at (%g, %g), source %gx%g, offset (%g, %g)\n",
			r.Frame.W, r.Frame.H, r.Frame.X, r.Frame.Y,
			r.SourceSize.W, r.SourceSize.H, r.SpriteSourceSize.X, r.SpriteSourceSize.Y)
		fmt.Printf("    Plane: %.4f x %.4f at (%.4f, %.4f, %.4f)\n",
			p.Size[0], p.Size[1], p.Position[0], p.Position[1], p.Position[2])
		if *uv {
			for k, c := range p.UV {
				fmt.Printf("    UV[%d]: (%.4f, %.4f)\n", k, c[0], c[1])
			}
		}
	}
}
