package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"atlas-importer/internal/atlas"
	"atlas-importer/internal/batch"
	"atlas-importer/internal/config"
	"atlas-importer/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	baseDir := flag.String("base", "", "Directory relative paths resolve against (default: cwd)")
	manifest := flag.String("manifest", "", "Atlas manifest JSON (overrides config jobs)")
	image := flag.String("image", "", "Atlas image (default: meta.image, then next to the manifest)")
	outputDir := flag.String("output", "", "Output directory (default: <base>/out)")
	formats := flag.String("formats", "", "Comma separated outputs: gltf,obj,json,webp,png (default: gltf)")
	scale := flag.Float64("scale", 0, "Scene units per pixel (default: 0.01)")
	duplicates := flag.String("duplicates", "", "Repeated frame names: warn or fail (default: warn)")
	previewSize := flag.Int("preview-size", 0, "Longest preview side in pixels (default: 512)")
	previewMargin := flag.Int("preview-margin", 0, "Transparent border around the preview in pixels")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cfg.BaseDir == "" {
			cfg.BaseDir = filepath.Dir(*configFile)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		BaseDir:       *baseDir,
		Manifest:      *manifest,
		Image:         *image,
		OutputDir:     *outputDir,
		Formats:       *formats,
		ScaleFactor:   *scale,
		Duplicates:    *duplicates,
		PreviewSize:   *previewSize,
		PreviewMargin: *previewMargin,
		Workers:       *workers,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v. Use -manifest or -config.\n", err)
		os.Exit(1)
	}
	policy, _ := atlas.ParsePolicy(cfg.Duplicates)

	// Print summary
	fmt.Println("Texture atlas → stacked planes")
	fmt.Printf("Atlases: %d, Workers: %d, Formats: %s\n", len(cfg.Jobs), cfg.Workers, strings.Join(cfg.Formats, ","))
	fmt.Printf("Scale: %g units/px\n", cfg.ScaleFactor)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	// Run batch
	images := texture.NewCache()
	batchCfg := batch.Config{
		OutputDir:     cfg.OutputDir,
		Formats:       cfg.Formats,
		ScaleFactor:   cfg.ScaleFactor,
		Duplicates:    policy,
		PreviewSize:   cfg.PreviewSize,
		PreviewMargin: cfg.PreviewMargin,
		Supersample:   cfg.Supersample,
		Workers:       cfg.Workers,
		Images:        images,
	}

	results := batch.Run(batchCfg, cfg.Jobs)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed, frames := 0, 0, 0
	var errors []batch.Result
	for _, r := range results {
		for _, w := range r.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", r.Name, w)
		}
		if r.Success {
			success++
			frames += r.Frames
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Imported: %d/%d (%d planes, %d atlas images)\n", success, len(results), frames, images.Len())

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write index
	indexPath := filepath.Join(cfg.OutputDir, "index.json")
	if err := batch.WriteIndex(indexPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: index write failed: %v\n", err)
	} else {
		fmt.Printf("Index: %s\n", indexPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
