package batch

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"atlas-importer/internal/atlas"
	"atlas-importer/internal/config"
	"atlas-importer/internal/gltfexport"
	"atlas-importer/internal/importer"
	"atlas-importer/internal/raster"
	"atlas-importer/internal/scene"
	"atlas-importer/internal/scenedoc"
	"atlas-importer/internal/texture"
	"atlas-importer/internal/wavefront"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir     string
	Formats       []string
	ScaleFactor   float64
	Duplicates    atlas.DuplicatePolicy
	PreviewSize   int
	PreviewMargin int
	Supersample   int
	Workers       int
	Images        *texture.Cache
}

// Result holds the outcome of converting one manifest.
type Result struct {
	Name     string
	Manifest string
	Frames   int
	Outputs  []string
	Warnings []string
	Success  bool
	Error    string
}

// Run converts all jobs using a worker pool. Results keep job order.
func Run(cfg Config, jobs []config.Job) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Images == nil {
		cfg.Images = texture.NewCache()
	}

	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f atlases/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(cfg Config, job config.Job) Result {
	res := Result{Name: job.Name, Manifest: job.Manifest}

	targets, err := Targets(cfg, job.Name)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := importer.Run(importer.Options{
		ManifestPath: job.Manifest,
		ImagePath:    job.Image,
		ScaleFactor:  cfg.ScaleFactor,
		Duplicates:   cfg.Duplicates,
		Workers:      1, // jobs already run in parallel
		Images:       cfg.Images,
	}, targets...)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Frames = len(out.Descriptors)
	res.Warnings = out.Warnings
	// gltf and obj share the atlas PNG
	seen := make(map[string]bool)
	for _, t := range targets {
		o, ok := t.(scene.Outputs)
		if !ok {
			continue
		}
		for _, p := range o.Outputs() {
			if !seen[p] {
				seen[p] = true
				res.Outputs = append(res.Outputs, p)
			}
		}
	}
	res.Success = true
	return res
}

// Targets builds one scene target per format, writing under
// <OutputDir>/<name>/.
func Targets(cfg Config, name string) ([]scene.Target, error) {
	dir := filepath.Join(cfg.OutputDir, name)
	targets := make([]scene.Target, 0, len(cfg.Formats))
	for _, format := range cfg.Formats {
		base := filepath.Join(dir, name)
		switch format {
		case "gltf":
			targets = append(targets, gltfexport.New(base+".gltf"))
		case "obj":
			targets = append(targets, wavefront.New(base+".obj"))
		case "json":
			targets = append(targets, scenedoc.New(base+".scene.json"))
		case "webp", "png":
			targets = append(targets, raster.NewPreview(base+"_preview."+format, raster.PreviewConfig{
				Size:        cfg.PreviewSize,
				Supersample: cfg.Supersample,
				Margin:      cfg.PreviewMargin,
			}))
		default:
			return nil, fmt.Errorf("batch: unknown format %q", format)
		}
	}
	return targets, nil
}
