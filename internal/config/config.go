package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"atlas-importer/internal/atlas"
	"atlas-importer/internal/geometry"
)

// KnownFormats lists the output formats Validate accepts.
var KnownFormats = []string{"gltf", "obj", "json", "webp", "png"}

// Config holds all configurable paths and import settings.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir"`
	Manifest  string `json:"manifest"`
	Image     string `json:"image"`
	OutputDir string `json:"output_dir"`
	Jobs      []Job  `json:"jobs"`

	// Import settings
	Formats       []string `json:"formats"`
	ScaleFactor   float64  `json:"scale_factor"`
	Duplicates    string   `json:"duplicates"`
	PreviewSize   int      `json:"preview_size"`
	PreviewMargin int      `json:"preview_margin"`
	Supersample   int      `json:"supersample"`
	Workers       int      `json:"workers"`
}

// Job is one manifest to convert. Name defaults to the manifest file stem.
type Job struct {
	Manifest string `json:"manifest"`
	Image    string `json:"image,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.Manifest != "" {
		c.Manifest = flags.Manifest
		c.Jobs = nil
	}
	if flags.Image != "" {
		c.Image = flags.Image
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Formats != "" {
		c.Formats = splitList(flags.Formats)
	}
	if flags.ScaleFactor != 0 {
		c.ScaleFactor = flags.ScaleFactor
	}
	if flags.Duplicates != "" {
		c.Duplicates = flags.Duplicates
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	if flags.PreviewMargin > 0 {
		c.PreviewMargin = flags.PreviewMargin
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}

	// A single manifest is a batch of one
	if c.Manifest != "" && len(c.Jobs) == 0 {
		c.Jobs = []Job{{Manifest: c.Manifest, Image: c.Image}}
	}
	for i := range c.Jobs {
		j := &c.Jobs[i]
		j.Manifest = c.abs(j.Manifest)
		if j.Image != "" {
			j.Image = c.abs(j.Image)
		}
		if j.Name == "" {
			j.Name = strings.TrimSuffix(filepath.Base(j.Manifest), filepath.Ext(j.Manifest))
		}
	}

	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.BaseDir, "out")
	} else {
		c.OutputDir = c.abs(c.OutputDir)
	}

	// Defaults for import settings
	if len(c.Formats) == 0 {
		c.Formats = []string{"gltf"}
	}
	for i, f := range c.Formats {
		c.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	if c.ScaleFactor == 0 {
		c.ScaleFactor = geometry.DefaultScaleFactor
	}
	if c.Duplicates == "" {
		c.Duplicates = string(atlas.DuplicateWarn)
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings Resolve cannot repair.
func (c *Config) Validate() error {
	if len(c.Jobs) == 0 {
		return fmt.Errorf("config: no manifest given")
	}
	for _, f := range c.Formats {
		if !known(f) {
			return fmt.Errorf("config: unknown format %q (want %s)", f, strings.Join(KnownFormats, ", "))
		}
	}
	if c.ScaleFactor <= 0 || math.IsInf(c.ScaleFactor, 0) || math.IsNaN(c.ScaleFactor) {
		return fmt.Errorf("config: scale factor must be positive, got %g", c.ScaleFactor)
	}
	if c.PreviewMargin < 0 {
		return fmt.Errorf("config: preview margin must not be negative, got %d", c.PreviewMargin)
	}
	if _, err := atlas.ParsePolicy(c.Duplicates); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	seen := make(map[string]bool, len(c.Jobs))
	for _, j := range c.Jobs {
		if seen[j.Name] {
			return fmt.Errorf("config: two jobs write %q", j.Name)
		}
		seen[j.Name] = true
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir       string
	Manifest      string
	Image         string
	OutputDir     string
	Formats       string // comma separated
	ScaleFactor   float64
	Duplicates    string
	PreviewSize   int
	PreviewMargin int
	Workers       int
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func known(format string) bool {
	for _, k := range KnownFormats {
		if k == format {
			return true
		}
	}
	return false
}
