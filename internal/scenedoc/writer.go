// Package scenedoc writes planes as a JSON scene description. Objects are
// keyed by name and keep their creation (stacking) order.
package scenedoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iancoleman/orderedmap"

	"atlas-importer/internal/scene"
	"atlas-importer/internal/texture"
)

// Document is the file layout.
type Document struct {
	Generator string                 `json:"generator"`
	Materials []Material             `json:"materials"`
	Objects   *orderedmap.OrderedMap `json:"objects"`
}

// Material describes an alpha-blended, unlit material.
type Material struct {
	Name   string `json:"name"`
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Blend  string `json:"blend"`
	Unlit  bool   `json:"unlit"`
}

// Object is one plane.
type Object struct {
	Stack    int           `json:"stack"`
	Material int           `json:"material"`
	Size     [2]float64    `json:"size"`
	Position [3]float64    `json:"position"`
	UV       [4][2]float64 `json:"uv"`
}

// Writer is a scene.Target producing a single JSON file on Finish.
type Writer struct {
	path  string
	doc   Document
	count int
}

// New returns a writer for the JSON file at path.
func New(path string) *Writer {
	objects := orderedmap.New()
	objects.SetEscapeHTML(false)
	return &Writer{
		path: path,
		doc: Document{
			Generator: "atlas-importer",
			Objects:   objects,
		},
	}
}

func (w *Writer) CreateTexturedMaterial(img *texture.Atlas) (scene.MaterialRef, error) {
	if img == nil {
		return 0, fmt.Errorf("scenedoc: nil atlas")
	}
	w.doc.Materials = append(w.doc.Materials, Material{
		Name:   "AtlasMaterial",
		Image:  img.Path,
		Width:  img.Width,
		Height: img.Height,
		Blend:  "alpha",
		Unlit:  true,
	})
	return scene.MaterialRef(len(w.doc.Materials) - 1), nil
}

// CreatePlane adds an object. A repeated name replaces the earlier object
// in place.
func (w *Writer) CreatePlane(p scene.Plane) (scene.ObjectRef, error) {
	if int(p.Material) < 0 || int(p.Material) >= len(w.doc.Materials) {
		return 0, fmt.Errorf("scenedoc: unknown material %d", p.Material)
	}
	obj := Object{
		Stack:    w.count,
		Material: int(p.Material),
		Size:     [2]float64{p.Size[0], p.Size[1]},
		Position: [3]float64{p.Position[0], p.Position[1], p.Position[2]},
	}
	for i := range obj.UV {
		uv := p.UV.ForLoop(i)
		obj.UV[i] = [2]float64{uv[0], uv[1]}
	}
	w.doc.Objects.Set(p.Name, obj)
	w.count++
	return scene.ObjectRef(w.count - 1), nil
}

// Finish writes the document.
func (w *Writer) Finish() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w.doc); err != nil {
		return fmt.Errorf("scenedoc: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("scenedoc: %w", err)
	}
	if err := os.WriteFile(w.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("scenedoc: write %s: %w", w.path, err)
	}
	return nil
}

// Outputs lists the file written by Finish.
func (w *Writer) Outputs() []string {
	return []string{w.path}
}
