// Package gltfexport writes planes as a glTF 2.0 scene: a .gltf document, a
// .bin buffer and the atlas re-encoded as PNG, all side by side.
package gltfexport

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/unlit"
	"github.com/qmuntal/gltf/modeler"

	"atlas-importer/internal/scene"
	"atlas-importer/internal/texture"
)

const generator = "atlas-importer"

// quadIndices splits a BL, BR, TR, TL quad into two counter-clockwise
// triangles.
var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

// Writer is a scene.Target producing glTF files on Finish.
type Writer struct {
	path    string
	base    string
	doc     *gltf.Document
	atlases []*texture.Atlas
	outputs []string
}

// New returns a writer for the .gltf file at path.
func New(path string) *Writer {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	doc := gltf.NewDocument()
	doc.Asset = gltf.Asset{Version: "2.0", Generator: generator}
	doc.Scenes = []*gltf.Scene{{Name: "Atlas"}}
	doc.Scene = gltf.Index(0)
	doc.Buffers = []*gltf.Buffer{{URI: url.PathEscape(filepath.Base(base + ".bin"))}}
	doc.Samplers = []*gltf.Sampler{{
		MagFilter: gltf.MagLinear,
		MinFilter: gltf.MinLinearMipMapLinear,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	}}
	return &Writer{path: path, base: base, doc: doc}
}

func (w *Writer) imagePath(i int) string {
	if i == 0 {
		return w.base + "_atlas.png"
	}
	return fmt.Sprintf("%s_atlas%d.png", w.base, i)
}

// CreateTexturedMaterial adds an unlit, alpha-blended, double-sided material.
func (w *Writer) CreateTexturedMaterial(img *texture.Atlas) (scene.MaterialRef, error) {
	if img == nil || img.Image == nil {
		return 0, fmt.Errorf("gltfexport: material needs decoded pixels")
	}
	idx := len(w.atlases)
	w.atlases = append(w.atlases, img)

	w.doc.Images = append(w.doc.Images, &gltf.Image{
		Name:     filepath.Base(img.Path),
		URI:      url.PathEscape(filepath.Base(w.imagePath(idx))),
		MimeType: "image/png",
	})
	w.doc.Textures = append(w.doc.Textures, &gltf.Texture{
		Sampler: gltf.Index(0),
		Source:  gltf.Index(len(w.doc.Images) - 1),
	})

	name := "AtlasMaterial"
	if idx > 0 {
		name = fmt.Sprintf("AtlasMaterial.%03d", idx)
	}
	w.doc.Materials = append(w.doc.Materials, &gltf.Material{
		Name: name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: len(w.doc.Textures) - 1},
			MetallicFactor:   gltf.Float(0),
			RoughnessFactor:  gltf.Float(1),
		},
		AlphaMode:   gltf.AlphaBlend,
		DoubleSided: true,
		Extensions:  gltf.Extensions{unlit.ExtensionName: unlit.Unlit{}},
	})
	if len(w.doc.ExtensionsUsed) == 0 {
		w.doc.ExtensionsUsed = []string{unlit.ExtensionName}
	}
	return scene.MaterialRef(len(w.doc.Materials) - 1), nil
}

// CreatePlane adds a mesh and a node translated to p.Position.
func (w *Writer) CreatePlane(p scene.Plane) (scene.ObjectRef, error) {
	if int(p.Material) < 0 || int(p.Material) >= len(w.doc.Materials) {
		return 0, fmt.Errorf("gltfexport: unknown material %d", p.Material)
	}

	var positions, normals [4][3]float32
	var uvs [4][2]float32
	for i, c := range p.Corners() {
		positions[i] = [3]float32{float32(c[0]), float32(c[1]), float32(c[2])}
		normals[i] = [3]float32{0, 0, 1}
		// glTF puts the texture origin at the top-left.
		uv := p.UV.ForLoop(i)
		uvs[i] = [2]float32{float32(uv[0]), float32(1 - uv[1])}
	}

	attrs := map[string]int{
		"POSITION":   modeler.WritePosition(w.doc, positions[:]),
		"NORMAL":     modeler.WriteNormal(w.doc, normals[:]),
		"TEXCOORD_0": modeler.WriteTextureCoord(w.doc, uvs[:]),
	}
	indices := modeler.WriteIndices(w.doc, quadIndices)

	w.doc.Meshes = append(w.doc.Meshes, &gltf.Mesh{
		Name: p.Name,
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    gltf.Index(indices),
			Material:   gltf.Index(int(p.Material)),
		}},
	})

	w.doc.Nodes = append(w.doc.Nodes, &gltf.Node{
		Name:        p.Name,
		Mesh:        gltf.Index(len(w.doc.Meshes) - 1),
		Translation: [3]float64{p.Position[0], p.Position[1], p.Position[2]},
	})
	nodeIdx := len(w.doc.Nodes) - 1
	w.doc.Scenes[0].Nodes = append(w.doc.Scenes[0].Nodes, nodeIdx)

	return scene.ObjectRef(nodeIdx), nil
}

// Finish writes the atlas PNGs, then the document and its binary buffer.
func (w *Writer) Finish() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("gltfexport: %w", err)
	}

	for i, a := range w.atlases {
		p := w.imagePath(i)
		if err := a.WritePNG(p); err != nil {
			return fmt.Errorf("gltfexport: %w", err)
		}
		w.outputs = append(w.outputs, p)
	}

	// An empty buffer is not valid glTF.
	hasData := len(w.doc.Buffers[0].Data) > 0
	if !hasData {
		w.doc.Buffers = nil
	}
	if err := gltf.Save(w.doc, w.path); err != nil {
		return fmt.Errorf("gltfexport: write %s: %w", w.path, err)
	}
	if hasData {
		w.outputs = append(w.outputs, w.base+".bin")
	}
	w.outputs = append(w.outputs, w.path)
	return nil
}

// Outputs lists the files written by Finish.
func (w *Writer) Outputs() []string {
	return w.outputs
}
