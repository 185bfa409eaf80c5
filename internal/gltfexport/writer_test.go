package gltfexport

import (
	"encoding/binary"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/unlit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas-importer/internal/geometry"
	"atlas-importer/internal/scene"
	"atlas-importer/internal/texture"
)

func testAtlas() *texture.Atlas {
	return &texture.Atlas{
		Path:       "sheet.png",
		Format:     "png",
		Dimensions: texture.Dimensions{Width: 100, Height: 100},
		Image:      image.NewNRGBA(image.Rect(0, 0, 100, 100)),
	}
}

// accessorBytes returns the raw bytes an accessor starts at.
func accessorBytes(t *testing.T, doc *gltf.Document, idx int) []byte {
	t.Helper()
	acc := doc.Accessors[idx]
	require.NotNil(t, acc.BufferView)
	view := doc.BufferViews[*acc.BufferView]
	data := doc.Buffers[view.Buffer].Data
	return data[view.ByteOffset+acc.ByteOffset:]
}

func TestWriterProducesDocument(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "scene.gltf")
	w := New(out)

	descs := []geometry.Descriptor{
		{
			Name:      "hero",
			PlaneSize: mgl64.Vec2{0.5, 0.5},
			UV:        geometry.UVQuad{{0, 0.5}, {0.5, 0.5}, {0.5, 1}, {0, 1}},
			Position:  mgl64.Vec3{0, 0, 0},
		},
		{
			Name:       "cape",
			StackIndex: 1,
			PlaneSize:  mgl64.Vec2{0.2, 0.4},
			UV:         geometry.UVQuad{{0.5, 0}, {0.7, 0}, {0.7, 0.4}, {0.5, 0.4}},
			Position:   mgl64.Vec3{0.1, -0.2, 0.01},
		},
	}
	refs, err := scene.Assemble(w, testAtlas(), descs)
	require.NoError(t, err)
	assert.Equal(t, []scene.ObjectRef{0, 1}, refs)

	assert.ElementsMatch(t, []string{
		out,
		filepath.Join(dir, "scene.bin"),
		filepath.Join(dir, "scene_atlas.png"),
	}, w.Outputs())

	doc, err := gltf.Open(out)
	require.NoError(t, err)

	assert.Equal(t, "2.0", doc.Asset.Version)
	assert.Equal(t, "atlas-importer", doc.Asset.Generator)
	require.Len(t, doc.Scenes, 1)
	assert.Equal(t, []int{0, 1}, doc.Scenes[0].Nodes)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "hero", doc.Nodes[0].Name)
	assert.Equal(t, "cape", doc.Nodes[1].Name)
	assert.Equal(t, [3]float64{0.1, -0.2, 0.01}, doc.Nodes[1].Translation)

	require.Len(t, doc.Materials, 1)
	assert.Equal(t, gltf.AlphaBlend, doc.Materials[0].AlphaMode)
	assert.True(t, doc.Materials[0].DoubleSided)
	assert.Contains(t, doc.Materials[0].Extensions, unlit.ExtensionName)
	assert.Equal(t, []string{unlit.ExtensionName}, doc.ExtensionsUsed)
	require.Len(t, doc.Images, 1)
	assert.Equal(t, "scene_atlas.png", doc.Images[0].URI)

	require.Len(t, doc.Buffers, 1)
	bin, err := os.ReadFile(filepath.Join(dir, "scene.bin"))
	require.NoError(t, err)
	assert.Equal(t, len(bin), doc.Buffers[0].ByteLength)

	// TEXCOORD_0 of the hero mesh, V flipped to the glTF convention.
	prim := doc.Meshes[0].Primitives[0]
	uvData := accessorBytes(t, doc, prim.Attributes["TEXCOORD_0"])
	readUV := func(i int) (float32, float32) {
		u := math.Float32frombits(binary.LittleEndian.Uint32(uvData[i*8:]))
		v := math.Float32frombits(binary.LittleEndian.Uint32(uvData[i*8+4:]))
		return u, v
	}
	u, v := readUV(0)
	assert.Equal(t, float32(0), u)
	assert.Equal(t, float32(0.5), v)
	u, v = readUV(2)
	assert.Equal(t, float32(0.5), u)
	assert.Equal(t, float32(0), v)

	posAcc := doc.Accessors[prim.Attributes["POSITION"]]
	assert.Equal(t, []float64{-0.25, -0.25, 0}, posAcc.Min)
	assert.Equal(t, []float64{0.25, 0.25, 0}, posAcc.Max)

	require.NotNil(t, prim.Indices)
	idx := accessorBytes(t, doc, *prim.Indices)
	for i, want := range quadIndices {
		assert.Equal(t, want, binary.LittleEndian.Uint16(idx[i*2:]))
	}
	require.NotNil(t, prim.Material)
	assert.Equal(t, 0, *prim.Material)
}

func TestWriterEmptySceneHasNoBuffer(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.gltf")
	w := New(out)
	_, err := scene.Assemble(w, testAtlas(), nil)
	require.NoError(t, err)

	doc, err := gltf.Open(out)
	require.NoError(t, err)
	assert.Empty(t, doc.Buffers)
	assert.NotContains(t, w.Outputs(), filepath.Join(filepath.Dir(out), "empty.bin"))
}

func TestWriterRejectsUnknownMaterial(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "x.gltf"))
	_, err := w.CreatePlane(scene.Plane{Name: "a"})
	assert.Error(t, err)
}

func TestWriterNeedsPixels(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "x.gltf"))
	_, err := w.CreateTexturedMaterial(&texture.Atlas{})
	assert.Error(t, err)
}
