package scenedoc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/iancoleman/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas-importer/internal/geometry"
	"atlas-importer/internal/scene"
	"atlas-importer/internal/texture"
)

func TestWriterKeepsStackOrder(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scene.json")
	w := New(out)

	img := &texture.Atlas{Path: "sheet.png", Dimensions: texture.Dimensions{Width: 100, Height: 100}}
	descs := []geometry.Descriptor{
		{Name: "zz-background", PlaneSize: mgl64.Vec2{1, 1}},
		{
			Name:       "aa-<foreground>",
			StackIndex: 1,
			PlaneSize:  mgl64.Vec2{0.5, 0.5},
			UV:         geometry.UVQuad{{0, 0.5}, {0.5, 0.5}, {0.5, 1}, {0, 1}},
			Position:   mgl64.Vec3{0.1, 0.2, 0.01},
		},
	}
	_, err := scene.Assemble(w, img, descs)
	require.NoError(t, err)
	assert.Equal(t, []string{out}, w.Outputs())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"aa-<foreground>"`)

	var doc struct {
		Generator string                 `json:"generator"`
		Materials []Material             `json:"materials"`
		Objects   *orderedmap.OrderedMap `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Objects)
	assert.Equal(t, []string{"zz-background", "aa-<foreground>"}, doc.Objects.Keys())

	require.Len(t, doc.Materials, 1)
	assert.Equal(t, "sheet.png", doc.Materials[0].Image)
	assert.Equal(t, "alpha", doc.Materials[0].Blend)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &top))
	var objects map[string]Object
	require.NoError(t, json.Unmarshal(top["objects"], &objects))

	fg := objects["aa-<foreground>"]
	assert.Equal(t, 1, fg.Stack)
	assert.Equal(t, [3]float64{0.1, 0.2, 0.01}, fg.Position)
	assert.Equal(t, [2]float64{0.5, 1}, fg.UV[2])
}

func TestWriterRejectsUnknownMaterial(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "x.json"))
	_, err := w.CreatePlane(scene.Plane{Name: "a"})
	assert.Error(t, err)
}
