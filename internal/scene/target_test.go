package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas-importer/internal/geometry"
	"atlas-importer/internal/texture"
)

type failingTarget struct {
	Recorder
	failOn   string
	finished bool
}

func (f *failingTarget) CreatePlane(p Plane) (ObjectRef, error) {
	if p.Name == f.failOn {
		return 0, errors.New("boom")
	}
	return f.Recorder.CreatePlane(p)
}

func (f *failingTarget) Finish() error {
	f.finished = true
	return nil
}

func descs() []geometry.Descriptor {
	return []geometry.Descriptor{
		{Name: "back", StackIndex: 0, PlaneSize: mgl64.Vec2{1, 2}, Position: mgl64.Vec3{0, 0, 0}},
		{Name: "front", StackIndex: 1, PlaneSize: mgl64.Vec2{3, 4}, Position: mgl64.Vec3{1, 1, 0.01}},
	}
}

func TestAssembleRecordsInOrder(t *testing.T) {
	img := &texture.Atlas{Dimensions: texture.Dimensions{Width: 4, Height: 4}}
	var rec Recorder

	refs, err := Assemble(&rec, img, descs())
	require.NoError(t, err)
	assert.Equal(t, []ObjectRef{0, 1}, refs)

	require.Len(t, rec.Materials, 1)
	assert.Same(t, img, rec.Materials[0])
	require.Len(t, rec.Planes, 2)
	assert.Equal(t, "back", rec.Planes[0].Name)
	assert.Equal(t, "front", rec.Planes[1].Name)
	assert.Equal(t, mgl64.Vec2{3, 4}, rec.Planes[1].Size)
	assert.Equal(t, MaterialRef(0), rec.Planes[1].Material)
}

func TestAssembleStopsOnError(t *testing.T) {
	tgt := &failingTarget{failOn: "front"}
	_, err := Assemble(tgt, &texture.Atlas{}, descs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create plane "front"`)
	assert.False(t, tgt.finished)
	assert.Len(t, tgt.Planes, 1)
}

func TestAssembleFinishes(t *testing.T) {
	tgt := &failingTarget{}
	_, err := Assemble(tgt, &texture.Atlas{}, descs())
	require.NoError(t, err)
	assert.True(t, tgt.finished)
}

func TestRecorderRejectsUnknownMaterial(t *testing.T) {
	var rec Recorder
	_, err := rec.CreatePlane(Plane{Name: "x", Material: 3})
	assert.Error(t, err)
}

func TestPlaneCorners(t *testing.T) {
	p := Plane{Size: mgl64.Vec2{2, 2}}
	c := p.Corners()
	assert.Equal(t, mgl64.Vec3{-1, -1, 0}, c[geometry.BottomLeft])
	assert.Equal(t, mgl64.Vec3{1, 1, 0}, c[geometry.TopRight])
}
