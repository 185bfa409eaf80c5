package geometry

import "github.com/go-gl/mathgl/mgl64"

// Corner indices of a plane, in UV winding order.
const (
	BottomLeft = iota
	BottomRight
	TopRight
	TopLeft
)

// UVQuad holds one texture coordinate per plane corner, ordered
// bottom-left, bottom-right, top-right, top-left. V grows upward.
type UVQuad [4]mgl64.Vec2

// ForLoop returns the coordinate for the i-th face loop. Meshes with more
// than four loops cycle through the corners.
func (q UVQuad) ForLoop(i int) mgl64.Vec2 {
	return q[((i%4)+4)%4]
}

// Descriptor is the geometry derived for one frame.
type Descriptor struct {
	Name       string
	StackIndex int
	PlaneSize  mgl64.Vec2 // width, height in scene units
	UV         UVQuad
	Position   mgl64.Vec3
}

// Corners returns the plane's vertices in local space, centered on the
// origin in the XY plane, in UV winding order.
func (d Descriptor) Corners() [4]mgl64.Vec3 {
	hw, hh := d.PlaneSize.X()/2, d.PlaneSize.Y()/2
	return [4]mgl64.Vec3{
		{-hw, -hh, 0},
		{hw, -hh, 0},
		{hw, hh, 0},
		{-hw, hh, 0},
	}
}

// WorldCorners returns Corners translated by Position.
func (d Descriptor) WorldCorners() [4]mgl64.Vec3 {
	c := d.Corners()
	for i := range c {
		c[i] = c[i].Add(d.Position)
	}
	return c
}
