// Package scene feeds mapped frame geometry into a scene target.
//
// Scene space is X right, Y up, with Z pointing toward the viewer; later
// frames sit in front of earlier ones.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"atlas-importer/internal/geometry"
	"atlas-importer/internal/texture"
)

// MaterialRef identifies a material created by a Target.
type MaterialRef int

// ObjectRef identifies a plane object created by a Target.
type ObjectRef int

// Plane is everything a target needs to build one textured quad. Corners
// follow the geometry.UVQuad winding.
type Plane struct {
	Name     string
	Size     mgl64.Vec2
	UV       geometry.UVQuad
	Material MaterialRef
	Position mgl64.Vec3
}

// Corners returns the plane vertices in local space.
func (p Plane) Corners() [4]mgl64.Vec3 {
	return geometry.Descriptor{PlaneSize: p.Size}.Corners()
}

// Target receives materials and planes.
type Target interface {
	// CreateTexturedMaterial registers an alpha-blended, unlit material
	// sampling img's color and alpha.
	CreateTexturedMaterial(img *texture.Atlas) (MaterialRef, error)
	// CreatePlane adds a single quad placed at p.Position.
	CreatePlane(p Plane) (ObjectRef, error)
}

// Finisher is implemented by targets that flush output once every plane
// has been created.
type Finisher interface {
	Finish() error
}

// Outputs is implemented by targets that write files.
type Outputs interface {
	Outputs() []string
}

// Assemble creates one shared material and then one plane per descriptor,
// in order. The target is finished when it implements Finisher.
func Assemble(t Target, img *texture.Atlas, descs []geometry.Descriptor) ([]ObjectRef, error) {
	mat, err := t.CreateTexturedMaterial(img)
	if err != nil {
		return nil, fmt.Errorf("scene: create material: %w", err)
	}

	refs := make([]ObjectRef, 0, len(descs))
	for _, d := range descs {
		ref, err := t.CreatePlane(Plane{
			Name:     d.Name,
			Size:     d.PlaneSize,
			UV:       d.UV,
			Material: mat,
			Position: d.Position,
		})
		if err != nil {
			return nil, fmt.Errorf("scene: create plane %q: %w", d.Name, err)
		}
		refs = append(refs, ref)
	}

	if f, ok := t.(Finisher); ok {
		if err := f.Finish(); err != nil {
			return nil, fmt.Errorf("scene: finish: %w", err)
		}
	}
	return refs, nil
}
