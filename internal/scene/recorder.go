package scene

import (
	"fmt"

	"atlas-importer/internal/texture"
)

// Recorder is an in-memory Target. It keeps every call in order.
type Recorder struct {
	Materials []*texture.Atlas
	Planes    []Plane
}

func (r *Recorder) CreateTexturedMaterial(img *texture.Atlas) (MaterialRef, error) {
	r.Materials = append(r.Materials, img)
	return MaterialRef(len(r.Materials) - 1), nil
}

func (r *Recorder) CreatePlane(p Plane) (ObjectRef, error) {
	if int(p.Material) < 0 || int(p.Material) >= len(r.Materials) {
		return 0, fmt.Errorf("unknown material %d", p.Material)
	}
	r.Planes = append(r.Planes, p)
	return ObjectRef(len(r.Planes) - 1), nil
}
