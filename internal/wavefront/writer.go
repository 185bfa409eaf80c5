// Package wavefront writes planes as an OBJ mesh with an MTL material
// library. OBJ has no object transforms, so positions are baked into the
// vertices.
package wavefront

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"atlas-importer/internal/scene"
	"atlas-importer/internal/texture"
)

type objMaterial struct {
	name  string
	atlas *texture.Atlas
	image string
}

// Writer is a scene.Target producing .obj, .mtl and atlas PNG files.
type Writer struct {
	path      string
	base      string
	materials []objMaterial
	planes    []scene.Plane
	outputs   []string
}

// New returns a writer for the .obj file at path.
func New(path string) *Writer {
	return &Writer{
		path: path,
		base: strings.TrimSuffix(path, filepath.Ext(path)),
	}
}

// CreateTexturedMaterial registers a material using the atlas for both
// diffuse color and dissolve.
func (w *Writer) CreateTexturedMaterial(img *texture.Atlas) (scene.MaterialRef, error) {
	if img == nil || img.Image == nil {
		return 0, fmt.Errorf("wavefront: material needs decoded pixels")
	}
	idx := len(w.materials)
	m := objMaterial{name: "AtlasMaterial", atlas: img, image: w.base + "_atlas.png"}
	if idx > 0 {
		m.name = fmt.Sprintf("AtlasMaterial.%03d", idx)
		m.image = fmt.Sprintf("%s_atlas%d.png", w.base, idx)
	}
	w.materials = append(w.materials, m)
	return scene.MaterialRef(idx), nil
}

// CreatePlane queues a plane for Finish.
func (w *Writer) CreatePlane(p scene.Plane) (scene.ObjectRef, error) {
	if int(p.Material) < 0 || int(p.Material) >= len(w.materials) {
		return 0, fmt.Errorf("wavefront: unknown material %d", p.Material)
	}
	w.planes = append(w.planes, p)
	return scene.ObjectRef(len(w.planes) - 1), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// objName makes a frame name safe for the whitespace-separated OBJ syntax.
func objName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

// Finish writes the atlas PNGs, the material library and the mesh.
func (w *Writer) Finish() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("wavefront: %w", err)
	}

	for _, m := range w.materials {
		if err := m.atlas.WritePNG(m.image); err != nil {
			return fmt.Errorf("wavefront: %w", err)
		}
		w.outputs = append(w.outputs, m.image)
	}

	mtlPath := w.base + ".mtl"
	if err := w.writeFile(mtlPath, w.writeMTL); err != nil {
		return err
	}
	if err := w.writeFile(w.path, w.writeOBJ); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeFile(path string, body func(*bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavefront: %w", err)
	}
	bw := bufio.NewWriter(f)
	body(bw)
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("wavefront: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("wavefront: close %s: %w", path, err)
	}
	w.outputs = append(w.outputs, path)
	return nil
}

func (w *Writer) writeMTL(bw *bufio.Writer) {
	fmt.Fprintf(bw, "# %d materials\n", len(w.materials))
	for _, m := range w.materials {
		img := filepath.Base(m.image)
		fmt.Fprintf(bw, "\nnewmtl %s\n", m.name)
		bw.WriteString("Ka 1 1 1\nKd 1 1 1\nKs 0 0 0\nd 1\nillum 0\n")
		fmt.Fprintf(bw, "map_Kd %s\n", img)
		fmt.Fprintf(bw, "map_d %s\n", img)
	}
}

func (w *Writer) writeOBJ(bw *bufio.Writer) {
	fmt.Fprintf(bw, "# %d planes\n", len(w.planes))
	fmt.Fprintf(bw, "mtllib %s\n", filepath.Base(w.base+".mtl"))
	bw.WriteString("vn 0 0 1\n")

	for i, p := range w.planes {
		fmt.Fprintf(bw, "\no %s\n", objName(p.Name))
		for _, c := range p.Corners() {
			v := c.Add(p.Position)
			fmt.Fprintf(bw, "v %s %s %s\n", num(v[0]), num(v[1]), num(v[2]))
		}
		for k := 0; k < 4; k++ {
			uv := p.UV.ForLoop(k)
			fmt.Fprintf(bw, "vt %s %s\n", num(uv[0]), num(uv[1]))
		}
		fmt.Fprintf(bw, "usemtl %s\n", w.materials[p.Material].name)
		base := i*4 + 1
		fmt.Fprintf(bw, "f %d/%d/1 %d/%d/1 %d/%d/1 %d/%d/1\n",
			base, base, base+1, base+1, base+2, base+2, base+3, base+3)
	}
}

// Outputs lists the files written by Finish.
func (w *Writer) Outputs() []string {
	return w.outputs
}
