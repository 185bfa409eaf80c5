package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	_ "github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrImageLoad matches any *LoadError.
var ErrImageLoad = errors.New("image load failure")

// LoadError reports an atlas image that could not be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("texture: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrImageLoad }

// Dimensions is the pixel size of an atlas image.
type Dimensions struct {
	Width  int
	Height int
}

// Atlas is a decoded atlas image.
type Atlas struct {
	Path   string
	Format string // decoder name: png, jpeg, tga, webp
	Dimensions
	Image *image.NRGBA
}

// Load reads and decodes an atlas image. PNG, JPEG, TGA and WebP are
// supported.
func Load(path string) (*Atlas, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return Decode(raw, path)
}

// Decode decodes raw image bytes. name is only used for reporting.
func Decode(raw []byte, name string) (*Atlas, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}

	return &Atlas{
		Path:       name,
		Format:     format,
		Dimensions: Dimensions{Width: b.Dx(), Height: b.Dy()},
		Image:      toNRGBA(img),
	}, nil
}

// WritePNG writes the atlas pixels as a PNG file, creating parent
// directories as needed.
func (a *Atlas) WritePNG(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	if err := png.Encode(f, a.Image); err != nil {
		f.Close()
		return fmt.Errorf("texture: encode %s: %w", path, err)
	}
	return f.Close()
}

// toNRGBA converts any image to NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
