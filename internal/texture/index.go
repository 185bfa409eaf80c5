package texture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageExts lists the extensions tried next to a manifest, in priority order.
var imageExts = []string{".png", ".webp", ".tga", ".jpg", ".jpeg"}

// ResolveImage locates the atlas image for a manifest when none was given.
// metaImage (the manifest's meta.image) is tried first, relative to the
// manifest directory; then files sharing the manifest's stem.
func ResolveImage(manifestPath, metaImage string) (string, error) {
	dir := filepath.Dir(manifestPath)

	var candidates []string
	if metaImage != "" {
		// Packers on Windows write backslashes.
		metaImage = strings.ReplaceAll(metaImage, "\\", "/")
		if filepath.IsAbs(metaImage) {
			candidates = append(candidates, metaImage)
		} else {
			candidates = append(candidates, filepath.Join(dir, filepath.FromSlash(metaImage)))
		}
	}

	stem := strings.TrimSuffix(filepath.Base(manifestPath), filepath.Ext(manifestPath))
	for _, ext := range imageExts {
		candidates = append(candidates, filepath.Join(dir, stem+ext))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", &LoadError{
		Path: manifestPath,
		Err:  fmt.Errorf("no atlas image found (tried %s): %w", strings.Join(candidates, ", "), os.ErrNotExist),
	}
}
