package atlas

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedManifest matches any *ManifestError.
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrDuplicateFrame matches *DuplicateError.
	ErrDuplicateFrame = errors.New("duplicate frame name")

	errMissing = errors.New("missing")
)

// ManifestError reports why a manifest was rejected. Frame and Field are
// empty when the failure is not tied to one frame.
type ManifestError struct {
	Frame string
	Field string
	Err   error
}

func (e *ManifestError) Error() string {
	var b strings.Builder
	b.WriteString("atlas: malformed manifest")
	if e.Frame != "" {
		fmt.Fprintf(&b, ": frame %q", e.Frame)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ManifestError) Unwrap() error { return e.Err }

func (e *ManifestError) Is(target error) bool { return target == ErrMalformedManifest }

// DuplicateError lists frame keys that appear more than once.
type DuplicateError struct {
	Names []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("atlas: duplicate frame names: %s", strings.Join(e.Names, ", "))
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateFrame }

func malformed(frame, field string, err error) error {
	return &ManifestError{Frame: frame, Field: field, Err: err}
}
