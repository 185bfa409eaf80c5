package atlas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DuplicatePolicy decides what happens when a frame key repeats.
type DuplicatePolicy string

const (
	// DuplicateWarn keeps one frame per key and reports the repeats.
	DuplicateWarn DuplicatePolicy = "warn"
	// DuplicateFail rejects the manifest.
	DuplicateFail DuplicatePolicy = "fail"
)

// ParsePolicy maps a config string to a policy. Empty means DuplicateWarn.
func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicateWarn:
		return DuplicateWarn, nil
	case DuplicateFail:
		return DuplicateFail, nil
	}
	return "", fmt.Errorf("atlas: unknown duplicate policy %q", s)
}

// CheckDuplicates applies policy to the duplicates found while parsing.
func (m *Manifest) CheckDuplicates(policy DuplicatePolicy) error {
	if policy == DuplicateFail && len(m.Duplicates) > 0 {
		return &DuplicateError{Names: append([]string(nil), m.Duplicates...)}
	}
	return nil
}

// ParseFile reads and parses a manifest from disk.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("atlas: read %s: %w", path, err)
	}
	return Parse(data)
}

type rawRect struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	W *float64 `json:"w"`
	H *float64 `json:"h"`
}

type rawFrame struct {
	Frame            *rawRect `json:"frame"`
	SourceSize       *rawRect `json:"sourceSize"`
	SpriteSourceSize *rawRect `json:"spriteSourceSize"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
}

type entry struct {
	name  string
	value json.RawMessage
}

// Parse decodes a sprite-sheet manifest. Both the hash form
// ({"frames": {name: {...}}}) and the array form
// ({"frames": [{"filename": name, ...}]}) are accepted.
//
// Nothing is returned unless every frame is valid.
func Parse(data []byte) (*Manifest, error) {
	var doc struct {
		Frames json.RawMessage `json:"frames"`
		Meta   json.RawMessage `json:"meta"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed("", "", err)
	}
	frames := bytes.TrimSpace(doc.Frames)
	if len(frames) == 0 || bytes.Equal(frames, []byte("null")) {
		return nil, malformed("", "frames", errMissing)
	}

	var entries []entry
	var err error
	switch frames[0] {
	case '{':
		entries, err = objectEntries(frames)
	case '[':
		entries, err = arrayEntries(frames)
	default:
		err = malformed("", "frames", errors.New("must be an object or an array"))
	}
	if err != nil {
		return nil, err
	}

	m := &Manifest{}
	m.Meta, err = decodeMeta(doc.Meta)
	if err != nil {
		m.Warnings = append(m.Warnings, fmt.Sprintf("meta ignored: %v", err))
	}
	entries, m.Duplicates = collapse(entries)

	m.Frames = make([]Frame, 0, len(entries))
	for _, e := range entries {
		rec, err := decodeRecord(e.name, e.value)
		if err != nil {
			return nil, err
		}
		m.Frames = append(m.Frames, Frame{Name: e.name, Record: rec})
	}
	return m, nil
}

// decodeMeta reads the optional packer block. Meta never rejects a
// manifest: on any mismatch the whole block is dropped and the error is
// returned for reporting.
func decodeMeta(raw json.RawMessage) (Meta, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Meta{}, nil
	}
	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// objectEntries walks the frames object as a token stream so member order
// survives.
func objectEntries(raw []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, malformed("", "frames", err)
	}
	var entries []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("", "frames", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, malformed("", "frames", fmt.Errorf("unexpected token %v", tok))
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, malformed(name, "", err)
		}
		entries = append(entries, entry{name: name, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, malformed("", "frames", err)
	}
	return entries, nil
}

func arrayEntries(raw []byte) ([]entry, error) {
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, malformed("", "frames", err)
	}
	entries := make([]entry, 0, len(values))
	for i, v := range values {
		var named struct {
			Filename *string `json:"filename"`
		}
		if err := json.Unmarshal(v, &named); err != nil {
			return nil, malformed(fmt.Sprintf("#%d", i), "", err)
		}
		if named.Filename == nil {
			return nil, malformed(fmt.Sprintf("#%d", i), "filename", errMissing)
		}
		entries = append(entries, entry{name: *named.Filename, value: v})
	}
	return entries, nil
}

// collapse keeps one entry per name: first position, last value.
func collapse(entries []entry) ([]entry, []string) {
	seen := make(map[string]int, len(entries))
	out := make([]entry, 0, len(entries))
	var dups []string
	for _, e := range entries {
		if i, ok := seen[e.name]; ok {
			out[i].value = e.value
			dups = append(dups, e.name)
			continue
		}
		seen[e.name] = len(out)
		out = append(out, e)
	}
	return out, dups
}

func decodeRecord(name string, value json.RawMessage) (FrameRecord, error) {
	var raw rawFrame
	if err := json.Unmarshal(value, &raw); err != nil {
		return FrameRecord{}, malformed(name, "", err)
	}

	var rec FrameRecord
	var err error
	if rec.Frame, err = requireRect(name, "frame", raw.Frame, true); err != nil {
		return FrameRecord{}, err
	}
	if raw.SourceSize == nil {
		return FrameRecord{}, malformed(name, "sourceSize", errMissing)
	}
	if rec.SourceSize.W, err = requireDim(name, "sourceSize.w", raw.SourceSize.W); err != nil {
		return FrameRecord{}, err
	}
	if rec.SourceSize.H, err = requireDim(name, "sourceSize.h", raw.SourceSize.H); err != nil {
		return FrameRecord{}, err
	}
	if rec.SpriteSourceSize, err = requireRect(name, "spriteSourceSize", raw.SpriteSourceSize, false); err != nil {
		return FrameRecord{}, err
	}
	rec.Rotated = raw.Rotated
	rec.Trimmed = raw.Trimmed
	return rec, nil
}

// requireRect checks a rectangle member. With needSize unset, w and h may be
// absent but must be positive when present.
func requireRect(frame, field string, r *rawRect, needSize bool) (Rect, error) {
	if r == nil {
		return Rect{}, malformed(frame, field, errMissing)
	}
	if r.X == nil {
		return Rect{}, malformed(frame, field+".x", errMissing)
	}
	if r.Y == nil {
		return Rect{}, malformed(frame, field+".y", errMissing)
	}
	out := Rect{X: *r.X, Y: *r.Y}
	var err error
	if r.W != nil || needSize {
		if out.W, err = requireDim(frame, field+".w", r.W); err != nil {
			return Rect{}, err
		}
	}
	if r.H != nil || needSize {
		if out.H, err = requireDim(frame, field+".h", r.H); err != nil {
			return Rect{}, err
		}
	}
	return out, nil
}

func requireDim(frame, field string, v *float64) (float64, error) {
	if v == nil {
		return 0, malformed(frame, field, errMissing)
	}
	if *v <= 0 {
		return 0, malformed(frame, field, fmt.Errorf("must be positive, got %g", *v))
	}
	return *v, nil
}
