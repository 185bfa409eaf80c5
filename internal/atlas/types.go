package atlas

// Rect is a pixel rectangle. Y grows downward.
type Rect struct {
	X float64 `json:"x" jsonschema:"description=Left edge in pixels"`
	Y float64 `json:"y" jsonschema:"description=Top edge in pixels"`
	W float64 `json:"w" jsonschema:"description=Width in pixels"`
	H float64 `json:"h" jsonschema:"description=Height in pixels"`
}

// Size is a pixel extent.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FrameRecord is one packed sprite.
//
// Frame is the (possibly trimmed) region inside the atlas image. SourceSize is
// the untrimmed sprite size and SpriteSourceSize locates the trimmed region
// inside it. Only SpriteSourceSize.X and .Y take part in placement.
type FrameRecord struct {
	Frame            Rect `json:"frame"`
	SourceSize       Size `json:"sourceSize"`
	SpriteSourceSize Rect `json:"spriteSourceSize"`
	Rotated          bool `json:"rotated,omitempty"`
	Trimmed          bool `json:"trimmed,omitempty"`
}

// Frame pairs a record with its key in the manifest.
type Frame struct {
	Name   string
	Record FrameRecord
}

// Meta is the optional packer metadata block.
type Meta struct {
	App     string `json:"app,omitempty"`
	Version string `json:"version,omitempty"`
	Image   string `json:"image,omitempty" jsonschema:"description=Atlas image file name relative to the manifest"`
	Format  string `json:"format,omitempty"`
	Size    *Size  `json:"size,omitempty" jsonschema:"description=Atlas image size in pixels"`
}

// Manifest is a parsed atlas description. Frames keep the member order of
// the source document.
type Manifest struct {
	Frames []Frame
	Meta   Meta

	// Duplicates lists every frame key seen more than once, once per extra
	// occurrence. The surviving entry sits at the first occurrence's
	// position and carries the last occurrence's value.
	Duplicates []string

	// Warnings holds problems that did not reject the manifest, such as an
	// unreadable meta block.
	Warnings []string
}

// Len returns the number of frames.
func (m *Manifest) Len() int {
	return len(m.Frames)
}

// Rotated returns the names of frames the packer stored rotated.
func (m *Manifest) Rotated() []string {
	var names []string
	for _, f := range m.Frames {
		if f.Record.Rotated {
			names = append(names, f.Name)
		}
	}
	return names
}
