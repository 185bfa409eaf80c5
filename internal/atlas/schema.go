package atlas

import "github.com/invopop/jsonschema"

// Offset locates a trimmed sprite inside its untrimmed source. Packers always
// write x and y; w and h repeat the frame size and are often left out.
type Offset struct {
	X float64 `json:"x" jsonschema:"description=Left trim in pixels"`
	Y float64 `json:"y" jsonschema:"description=Top trim in pixels"`
	W float64 `json:"w,omitempty" jsonschema:"description=Trimmed width in pixels"`
	H float64 `json:"h,omitempty" jsonschema:"description=Trimmed height in pixels"`
}

// FrameEntry is one frame as a packer writes it.
type FrameEntry struct {
	Frame            Rect   `json:"frame" jsonschema:"description=Region of the atlas image holding the sprite pixels"`
	SourceSize       Size   `json:"sourceSize" jsonschema:"description=Original untrimmed sprite size"`
	SpriteSourceSize Offset `json:"spriteSourceSize" jsonschema:"description=Trimmed region inside the untrimmed sprite"`
	Rotated          bool   `json:"rotated,omitempty"`
	Trimmed          bool   `json:"trimmed,omitempty"`
}

// ArrayFrameEntry is a frame in the array form, named by its filename.
type ArrayFrameEntry struct {
	Filename string `json:"filename" jsonschema:"description=Sprite name"`
	FrameEntry
}

// Document is the on-disk manifest. It only drives schema generation; Parse
// reads the document as an ordered stream instead.
type Document struct {
	Frames map[string]FrameEntry `json:"frames"`
	Meta   *Meta                 `json:"meta,omitempty"`
}

const framesDescription = "Frames in stacking order: an object keyed by sprite name or an array of entries carrying filename"

// Schema reflects the JSON Schema for manifest documents. The frames member
// accepts both the hash and the array form.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Document))
	list := reflector.Reflect(new(ArrayFrameEntry))
	for name, def := range list.Definitions {
		if _, ok := schema.Definitions[name]; !ok {
			schema.Definitions[name] = def
		}
	}

	if doc, ok := schema.Definitions["Document"]; ok {
		doc.Properties.Set("frames", &jsonschema.Schema{
			Description: framesDescription,
			OneOf: []*jsonschema.Schema{
				{
					Type:                 "object",
					AdditionalProperties: &jsonschema.Schema{Ref: "#/$defs/FrameEntry"},
				},
				{
					Type:  "array",
					Items: &jsonschema.Schema{Ref: "#/$defs/ArrayFrameEntry"},
				},
			},
		})
	}

	schema.Title = "Texture Atlas Manifest"
	schema.Description = "Sprite sheet packer export: frame rectangles with trim metadata"
	return schema
}
