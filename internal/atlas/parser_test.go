package atlas

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heroManifest = `{"frames":{"hero":{"frame":{"x":0,"y":0,"w":50,"h":50},"sourceSize":{"w":50,"h":50},"spriteSourceSize":{"x":0,"y":0,"w":50,"h":50}}}}`

func frameJSON(x, y, w, h int) string {
	b, _ := json.Marshal(map[string]any{
		"frame":            map[string]int{"x": x, "y": y, "w": w, "h": h},
		"sourceSize":       map[string]int{"w": w, "h": h},
		"spriteSourceSize": map[string]int{"x": 0, "y": 0, "w": w, "h": h},
	})
	return string(b)
}

func names(m *Manifest) []string {
	out := make([]string, len(m.Frames))
	for i, f := range m.Frames {
		out[i] = f.Name
	}
	return out
}

func TestParseHero(t *testing.T) {
	m, err := Parse([]byte(heroManifest))
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	f := m.Frames[0]
	assert.Equal(t, "hero", f.Name)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 50, H: 50}, f.Record.Frame)
	assert.Equal(t, Size{W: 50, H: 50}, f.Record.SourceSize)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 50, H: 50}, f.Record.SpriteSourceSize)
	assert.Empty(t, m.Duplicates)
}

func TestParseKeepsMemberOrder(t *testing.T) {
	// Keys deliberately out of lexical order.
	doc := `{"frames":{"zeta":` + frameJSON(0, 0, 1, 1) +
		`,"alpha":` + frameJSON(1, 0, 1, 1) +
		`,"mid":` + frameJSON(2, 0, 1, 1) + `}}`

	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(m))
	assert.Equal(t, 1.0, m.Frames[1].Record.Frame.X)
}

func TestParseArrayForm(t *testing.T) {
	doc := `{"frames":[
		{"filename":"b.png","frame":{"x":4,"y":0,"w":4,"h":4},"sourceSize":{"w":4,"h":4},"spriteSourceSize":{"x":0,"y":0,"w":4,"h":4}},
		{"filename":"a.png","frame":{"x":0,"y":0,"w":4,"h":4},"sourceSize":{"w":4,"h":4},"spriteSourceSize":{"x":0,"y":0,"w":4,"h":4},"rotated":true}
	],"meta":{"app":"packer","image":"sheet.png","size":{"w":8,"h":4}}}`

	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"b.png", "a.png"}, names(m))
	assert.Equal(t, "sheet.png", m.Meta.Image)
	require.NotNil(t, m.Meta.Size)
	assert.Equal(t, 8.0, m.Meta.Size.W)
	assert.Equal(t, []string{"a.png"}, m.Rotated())
}

func TestParseDuplicates(t *testing.T) {
	doc := `{"frames":{"a":` + frameJSON(0, 0, 1, 1) +
		`,"b":` + frameJSON(1, 0, 1, 1) +
		`,"a":` + frameJSON(2, 0, 3, 3) + `}}`

	m, err := Parse([]byte(doc))
	require.NoError(t, err)

	// First position, last value.
	assert.Equal(t, []string{"a", "b"}, names(m))
	assert.Equal(t, 2.0, m.Frames[0].Record.Frame.X)
	assert.Equal(t, 3.0, m.Frames[0].Record.Frame.W)
	assert.Equal(t, []string{"a"}, m.Duplicates)

	assert.NoError(t, m.CheckDuplicates(DuplicateWarn))
	err = m.CheckDuplicates(DuplicateFail)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateFrame))
}

func TestParseSpriteSourceSizeWithoutSize(t *testing.T) {
	doc := `{"frames":{"a":{"frame":{"x":0,"y":0,"w":2,"h":2},"sourceSize":{"w":4,"h":4},"spriteSourceSize":{"x":1,"y":1}}}}`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 1, Y: 1}, m.Frames[0].Record.SpriteSourceSize)
}

func TestParseMetaNeverRejects(t *testing.T) {
	frames := `"frames":{"hero":` + frameJSON(0, 0, 64, 128) + `}`
	for _, meta := range []string{
		`{"version":1}`,
		`{"size":{"w":"256","h":256}}`,
		`"texturepacker"`,
	} {
		m, err := Parse([]byte(`{` + frames + `,"meta":` + meta + `}`))
		require.NoError(t, err, meta)
		assert.Equal(t, []string{"hero"}, names(m), meta)
		assert.Equal(t, Meta{}, m.Meta, meta)
		require.Len(t, m.Warnings, 1, meta)
		assert.Contains(t, m.Warnings[0], "meta ignored", meta)
	}

	m, err := Parse([]byte(`{` + frames + `,"meta":{"app":"packer","image":"sheet.png","size":{"w":256,"h":256}}}`))
	require.NoError(t, err)
	assert.Empty(t, m.Warnings)
	assert.Equal(t, "sheet.png", m.Meta.Image)
	assert.Equal(t, &Size{W: 256, H: 256}, m.Meta.Size)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		frame string
		field string
	}{
		{"not json", `{"frames":`, "", ""},
		{"top level array", `[]`, "", ""},
		{"no frames", `{"meta":{}}`, "", "frames"},
		{"null frames", `{"frames":null}`, "", "frames"},
		{"frames is string", `{"frames":"x"}`, "", "frames"},
		{"missing frame", `{"frames":{"a":{"sourceSize":{"w":1,"h":1},"spriteSourceSize":{"x":0,"y":0}}}}`, "a", "frame"},
		{"missing sourceSize", `{"frames":{"a":{"frame":{"x":0,"y":0,"w":1,"h":1},"spriteSourceSize":{"x":0,"y":0}}}}`, "a", "sourceSize"},
		{"missing spriteSourceSize", `{"frames":{"a":{"frame":{"x":0,"y":0,"w":1,"h":1},"sourceSize":{"w":1,"h":1}}}}`, "a", "spriteSourceSize"},
		{"missing frame.x", `{"frames":{"a":{"frame":{"y":0,"w":1,"h":1},"sourceSize":{"w":1,"h":1},"spriteSourceSize":{"x":0,"y":0}}}}`, "a", "frame.x"},
		{"zero width", `{"frames":{"a":{"frame":{"x":0,"y":0,"w":0,"h":1},"sourceSize":{"w":1,"h":1},"spriteSourceSize":{"x":0,"y":0}}}}`, "a", "frame.w"},
		{"negative source height", `{"frames":{"a":{"frame":{"x":0,"y":0,"w":1,"h":1},"sourceSize":{"w":1,"h":-2},"spriteSourceSize":{"x":0,"y":0}}}}`, "a", "sourceSize.h"},
		{"zero sprite source width", `{"frames":{"a":{"frame":{"x":0,"y":0,"w":1,"h":1},"sourceSize":{"w":1,"h":1},"spriteSourceSize":{"x":0,"y":0,"w":0,"h":1}}}}`, "a", "spriteSourceSize.w"},
		{"frame is null", `{"frames":{"a":null}}`, "a", "frame"},
		{"array entry without filename", `{"frames":[{"frame":{"x":0,"y":0,"w":1,"h":1}}]}`, "#0", "filename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, ErrMalformedManifest))

			var me *ManifestError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.frame, me.Frame)
			assert.Equal(t, tt.field, me.Field)
		})
	}
}

func TestParseNoPartialOutput(t *testing.T) {
	doc := `{"frames":{"ok":` + frameJSON(0, 0, 1, 1) +
		`,"broken":{"frame":{"x":0,"y":0,"w":1,"h":1},"spriteSourceSize":{"x":0,"y":0}}}}`
	m, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), `frame "broken": sourceSize: missing`)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.json")
	require.NoError(t, os.WriteFile(path, []byte(heroManifest), 0o644))

	m, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedManifest))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateWarn, p)

	p, err = ParsePolicy("fail")
	require.NoError(t, err)
	assert.Equal(t, DuplicateFail, p)

	_, err = ParsePolicy("rename")
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	s := Schema()
	assert.Equal(t, "Texture Atlas Manifest", s.Title)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var doc struct {
		Defs map[string]struct {
			Required   []string                   `json:"required"`
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"$defs"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	var frames struct {
		OneOf []struct {
			Type                 string `json:"type"`
			AdditionalProperties struct {
				Ref string `json:"$ref"`
			} `json:"additionalProperties"`
			Items struct {
				Ref string `json:"$ref"`
			} `json:"items"`
		} `json:"oneOf"`
	}
	require.NoError(t, json.Unmarshal(doc.Defs["Document"].Properties["frames"], &frames))
	require.Len(t, frames.OneOf, 2)
	assert.Equal(t, "object", frames.OneOf[0].Type)
	assert.Equal(t, "#/$defs/FrameEntry", frames.OneOf[0].AdditionalProperties.Ref)
	assert.Equal(t, "array", frames.OneOf[1].Type)
	assert.Equal(t, "#/$defs/ArrayFrameEntry", frames.OneOf[1].Items.Ref)

	assert.ElementsMatch(t, []string{"x", "y"}, doc.Defs["Offset"].Required)
	assert.ElementsMatch(t, []string{"x", "y", "w", "h"}, doc.Defs["Rect"].Required)
	assert.ElementsMatch(t, []string{"frame", "sourceSize", "spriteSourceSize"}, doc.Defs["FrameEntry"].Required)
	assert.ElementsMatch(t, []string{"filename", "frame", "sourceSize", "spriteSourceSize"}, doc.Defs["ArrayFrameEntry"].Required)
}
