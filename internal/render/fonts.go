package render

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"socialcard/internal/pkg/errors"
)

// Weight is a CSS-style font weight.
type Weight int

const (
	WeightRegular  Weight = 400
	WeightSemiBold Weight = 700
)

// DefaultFontFamily is the family name registered by DefaultFonts.
const DefaultFontFamily = "Go"

// FontAsset is one weight of a font family as raw TTF/OTF bytes.
type FontAsset struct {
	Family string
	Weight Weight
	Data   []byte
}

// DefaultFonts returns the Go font family embedded in golang.org/x/image,
// used when no font files are configured.
func DefaultFonts() []FontAsset {
	return []FontAsset{
		{Family: DefaultFontFamily, Weight: WeightRegular, Data: goregular.TTF},
		{Family: DefaultFontFamily, Weight: WeightSemiBold, Data: gobold.TTF},
	}
}

type fontKey struct {
	family string
	weight Weight
}

type faceKey struct {
	fontKey
	size float64
}

// FontSet holds parsed fonts for one render and caches the faces built
// from them. It is not safe for concurrent use.
type FontSet struct {
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
}

// LoadFonts parses every asset. Malformed font bytes fail with a decode
// error naming the family and weight.
func LoadFonts(assets []FontAsset) (*FontSet, error) {
	fs := &FontSet{
		fonts: make(map[fontKey]*opentype.Font, len(assets)),
		faces: make(map[faceKey]font.Face),
	}
	for _, a := range assets {
		parsed, err := opentype.Parse(a.Data)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeDecode, "render.fonts",
				fmt.Sprintf("failed to parse font %s %d", a.Family, a.Weight))
		}
		fs.fonts[fontKey{a.Family, a.Weight}] = parsed
	}
	return fs, nil
}

// Face returns a face of the given family, weight and pixel size.
func (fs *FontSet) Face(family string, weight Weight, size float64) (font.Face, error) {
	key := faceKey{fontKey{family, weight}, size}
	if face, ok := fs.faces[key]; ok {
		return face, nil
	}

	parsed, ok := fs.fonts[key.fontKey]
	if !ok {
		return nil, errors.Newf(errors.CodeRasterize, "font not registered: %s %d", family, weight).
			WithField("family", family).
			WithField("weight", int(weight))
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeRasterize, "render.fonts", "failed to create font face")
	}
	fs.faces[key] = face
	return face, nil
}

// Close releases every face created by the set.
func (fs *FontSet) Close() {
	for k, f := range fs.faces {
		_ = f.Close()
		delete(fs.faces, k)
	}
}
