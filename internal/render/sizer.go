package render

import (
	"math"
	"unicode/utf8"
)

// Base font sizes at scale 1.0, in pixels.
const (
	BaseTitleSize = 64
	BaseBodySize  = 46
)

// TitleWeight is how much one title character counts against the text
// budget relative to one message character.
const TitleWeight = 1.4

type scaleStep struct {
	maxUnits float64
	scale    float64
}

// scaleSteps is ordered by maxUnits; the first step whose maxUnits is >=
// the computed units wins.
var scaleSteps = []scaleStep{
	{160, 1.0},
	{260, 0.9},
	{360, 0.8},
	{460, 0.72},
	{560, 0.66},
}

const minScale = 0.6

// Sizes are the pixel sizes derived from a scale factor, before any
// variant multiplier.
type Sizes struct {
	Units   float64
	Scale   float64
	TitlePx int
	BodyPx  int
}

// Units returns the weighted length score of a title/message pair.
func Units(title, message string) float64 {
	return float64(utf8.RuneCountInString(title))*TitleWeight + float64(utf8.RuneCountInString(message))
}

// ScaleForUnits maps a length score onto the step table.
func ScaleForUnits(units float64) float64 {
	for _, s := range scaleSteps {
		if units <= s.maxUnits {
			return s.scale
		}
	}
	return minScale
}

// ComputeScale returns the font scale factor for a title/message pair.
func ComputeScale(title, message string) float64 {
	return ScaleForUnits(Units(title, message))
}

// ComputeSizes returns the scale and the title/body pixel sizes for a
// title/message pair.
func ComputeSizes(title, message string) Sizes {
	units := Units(title, message)
	scale := ScaleForUnits(units)
	return Sizes{
		Units:   units,
		Scale:   scale,
		TitlePx: scaledPx(BaseTitleSize, scale),
		BodyPx:  scaledPx(BaseBodySize, scale),
	}
}

func scaledPx(base, scale float64) int {
	return int(math.Round(base * scale))
}
