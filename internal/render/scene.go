package render

import (
	"image/color"
	"math"
	"strings"
)

// Canvas dimensions of every rendered card.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1080
)

// Kind discriminates layout nodes.
type Kind int

const (
	KindBox Kind = iota
	KindText
)

// Direction is the main axis of a box.
type Direction int

const (
	Column Direction = iota
	Row
)

// Justify positions children along the main axis.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
)

// Align positions children along the cross axis.
type Align int

const (
	AlignStretch Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// TextAlign positions wrapped lines inside a text node.
type TextAlign int

const (
	TextAlignInherit TextAlign = iota
	TextAlignLeft
	TextAlignCenter
	TextAlignRight
)

// Style holds the visual attributes of a node. Zero values mean "unset":
// sizes are computed from content, colors are transparent, text
// attributes (Color, FontFamily, FontWeight, FontSize, LineHeight,
// TextAlign) are inherited from the parent and Opacity is 1.
type Style struct {
	Width    float64
	Height   float64
	MaxWidth float64

	Direction Direction
	Justify   Justify
	Align     Align
	Padding   float64
	Gap       float64

	Background   color.NRGBA
	BorderColor  color.NRGBA
	BorderWidth  float64
	BorderRadius float64
	Opacity      float64

	Color      color.NRGBA
	FontFamily string
	FontWeight Weight
	FontSize   float64
	LineHeight float64
	TextAlign  TextAlign
}

// Node is one element of the layout tree: a box with children or a text
// leaf.
type Node struct {
	Kind     Kind
	Style    Style
	Text     string
	Children []*Node
}

// Box returns a box node.
func Box(style Style, children ...*Node) *Node {
	return &Node{Kind: KindBox, Style: style, Children: children}
}

// Text returns a text leaf.
func Text(style Style, text string) *Node {
	return &Node{Kind: KindText, Style: style, Text: text}
}

// VariantName selects one of the built-in card layouts.
type VariantName string

const (
	VariantCentered VariantName = "centered"
	VariantCard     VariantName = "card"
)

// Variant holds the style constants of a card layout. Both variants
// produce the same tree shape: root box, content box, title, message.
type Variant struct {
	Name VariantName

	// TitleScale and BodyScale multiply the sizer's pixel sizes.
	TitleScale float64
	BodyScale  float64

	Justify     Justify
	Align       Align
	RootPadding float64

	ContentMaxWidth float64
	ContentPadding  float64
	Gap             float64

	Panel       color.NRGBA
	PanelBorder color.NRGBA
	BorderWidth float64
	Radius      float64

	TextColor       color.NRGBA
	TextAlign       TextAlign
	TitleLineHeight float64
	BodyLineHeight  float64
	BodyOpacity     float64

	// FontFamily names the registered family the text nodes use.
	FontFamily string
}

// Centered places the text block in the middle of the canvas with no
// panel behind it.
var Centered = Variant{
	Name:            VariantCentered,
	TitleScale:      1.35,
	BodyScale:       1.25,
	Justify:         JustifyCenter,
	Align:           AlignCenter,
	RootPadding:     80,
	ContentMaxWidth: 900,
	Gap:             32,
	TextColor:       color.NRGBA{R: 0x1e, G: 0x00, B: 0x33, A: 0xff},
	TextAlign:       TextAlignCenter,
	TitleLineHeight: 1.1,
	BodyLineHeight:  1.3,
	BodyOpacity:     0.9,
	FontFamily:      DefaultFontFamily,
}

// Card anchors the text block to the bottom of the canvas inside a
// translucent rounded caption panel.
var Card = Variant{
	Name:            VariantCard,
	TitleScale:      1,
	BodyScale:       1,
	Justify:         JustifyEnd,
	Align:           AlignStretch,
	RootPadding:     64,
	ContentPadding:  48,
	Gap:             20,
	Panel:           color.NRGBA{R: 0x0b, G: 0x0b, B: 0x12, A: 140},
	PanelBorder:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 51},
	BorderWidth:     2,
	Radius:          32,
	TextColor:       color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	TextAlign:       TextAlignLeft,
	TitleLineHeight: 1.15,
	BodyLineHeight:  1.35,
	BodyOpacity:     0.9,
	FontFamily:      DefaultFontFamily,
}

// LookupVariant resolves a variant by name, case-insensitively.
func LookupVariant(name string) (Variant, bool) {
	switch VariantName(strings.ToLower(strings.TrimSpace(name))) {
	case VariantCentered:
		return Centered, true
	case VariantCard:
		return Card, true
	default:
		return Variant{}, false
	}
}

// WithFontFamily returns a copy of v drawing its text with family.
func (v Variant) WithFontFamily(family string) Variant {
	if family != "" {
		v.FontFamily = family
	}
	return v
}

// BuildScene returns the layout tree of a card. Sizes are budgets: text is
// measured and wrapped by the rasterizer, not here.
func BuildScene(title, message string, titleSizePx, bodySizePx int, v Variant) *Node {
	titleSize := math.Round(float64(titleSizePx) * nonZero(v.TitleScale))
	bodySize := math.Round(float64(bodySizePx) * nonZero(v.BodyScale))

	titleNode := Text(Style{
		FontFamily: v.FontFamily,
		FontWeight: WeightSemiBold,
		FontSize:   titleSize,
		LineHeight: v.TitleLineHeight,
	}, title)

	messageNode := Text(Style{
		FontFamily: v.FontFamily,
		FontWeight: WeightRegular,
		FontSize:   bodySize,
		LineHeight: v.BodyLineHeight,
		Opacity:    v.BodyOpacity,
	}, message)

	content := Box(Style{
		Direction:    Column,
		Align:        AlignStretch,
		MaxWidth:     v.ContentMaxWidth,
		Padding:      v.ContentPadding,
		Gap:          v.Gap,
		Background:   v.Panel,
		BorderColor:  v.PanelBorder,
		BorderWidth:  v.BorderWidth,
		BorderRadius: v.Radius,
	}, titleNode, messageNode)

	return Box(Style{
		Width:     CanvasWidth,
		Height:    CanvasHeight,
		Direction: Column,
		Justify:   v.Justify,
		Align:     v.Align,
		Padding:   v.RootPadding,
		Color:     v.TextColor,
		TextAlign: v.TextAlign,
	}, content)
}

func nonZero(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}
