package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"socialcard/internal/pkg/errors"
)

// frame is a measured node: the node, its resolved text attributes and
// its size. Text frames also carry their wrapped lines.
type frame struct {
	node     *Node
	text     inherited
	w, h     float64
	face     font.Face
	lines    []string
	children []*frame
}

// inherited are the text attributes that flow from a box to its children.
type inherited struct {
	color      color.NRGBA
	family     string
	weight     Weight
	size       float64
	lineHeight float64
	align      TextAlign
}

func (in inherited) with(s Style) inherited {
	if s.Color != (color.NRGBA{}) {
		in.color = s.Color
	}
	if s.FontFamily != "" {
		in.family = s.FontFamily
	}
	if s.FontWeight != 0 {
		in.weight = s.FontWeight
	}
	if s.FontSize > 0 {
		in.size = s.FontSize
	}
	if s.LineHeight > 0 {
		in.lineHeight = s.LineHeight
	}
	if s.TextAlign != TextAlignInherit {
		in.align = s.TextAlign
	}
	return in
}

var rootText = inherited{
	color:      color.NRGBA{A: 0xff},
	family:     DefaultFontFamily,
	weight:     WeightRegular,
	size:       16,
	lineHeight: 1.2,
	align:      TextAlignLeft,
}

// Rasterize lays out root and draws it onto a transparent width×height
// image using fonts. Malformed font bytes fail with a decode error; text
// using a family/weight pair missing from fonts fails with a rasterize
// error.
func Rasterize(root *Node, width, height int, fonts []FontAsset) (*image.NRGBA, error) {
	fs, err := LoadFonts(fonts)
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	return RasterizeWith(root, width, height, fs)
}

// RasterizeWith is Rasterize with already parsed fonts.
func RasterizeWith(root *Node, width, height int, fs *FontSet) (*image.NRGBA, error) {
	if root == nil {
		return nil, errors.New(errors.CodeRasterize, "layout tree is empty")
	}

	dc := gg.NewContext(width, height)
	r := &rasterizer{dc: dc, fonts: fs}

	top, err := r.measure(root, float64(width), rootText)
	if err != nil {
		return nil, err
	}

	w, h := top.w, top.h
	if root.Style.Width == 0 {
		w = float64(width)
	}
	if root.Style.Height == 0 {
		h = float64(height)
	}
	r.place(top, 0, 0, w, h, 1)

	return imaging.Clone(dc.Image()), nil
}

type rasterizer struct {
	dc    *gg.Context
	fonts *FontSet
}

// measure resolves the size of n given the width available to it.
func (r *rasterizer) measure(n *Node, avail float64, parent inherited) (*frame, error) {
	fr := &frame{node: n, text: parent.with(n.Style)}
	s := n.Style

	if n.Kind == KindText {
		face, err := r.fonts.Face(fr.text.family, fr.text.weight, fr.text.size)
		if err != nil {
			return nil, err
		}
		limit := avail
		if s.Width > 0 {
			limit = s.Width
		}
		if s.MaxWidth > 0 && s.MaxWidth < limit {
			limit = s.MaxWidth
		}

		r.dc.SetFontFace(face)
		fr.face = face
		fr.lines = r.dc.WordWrap(n.Text, limit)
		for _, line := range fr.lines {
			lw, _ := r.dc.MeasureString(line)
			fr.w = math.Max(fr.w, math.Ceil(lw))
		}
		fr.w = math.Min(fr.w, limit)
		fr.h = float64(len(fr.lines)) * lineAdvance(fr.text)
		if s.Width > 0 {
			fr.w = s.Width
		}
		if s.Height > 0 {
			fr.h = s.Height
		}
		return fr, nil
	}

	limit := avail
	if s.Width > 0 {
		limit = s.Width
	}
	if s.MaxWidth > 0 && s.MaxWidth < limit {
		limit = s.MaxWidth
	}
	inset := s.Padding + s.BorderWidth
	inner := math.Max(0, limit-2*inset)

	var contentW, contentH float64
	for i, child := range n.Children {
		cf, err := r.measure(child, inner, fr.text)
		if err != nil {
			return nil, err
		}
		fr.children = append(fr.children, cf)

		if s.Direction == Row {
			contentW += cf.w
			contentH = math.Max(contentH, cf.h)
			if i > 0 {
				contentW += s.Gap
			}
			continue
		}
		contentW = math.Max(contentW, cf.w)
		contentH += cf.h
		if i > 0 {
			contentH += s.Gap
		}
	}

	fr.w = math.Min(contentW+2*inset, limit)
	fr.h = contentH + 2*inset
	if s.Width > 0 {
		fr.w = s.Width
	}
	if s.Height > 0 {
		fr.h = s.Height
	}
	return fr, nil
}

// place draws fr into the x,y,w,h rectangle and positions its children.
func (r *rasterizer) place(fr *frame, x, y, w, h, opacity float64) {
	s := fr.node.Style
	if s.Opacity > 0 {
		opacity *= s.Opacity
	}

	if fr.node.Kind == KindText {
		r.drawText(fr, x, y, w, opacity)
		return
	}

	r.drawPanel(s, x, y, w, h, opacity)

	inset := s.Padding + s.BorderWidth
	ix, iy := x+inset, y+inset
	iw, ih := math.Max(0, w-2*inset), math.Max(0, h-2*inset)

	main, cross := ih, iw
	if s.Direction == Row {
		main, cross = iw, ih
	}

	used := 0.0
	for i, cf := range fr.children {
		if i > 0 {
			used += s.Gap
		}
		used += mainSize(cf, s.Direction)
	}

	offset := 0.0
	switch s.Justify {
	case JustifyCenter:
		offset = (main - used) / 2
	case JustifyEnd:
		offset = main - used
	}

	for _, cf := range fr.children {
		cw, ch := cf.w, cf.h
		crossSize := ch
		if s.Direction == Column {
			crossSize = cw
		}
		if s.Align == AlignStretch && fixedCross(cf, s.Direction) == 0 {
			crossSize = cross
			if s.Direction == Column && cf.node.Style.MaxWidth > 0 {
				crossSize = math.Min(crossSize, cf.node.Style.MaxWidth)
			}
		}

		crossOffset := 0.0
		switch s.Align {
		case AlignCenter:
			crossOffset = (cross - crossSize) / 2
		case AlignEnd:
			crossOffset = cross - crossSize
		}

		if s.Direction == Row {
			r.place(cf, ix+offset, iy+crossOffset, cw, crossSize, opacity)
			offset += cw + s.Gap
			continue
		}
		r.place(cf, ix+crossOffset, iy+offset, crossSize, ch, opacity)
		offset += ch + s.Gap
	}
}

func (r *rasterizer) drawPanel(s Style, x, y, w, h, opacity float64) {
	dc := r.dc
	if s.Background.A > 0 {
		dc.DrawRoundedRectangle(x, y, w, h, s.BorderRadius)
		dc.SetColor(fade(s.Background, opacity))
		dc.Fill()
	}
	if s.BorderWidth > 0 && s.BorderColor.A > 0 {
		half := s.BorderWidth / 2
		dc.DrawRoundedRectangle(x+half, y+half, w-s.BorderWidth, h-s.BorderWidth, math.Max(0, s.BorderRadius-half))
		dc.SetLineWidth(s.BorderWidth)
		dc.SetColor(fade(s.BorderColor, opacity))
		dc.Stroke()
	}
}

func (r *rasterizer) drawText(fr *frame, x, y, w, opacity float64) {
	dc := r.dc
	dc.SetFontFace(fr.face)
	dc.SetColor(fade(fr.text.color, opacity))

	m := fr.face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	advance := lineAdvance(fr.text)

	for i, line := range fr.lines {
		lw, _ := dc.MeasureString(line)
		lx := x
		switch fr.text.align {
		case TextAlignCenter:
			lx = x + (w-lw)/2
		case TextAlignRight:
			lx = x + w - lw
		}
		top := y + float64(i)*advance
		baseline := top + (advance-(ascent+descent))/2 + ascent
		dc.DrawString(line, lx, baseline)
	}
}

func lineAdvance(t inherited) float64 {
	return t.size * t.lineHeight
}

func mainSize(fr *frame, d Direction) float64 {
	if d == Row {
		return fr.w
	}
	return fr.h
}

func fixedCross(fr *frame, d Direction) float64 {
	if d == Row {
		return fr.node.Style.Height
	}
	return fr.node.Style.Width
}

func fade(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity >= 1 {
		return c
	}
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}
