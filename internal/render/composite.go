package render

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"socialcard/internal/pkg/errors"
)

// Decode reads a background image in any registered format (PNG, JPEG,
// GIF, WebP), honoring EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeDecode, "render.decode", "failed to decode background image")
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New(errors.CodeDecode, "failed to decode background image").
			WithField("reason", "empty image")
	}
	return img, nil
}

// CoverFit scales img to cover w×h, preserving aspect ratio, and crops the
// overflow around the center. An image already at w×h is returned
// unchanged.
func CoverFit(img image.Image, w, h int) *image.NRGBA {
	return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
}

// Composite decodes background, cover-fits it to the canvas and draws
// overlay on top with source-over blending.
func Composite(background []byte, overlay image.Image) (*image.NRGBA, error) {
	bg, err := Decode(background)
	if err != nil {
		return nil, err
	}
	return CompositeImage(bg, overlay), nil
}

// CompositeImage is Composite with an already decoded background.
func CompositeImage(background, overlay image.Image) *image.NRGBA {
	base := CoverFit(background, CanvasWidth, CanvasHeight)
	return imaging.Overlay(base, overlay, image.Pt(0, 0), 1.0)
}
