package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"socialcard/internal/pkg/errors"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestCoverFitIdempotent(t *testing.T) {
	src := gradient(CanvasWidth, CanvasHeight)
	got := CoverFit(src, CanvasWidth, CanvasHeight)

	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("cover fit of a canvas-sized image should leave pixels unchanged")
	}

	again := CoverFit(got, CanvasWidth, CanvasHeight)
	if !bytes.Equal(again.Pix, got.Pix) {
		t.Error("cover fit should be idempotent")
	}
}

func TestCompositeDimensions(t *testing.T) {
	overlay := image.NewNRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))

	tests := []struct {
		name string
		w, h int
	}{
		{"landscape", 2000, 1000},
		{"portrait", 500, 1500},
		{"small square", 300, 300},
		{"exact", CanvasWidth, CanvasHeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bg := encodePNG(t, solid(tt.w, tt.h, color.NRGBA{B: 0xff, A: 0xff}))

			out, err := Composite(bg, overlay)
			if err != nil {
				t.Fatalf("Composite() error = %v", err)
			}
			if b := out.Bounds(); b.Dx() != CanvasWidth || b.Dy() != CanvasHeight {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), CanvasWidth, CanvasHeight)
			}
		})
	}
}

func TestCompositeOverlayWins(t *testing.T) {
	bg := encodePNG(t, solid(CanvasWidth, CanvasHeight, color.NRGBA{B: 0xff, A: 0xff}))

	overlay := image.NewNRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	red := color.NRGBA{R: 0xff, A: 0xff}
	overlay.SetNRGBA(10, 10, red)

	out, err := Composite(bg, overlay)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}

	if got := out.NRGBAAt(10, 10); got != red {
		t.Errorf("overlay pixel = %v, want %v", got, red)
	}
	if got := out.NRGBAAt(500, 500); got.B != 0xff || got.R != 0 {
		t.Errorf("background pixel = %v, want blue", got)
	}
}

func TestCompositeDecodeError(t *testing.T) {
	overlay := image.NewNRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))

	_, err := Composite([]byte("definitely not an image"), overlay)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.GetCode(err) != errors.CodeDecode {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.CodeDecode)
	}
	if msg := errors.PublicMessage(err); msg != "failed to decode background image: "+image.ErrFormat.Error() {
		t.Errorf("message = %q", msg)
	}
}
