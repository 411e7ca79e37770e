package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"socialcard/internal/assets"
	"socialcard/internal/output"
	"socialcard/internal/pkg/errors"
	"socialcard/internal/render"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 0x40, G: 0x80, B: 0xc0, A: 0xff})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func assetServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	bg := pngBytes(t, 2000, 1000)
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/bg.png":
			w.Write(bg)
		case "/regular.ttf":
			w.Write(goregular.TTF)
		case "/bold.ttf":
			w.Write(gobold.TTF)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestPipeline(t *testing.T, cfg Config, client *http.Client) *Pipeline {
	t.Helper()
	p, err := New(cfg, assets.NewFetcher(client, nil), output.NewDispatcher(nil, nil, nil), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func decodeSize(t *testing.T, data []byte) image.Point {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img.Bounds().Size()
}

func TestRunBinary(t *testing.T) {
	srv, _ := assetServer(t)

	for _, variant := range []string{"centered", "card"} {
		t.Run(variant, func(t *testing.T) {
			p := newTestPipeline(t, Config{}, srv.Client())
			req := Request{Title: "Hi", Message: "Welcome", BackgroundURL: srv.URL + "/bg.png", Mode: output.ModeBytes, Variant: variant}

			res, err := p.Run(context.Background(), req)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.ContentType != output.ContentTypePNG {
				t.Errorf("expected image/png, got %q", res.ContentType)
			}
			if got := decodeSize(t, res.Bytes); got != image.Pt(render.CanvasWidth, render.CanvasHeight) {
				t.Errorf("expected 1080x1080, got %v", got)
			}
		})
	}
}

func TestRunRemoteFonts(t *testing.T) {
	srv, hits := assetServer(t)
	p := newTestPipeline(t, Config{
		FontFamily:      "Brand",
		FontRegularURL:  srv.URL + "/regular.ttf",
		FontSemiBoldURL: srv.URL + "/bold.ttf",
	}, srv.Client())

	req := Request{Title: "Hi", Message: "Welcome", BackgroundURL: srv.URL + "/bg.png"}
	if _, err := p.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("expected background and two fonts fetched, got %d requests", hits.Load())
	}
}

func TestRunLocalFonts(t *testing.T) {
	srv, hits := assetServer(t)
	dir := t.TempDir()
	regular := filepath.Join(dir, "regular.ttf")
	bold := filepath.Join(dir, "bold.ttf")
	if err := os.WriteFile(regular, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bold, gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}

	p := newTestPipeline(t, Config{FontRegularURL: regular, FontSemiBoldURL: bold}, srv.Client())
	req := Request{Title: "Hi", Message: "Welcome", BackgroundURL: srv.URL + "/bg.png"}
	if _, err := p.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected only the background fetched, got %d requests", hits.Load())
	}
}

func TestRunFontFetchFailureAborts(t *testing.T) {
	srv, _ := assetServer(t)
	p := newTestPipeline(t, Config{
		FontRegularURL:  srv.URL + "/missing.ttf",
		FontSemiBoldURL: srv.URL + "/bold.ttf",
	}, srv.Client())

	_, err := p.Run(context.Background(), Request{Title: "a", Message: "b", BackgroundURL: srv.URL + "/bg.png"})
	if errors.GetCode(err) != errors.CodeAssetFetch {
		t.Fatalf("expected asset fetch error, got %v", err)
	}
	if !strings.Contains(errors.PublicMessage(err), "missing.ttf") {
		t.Errorf("expected message naming the font url, got %q", errors.PublicMessage(err))
	}
}

func TestRunBackgroundNotFound(t *testing.T) {
	srv, _ := assetServer(t)
	p := newTestPipeline(t, Config{}, srv.Client())

	url := srv.URL + "/nope.png"
	_, err := p.Run(context.Background(), Request{Title: "a", Message: "b", BackgroundURL: url})
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := errors.PublicMessage(err); msg != "failed to fetch "+url+" (404)" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestRunUndecodableBackground(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	p := newTestPipeline(t, Config{}, srv.Client())
	_, err := p.Run(context.Background(), Request{Title: "a", Message: "b", BackgroundURL: srv.URL})
	if errors.GetCode(err) != errors.CodeDecode {
		t.Errorf("expected decode error, got %v", err)
	}
	if msg := errors.PublicMessage(err); !strings.Contains(msg, "unknown format") {
		t.Errorf("expected decoder cause in message, got %q", msg)
	}
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown variant", Config{DefaultVariant: "poster"}},
		{"only one font", Config{FontRegularURL: "https://x/regular.ttf"}},
		{"missing local font", Config{FontRegularURL: "/nope/r.ttf", FontSemiBoldURL: "/nope/b.ttf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil, nil, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestVariantResolution(t *testing.T) {
	p, err := New(Config{DefaultVariant: "card"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := p.Variant("").Name; got != render.VariantCard {
		t.Errorf("expected default card, got %s", got)
	}
	if got := p.Variant("centered").Name; got != render.VariantCentered {
		t.Errorf("expected centered, got %s", got)
	}
	if got := p.Variant("poster").Name; got != render.VariantCard {
		t.Errorf("expected fallback to card, got %s", got)
	}
}
