// Package pipeline runs a render request end to end: fetch, size, lay
// out, rasterize, composite and deliver.
package pipeline

import (
	"context"
	"image"
	"time"

	"socialcard/internal/assets"
	"socialcard/internal/output"
	"socialcard/internal/pkg/errors"
	"socialcard/internal/pkg/logger"
	"socialcard/internal/render"
)

// Fetcher retrieves remote assets concurrently, in order.
type Fetcher interface {
	FetchAll(ctx context.Context, urls ...string) ([][]byte, error)
}

// Dispatcher delivers the final image.
type Dispatcher interface {
	Dispatch(ctx context.Context, img image.Image, mode output.Mode) (output.Result, error)
}

// Config configures fonts and the default layout.
type Config struct {
	// DefaultVariant is used when a request names none or an unknown one.
	DefaultVariant string
	// FontFamily labels the configured font files.
	FontFamily string
	// FontRegularURL and FontSemiBoldURL are http(s) URLs, fetched on every
	// render, or local paths, read once by New. When both are empty the
	// embedded Go fonts are used.
	FontRegularURL  string
	FontSemiBoldURL string
}

type fontSource struct {
	weight render.Weight
	url    string
	data   []byte
}

// Pipeline renders cards. It holds no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	fetcher    Fetcher
	dispatcher Dispatcher
	variant    render.Variant
	family     string
	fonts      []fontSource
	log        *logger.Logger
}

// New validates cfg and loads local font files.
func New(cfg Config, fetcher Fetcher, dispatcher Dispatcher, log *logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.Discard()
	}

	variant := render.Centered
	if cfg.DefaultVariant != "" {
		v, ok := render.LookupVariant(cfg.DefaultVariant)
		if !ok {
			return nil, errors.Newf(errors.CodeValidation, "unknown render variant: %s", cfg.DefaultVariant)
		}
		variant = v
	}

	p := &Pipeline{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		variant:    variant,
		family:     render.DefaultFontFamily,
		log:        log.WithComponent("pipeline"),
	}

	if cfg.FontRegularURL == "" && cfg.FontSemiBoldURL == "" {
		for _, f := range render.DefaultFonts() {
			p.fonts = append(p.fonts, fontSource{weight: f.Weight, data: f.Data})
		}
		return p, nil
	}
	if cfg.FontRegularURL == "" || cfg.FontSemiBoldURL == "" {
		return nil, errors.New(errors.CodeValidation, "both regular and semibold font sources are required")
	}
	if cfg.FontFamily != "" {
		p.family = cfg.FontFamily
	}

	for _, src := range []fontSource{
		{weight: render.WeightRegular, url: cfg.FontRegularURL},
		{weight: render.WeightSemiBold, url: cfg.FontSemiBoldURL},
	} {
		if !assets.IsRemote(src.url) {
			data, err := assets.ReadFile(src.url)
			if err != nil {
				return nil, err
			}
			src.data = data
		}
		p.fonts = append(p.fonts, src)
	}
	return p, nil
}

// DefaultVariant returns the layout used when a request names none.
func (p *Pipeline) DefaultVariant() render.Variant {
	return p.variant
}

// Variant resolves a requested layout name.
func (p *Pipeline) Variant(name string) render.Variant {
	if v, ok := render.LookupVariant(name); ok {
		return v
	}
	return p.variant
}

// Run renders req and delivers it. Background and remote fonts are fetched
// concurrently; any failure aborts the render.
func (p *Pipeline) Run(ctx context.Context, req Request) (output.Result, error) {
	start := time.Now()
	log := p.log.FromContext(ctx)

	urls := []string{req.BackgroundURL}
	for _, f := range p.fonts {
		if f.data == nil {
			urls = append(urls, f.url)
		}
	}

	bodies, err := p.fetcher.FetchAll(ctx, urls...)
	if err != nil {
		return output.Result{}, err
	}
	background, remote := bodies[0], bodies[1:]

	fonts := make([]render.FontAsset, 0, len(p.fonts))
	for _, f := range p.fonts {
		data := f.data
		if data == nil {
			data, remote = remote[0], remote[1:]
		}
		fonts = append(fonts, render.FontAsset{Family: p.family, Weight: f.weight, Data: data})
	}
	fetched := time.Since(start)

	variant := p.Variant(req.Variant).WithFontFamily(p.family)
	sizes := render.ComputeSizes(req.Title, req.Message)
	scene := render.BuildScene(req.Title, req.Message, sizes.TitlePx, sizes.BodyPx, variant)

	overlay, err := render.Rasterize(scene, render.CanvasWidth, render.CanvasHeight, fonts)
	if err != nil {
		return output.Result{}, err
	}

	final, err := render.Composite(background, overlay)
	if err != nil {
		return output.Result{}, err
	}

	res, err := p.dispatcher.Dispatch(ctx, final, req.Mode)
	if err != nil {
		return output.Result{}, err
	}

	log.Info("render completed",
		"variant", variant.Name,
		"mode", res.Mode,
		"units", sizes.Units,
		"scale", sizes.Scale,
		"bytes", len(res.Bytes),
		"fetch_ms", fetched.Milliseconds(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
