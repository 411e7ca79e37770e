// Package output encodes a finished card and delivers it either as raw
// PNG bytes or as a URL to a stored copy.
package output

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"socialcard/internal/pkg/errors"
	"socialcard/internal/pkg/logger"
	"socialcard/internal/ports"
)

// Mode selects how a render is delivered.
type Mode string

const (
	// ModeBytes returns the PNG in the response body.
	ModeBytes Mode = "binary"
	// ModeStoredURL uploads the PNG and returns its public URL.
	ModeStoredURL Mode = "url"
)

// ParseMode maps a request value onto a Mode. Anything other than "url"
// is ModeBytes.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeStoredURL)) {
		return ModeStoredURL
	}
	return ModeBytes
}

const (
	ContentTypePNG = "image/png"
	CacheNoStore   = "no-store"
	KeyPrefix      = "social/"
)

// Result is a delivered render. Bytes is always set; URL and Key only in
// ModeStoredURL.
type Result struct {
	Mode         Mode
	Bytes        []byte
	ContentType  string
	CacheControl string
	URL          string
	Key          string
}

// StoredRender describes an uploaded render for the Recorder.
type StoredRender struct {
	Key      string
	URL      string
	Provider string
	Size     int64
}

// Recorder persists a note of each stored render.
type Recorder interface {
	RecordRender(ctx context.Context, r StoredRender) error
}

// Dispatcher delivers rendered images.
type Dispatcher struct {
	storage  ports.StorageProvider
	recorder Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. storage may be nil, in which case
// ModeStoredURL fails with a storage error; recorder may be nil.
func NewDispatcher(storage ports.StorageProvider, recorder Recorder, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		storage:  storage,
		recorder: recorder,
		log:      log.WithComponent("output"),
		now:      time.Now,
	}
}

// Dispatch encodes img as PNG and delivers it according to mode.
func (d *Dispatcher) Dispatch(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	data, err := Encode(img)
	if err != nil {
		return Result{}, err
	}

	if mode != ModeStoredURL {
		return Result{
			Mode:         ModeBytes,
			Bytes:        data,
			ContentType:  ContentTypePNG,
			CacheControl: CacheNoStore,
		}, nil
	}

	return d.store(ctx, data)
}

func (d *Dispatcher) store(ctx context.Context, data []byte) (Result, error) {
	if d.storage == nil {
		return Result{}, errors.New(errors.CodeStorage, "storage is not configured")
	}

	key, err := NewKey(d.now())
	if err != nil {
		return Result{}, errors.WrapWithCode(err, errors.CodeStorage, "output.store", "failed to generate object key")
	}

	out, err := d.storage.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: ContentTypePNG,
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		Public:      true,
	})
	if err != nil {
		return Result{}, errors.WrapWithCode(err, errors.CodeStorage, "output.store", "failed to store render").
			WithField("key", key).
			WithField("provider", d.storage.Provider())
	}
	if out.URL == "" {
		return Result{}, errors.New(errors.CodeStorage, "storage returned no public url").
			WithField("key", key).
			WithField("provider", d.storage.Provider())
	}

	log := d.log.FromContext(ctx)
	log.Info("render stored", "key", key, "object_key", out.ObjectKey, "provider", d.storage.Provider(), "bytes", len(data))

	if d.recorder != nil {
		rec := StoredRender{Key: out.ObjectKey, URL: out.URL, Provider: d.storage.Provider(), Size: int64(len(data))}
		if err := d.recorder.RecordRender(ctx, rec); err != nil {
			log.WithError(err).Warn("failed to record stored render", "key", key)
		}
	}

	return Result{
		Mode:        ModeStoredURL,
		Bytes:       data,
		ContentType: ContentTypePNG,
		URL:         out.URL,
		Key:         out.ObjectKey,
	}, nil
}

// Encode returns img as PNG bytes.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInternal, "output.encode", "failed to encode png")
	}
	return buf.Bytes(), nil
}

// NewKey returns a storage key of the form social/<unix-millis>-<16 hex>.png.
func NewKey(now time.Time) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d-%s.png", KeyPrefix, now.UnixMilli(), hex.EncodeToString(b[:])), nil
}
