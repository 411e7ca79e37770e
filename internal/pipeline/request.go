package pipeline

import (
	"strings"

	"socialcard/internal/output"
	"socialcard/internal/pkg/errors"
)

// Fallback texts used when a title or message is missing, blank or not a
// string.
const (
	FallbackTitle   = "Title"
	FallbackMessage = "Message"
)

// RawRequest is the decoded JSON body of a render request. Fields are
// untyped so that wrong JSON types degrade to fallbacks instead of failing
// the decode.
type RawRequest struct {
	Title         any `json:"title"`
	Message       any `json:"message"`
	BackgroundURL any `json:"backgroundUrl"`
	Mode          any `json:"mode"`
	Variant       any `json:"variant"`
}

// Request is a normalised render request.
type Request struct {
	Title         string      `json:"title"`
	Message       string      `json:"message"`
	BackgroundURL string      `json:"backgroundUrl"`
	Mode          output.Mode `json:"mode"`
	// Variant is the requested layout name; empty or unknown names use
	// the pipeline default.
	Variant string `json:"variant,omitempty"`
}

// NewRequest normalises raw. A missing or blank backgroundUrl is a
// validation error.
func NewRequest(raw RawRequest) (Request, error) {
	bg := text(raw.BackgroundURL)
	if bg == "" {
		return Request{}, errors.ValidationField("backgroundUrl", "backgroundUrl is required")
	}

	return Request{
		Title:         textOr(raw.Title, FallbackTitle),
		Message:       textOr(raw.Message, FallbackMessage),
		BackgroundURL: bg,
		Mode:          output.ParseMode(text(raw.Mode)),
		Variant:       text(raw.Variant),
	}, nil
}

func text(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func textOr(v any, fallback string) string {
	if s := text(v); s != "" {
		return s
	}
	return fallback
}
