// Package vision turns property photos into short text descriptions that
// ground generated copy.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// MaxImageBytes caps decoded photo payloads.
const MaxImageBytes = 7 * 1024 * 1024

// ErrEmptyImage is returned for a missing or zero-length photo payload.
var ErrEmptyImage = errors.New("vision: empty image data")

// Image is raw photo bytes plus their MIME type.
type Image struct {
	Data []byte
	MIME string
}

// Describer returns a literal description of what a photo shows.
type Describer interface {
	Describe(ctx context.Context, img Image) (string, error)
}

const describePrompt = `Describe this vacation rental photo for someone writing about the stay.
Say only what is literally visible: the space or view, light and mood, materials, furniture and any notable features.
Do not guess at anything outside the frame and do not invent amenities.
Answer in 3-5 plain sentences, no lists, no marketing adjectives.`

// FallbackDescription is used whenever a photo cannot be described.
func FallbackDescription(propertyName string) string {
	name := strings.TrimSpace(propertyName)
	if name == "" {
		name = "this property"
	}
	return fmt.Sprintf("A photo of %s, showing the space guests can expect during their stay.", name)
}

// DescribeOrFallback prepares img and describes it with d. It never fails:
// any error, a nil describer or an empty answer yields FallbackDescription.
func DescribeOrFallback(ctx context.Context, d Describer, img Image, propertyName string) string {
	if d == nil || len(img.Data) == 0 {
		return FallbackDescription(propertyName)
	}

	prepared, err := PrepareImage(img)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("photo not re-encoded, describing original bytes")
		prepared = img
	}

	text, err := d.Describe(ctx, prepared)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("photo description failed, using fallback")
		return FallbackDescription(propertyName)
	}
	if text = strings.TrimSpace(text); text == "" {
		return FallbackDescription(propertyName)
	}
	return text
}

// DecodeImage accepts plain base64 or a data URL such as
// "data:image/png;base64,....".
func DecodeImage(raw string) (Image, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Image{}, ErrEmptyImage
	}

	var mime string
	if strings.HasPrefix(raw, "data:") {
		comma := strings.Index(raw, ",")
		if comma < 0 {
			return Image{}, fmt.Errorf("vision: malformed data URL")
		}
		meta := raw[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return Image{}, fmt.Errorf("vision: data URL is not base64")
		}
		mime = strings.TrimSuffix(meta, ";base64")
		raw = raw[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return Image{}, fmt.Errorf("vision: decode base64: %w", err)
		}
	}
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("vision: image exceeds %d bytes", MaxImageBytes)
	}
	return Image{Data: data, MIME: detectMime(data, mime)}, nil
}

// DataURL renders img as a base64 data URL.
func (img Image) DataURL() string {
	return "data:" + detectMime(img.Data, img.MIME) + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func detectMime(data []byte, provided string) string {
	mime := strings.TrimSpace(provided)
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if !strings.Contains(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}
