package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// DefaultMaxDimension bounds the longest image edge before a turn is sent to
// the model; large attachments otherwise blow the relay's payload budget.
const DefaultMaxDimension = 800

// DefaultQuality is the JPEG quality used for re-encoded attachments.
const DefaultQuality = 60

// Codec re-encodes a user-supplied image into a compact data URI. It is an
// interface so non-JPEG strategies (or hardware-backed resizers) can be
// swapped in without touching the orchestrator.
type Codec interface {
	Encode(data []byte, maxDimension int) (string, error)
}

// JPEGCodec scales the image down to maxDimension on its longest edge and
// re-encodes it as JPEG.
type JPEGCodec struct {
	Quality int
}

func NewJPEGCodec() JPEGCodec {
	return JPEGCodec{Quality: DefaultQuality}
}

func (c JPEGCodec) Encode(data []byte, maxDimension int) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("could not decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxDimension || height > maxDimension {
		if width > height {
			height = height * maxDimension / width
			width = maxDimension
		} else {
			width = width * maxDimension / height
			height = maxDimension
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		src = scaled
	}

	quality := c.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("could not encode image: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodePayload accepts either a bare base64 payload or a full data URI and
// returns the raw image bytes.
func DecodePayload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		_, encoded, found := strings.Cut(payload, ",")
		if !found {
			return nil, fmt.Errorf("malformed data uri")
		}
		payload = encoded
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image payload: %w", err)
	}
	return data, nil
}
