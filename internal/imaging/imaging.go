// Package imaging normalizes uploaded equipment photos: format sniffing,
// downscaling and JPEG re-encoding, so the database only ever stores one
// bounded representation regardless of what clients send.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"

	"golang.org/x/image/draw"

	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MaxDimension is the maximum width or height of a stored photo.
const MaxDimension = 1280

// JPEGQuality is the compression quality for re-encoded photos.
const JPEGQuality = 82

// allowedMIME lists the accepted input formats, keyed by sniffed MIME type.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Photo is a normalized equipment photo ready for storage.
type Photo struct {
	Data []byte
	MIME string
}

// Normalize validates a photo upload by sniffing its bytes, downscales it to
// fit MaxDimension and re-encodes it as JPEG. Client-supplied content types
// are ignored; only the bytes decide.
func Normalize(data []byte) (*Photo, error) {
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("unsupported photo format %s (JPEG, PNG or WebP accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// fit scales img down so neither dimension exceeds maxDim, preserving aspect
// ratio. Images already within bounds are returned unchanged; nothing is ever
// upscaled.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(h*maxDim/w, 1)
	} else {
		newW = max(w*maxDim/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
