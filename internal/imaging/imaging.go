// Package imaging prepares item photos for storage.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the longest edge of a stored photo.
const MaxDimension = 1024

// JPEGQuality is the quality stored photos are encoded with.
const JPEGQuality = 85

// MaxInputSize caps how much of an upload is read.
const MaxInputSize = 20 << 20

// ErrUnsupported is returned for input that is not a JPEG, PNG or WebP image.
var ErrUnsupported = errors.New("unsupported image format")

// ErrInvalidImage is returned for input that is too large or cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Process validates a photo by its content, shrinks it to fit MaxDimension
// and re-encodes it as JPEG.
func Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrInvalidImage, MaxInputSize)
	}

	if kind := http.DetectContentType(data); !accepted[kind] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(img, MaxDimension), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so that neither edge exceeds limit, keeping its aspect
// ratio. Smaller images are returned unchanged.
func fit(img image.Image, limit int) image.Image {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w <= limit && h <= limit {
		return img
	}

	if w >= h {
		w, h = limit, h*limit/w
	} else {
		w, h = w*limit/h, limit
	}
	w, h = atLeastOne(w), atLeastOne(h)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
