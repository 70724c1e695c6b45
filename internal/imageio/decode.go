// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package imageio turns the base64 image strings sent by clients into decoded,
// size-bounded images.
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxSide is the largest width or height kept after decoding.
const DefaultMaxSide = 800

// ErrInvalidImage is returned for payloads that are not valid base64 or not a
// decodable image.
var ErrInvalidImage = errors.New("invalid image")

// Decoded is a decoded image together with what was learned while decoding it.
type Decoded struct {
	Image  image.Image
	Format string
	// Width and Height are the dimensions before any downscaling.
	Width  int
	Height int
	Scaled bool
}

// Options tunes Decode.
type Options struct {
	// MaxSide bounds the decoded image; 0 means DefaultMaxSide, negative disables bounding.
	MaxSide int
	// MaxBytes rejects payloads whose decoded size exceeds it; 0 means no limit.
	MaxBytes int
}

// Decode parses a base64 image, optionally wrapped in a data URL such as
// "data:image/png;base64,...". Every failure wraps ErrInvalidImage.
func Decode(payload string, opts Options) (*Decoded, error) {
	raw, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	if opts.MaxBytes > 0 && len(raw) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidImage, len(raw), opts.MaxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	out := &Decoded{Image: img, Format: format, Width: b.Dx(), Height: b.Dy()}
	maxSide := opts.MaxSide
	if maxSide == 0 {
		maxSide = DefaultMaxSide
	}
	if maxSide > 0 {
		out.Image, out.Scaled = Bound(img, maxSide)
	}
	return out, nil
}

// DecodeBase64 strips an optional data URL header and surrounding whitespace and
// decodes the rest as padded or unpadded standard base64.
func DecodeBase64(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
		}
		s = s[comma+1:]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrInvalidImage, err)
		}
	}
	return raw, nil
}

// Bound downscales img so neither side exceeds maxSide, keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func Bound(img image.Image, maxSide int) (image.Image, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img, false
	}

	nw, nh := maxSide, maxSide
	if w >= h {
		nh = max(1, h*maxSide/w)
	} else {
		nw = max(1, w*maxSide/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, true
}
