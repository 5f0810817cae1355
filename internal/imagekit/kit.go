// Package imagekit is the imaging capability the compression pipeline calls
// into. Kit is the narrow surface the pipeline depends on; Library is the
// implementation backed by disintegration/imaging, gen2brain/webp,
// ericpauley/go-quantize and spakin/netpbm.
package imagekit

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	ErrDecode   = errors.New("decode failed")
	ErrEncode   = errors.New("encode failed")
	ErrIO       = errors.New("i/o failure")
	ErrNotFound = errors.New("file not found")
)

// Dither selects how colours are diffused when reducing to a palette.
type Dither int

const (
	DitherNone Dither = iota
	DitherFloydSteinberg
)

func (d Dither) String() string {
	switch d {
	case DitherNone:
		return "none"
	case DitherFloydSteinberg:
		return "floyd-steinberg"
	default:
		return fmt.Sprintf("dither(%d)", int(d))
	}
}

// ParseDither maps a flag value onto a Dither mode.
func ParseDither(s string) (Dither, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DitherNone, nil
	case "floyd-steinberg", "floydsteinberg", "fs":
		return DitherFloydSteinberg, nil
	default:
		return DitherNone, fmt.Errorf("unknown dither mode %q", s)
	}
}

// Kit is every imaging operation the pipeline needs. Each transform returns
// a new image and leaves its argument untouched.
type Kit interface {
	Decode(path string) (image.Image, error)
	StripMetadata(img image.Image) image.Image
	Resize(img image.Image, width, height int) image.Image
	Fit(img image.Image, maxDim int) image.Image
	Quantize(img image.Image, colors int, dither Dither) *image.Paletted
	Flatten(img image.Image) image.Image
	HasTransparency(img image.Image) bool
	EncodeLossy(img image.Image, path string, quality, effort int, optimize bool) error
	EncodeLosslessPalette(img image.Image, path string, optimize bool) error
	FileSize(path string) (int64, error)
}

// LossyExt is the file extension written by EncodeLossy.
const LossyExt = ".webp"

// LosslessExt is the file extension written by EncodeLosslessPalette.
const LosslessExt = ".png"
