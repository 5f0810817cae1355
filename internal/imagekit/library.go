package imagekit

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/gen2brain/webp"
	_ "github.com/spakin/netpbm" // registers the PPM/PGM/PBM decoders
)

// Library implements Kit. It holds no state and is safe for concurrent use.
type Library struct{}

func New() *Library {
	return &Library{}
}

var _ Kit = (*Library)(nil)

func (Library) Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// StripMetadata copies the pixel buffer into a fresh image of the same
// concrete type. Decoded images never carry side-channel blocks, so the
// copy is all that reaches the encoder.
func (Library) StripMetadata(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.RGBA:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		return &dst
	case *image.NRGBA:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		return &dst
	case *image.RGBA64:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		return &dst
	case *image.NRGBA64:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		return &dst
	case *image.Gray:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		return &dst
	case *image.Gray16:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		return &dst
	case *image.CMYK:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		return &dst
	case *image.Paletted:
		dst := *src
		dst.Pix = slices.Clone(src.Pix)
		dst.Palette = slices.Clone(src.Palette)
		return &dst
	case *image.YCbCr:
		dst := *src
		dst.Y = slices.Clone(src.Y)
		dst.Cb = slices.Clone(src.Cb)
		dst.Cr = slices.Clone(src.Cr)
		return &dst
	case *image.NYCbCrA:
		dst := *src
		dst.Y = slices.Clone(src.Y)
		dst.Cb = slices.Clone(src.Cb)
		dst.Cr = slices.Clone(src.Cr)
		dst.A = slices.Clone(src.A)
		return &dst
	default:
		return imaging.Clone(img)
	}
}

func (Library) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Fit shrinks img so its longer side is at most maxDim. Images that already
// fit come back as an unscaled copy.
func (Library) Fit(img image.Image, maxDim int) image.Image {
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// Flatten composites img over white and returns an opaque RGB image.
func (Library) Flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func (Library) HasTransparency(img image.Image) bool {
	return hasTransparency(img)
}

func hasTransparency(img image.Image) bool {
	if p, ok := img.(*image.Paletted); ok {
		for _, c := range p.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

// Quantize reduces img to at most colors palette entries. Transparent
// images reserve the first entry for fully transparent pixels.
func (Library) Quantize(img image.Image, colors int, dither Dither) *image.Paletted {
	if colors <= 0 || colors > 256 {
		colors = 256
	}

	palette := make(color.Palette, 0, colors)
	if hasTransparency(img) {
		palette = append(palette, color.Transparent)
	}
	q := quantize.MedianCutQuantizer{}
	palette = q.Quantize(palette, img)
	if len(palette) == 0 {
		palette = append(palette, color.Black)
	}

	b := img.Bounds()
	dst := image.NewPaletted(b, palette)
	drawerFor(dither).Draw(dst, b, img, b.Min)
	return dst
}

func drawerFor(d Dither) draw.Drawer {
	if d == DitherFloydSteinberg {
		return draw.FloydSteinberg
	}
	return draw.Src
}

// EncodeLossy writes img as WebP. optimize has no WebP counterpart; the
// effort knob already trades speed for size.
func (Library) EncodeLossy(img image.Image, path string, quality, effort int, optimize bool) error {
	return writeAtomic(path, func(w io.Writer) error {
		return webp.Encode(w, img, webp.Options{
			Quality: quality,
			Method:  effort,
			Exact:   hasTransparency(img),
		})
	})
}

// EncodeLosslessPalette writes img as a palette-indexed PNG. img must
// already be quantized.
func (Library) EncodeLosslessPalette(img image.Image, path string, optimize bool) error {
	if _, ok := img.(*image.Paletted); !ok {
		return fmt.Errorf("%w: expected a paletted image, got %T", ErrEncode, img)
	}
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if optimize {
		enc.CompressionLevel = png.BestCompression
	}
	return writeAtomic(path, func(w io.Writer) error {
		return enc.Encode(w, img)
	})
}

func (Library) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return info.Size(), nil
}

// writeAtomic encodes into a temp file next to path and renames it into
// place, so a failed encode never leaves a truncated output behind.
func writeAtomic(path string, encode func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pixpress-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	if err := replaceFile(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
