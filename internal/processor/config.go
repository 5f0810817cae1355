package processor

import (
	"errors"
	"fmt"

	"pixpress/internal/imagekit"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultQuality = 85
	DefaultEffort  = 4
	MinQuality     = 1
	MaxQuality     = 100
	MinEffort      = 0
	MaxEffort      = 6
	PaletteColors  = 256
)

// Config is the set of compression knobs shared by every job in a batch.
type Config struct {
	Quality int
	// Lossy selects WebP; otherwise output is a 256-colour palette PNG.
	Lossy  bool
	Effort int
	// ResizePercent scales both axes; it wins over MaxDimension when both
	// are set. Zero disables it.
	ResizePercent int
	// MaxDimension caps the longer side without upscaling. Zero disables it.
	MaxDimension  int
	StripMetadata bool
	Dither        imagekit.Dither
}

func DefaultConfig() Config {
	return Config{
		Quality: DefaultQuality,
		Lossy:   true,
		Effort:  DefaultEffort,
		Dither:  imagekit.DitherNone,
	}
}

func (c Config) Validate() error {
	if c.Quality < MinQuality || c.Quality > MaxQuality {
		return fmt.Errorf("%w: quality %d outside %d-%d", ErrInvalidConfig, c.Quality, MinQuality, MaxQuality)
	}
	if c.Effort < MinEffort || c.Effort > MaxEffort {
		return fmt.Errorf("%w: webp method %d outside %d-%d", ErrInvalidConfig, c.Effort, MinEffort, MaxEffort)
	}
	if c.ResizePercent < 0 {
		return fmt.Errorf("%w: resize percent must be positive, got %d", ErrInvalidConfig, c.ResizePercent)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("%w: max dimension must be positive, got %d", ErrInvalidConfig, c.MaxDimension)
	}
	switch c.Dither {
	case imagekit.DitherNone, imagekit.DitherFloydSteinberg:
	default:
		return fmt.Errorf("%w: unknown dither mode %s", ErrInvalidConfig, c.Dither)
	}
	return nil
}

// OutputExt is the extension given to derived output names.
func (c Config) OutputExt() string {
	if c.Lossy {
		return imagekit.LossyExt
	}
	return imagekit.LosslessExt
}
