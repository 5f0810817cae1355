package cmd

import (
	"github.com/spf13/cobra"

	"pixpress/internal/imagekit"
	"pixpress/internal/processor"
)

// compressOptions holds the flags shared by compress and ui.
type compressOptions struct {
	quality     int
	noWebP      bool
	webpMethod  int
	resize      int
	maxDim      int
	stripExif   bool
	workers     int
	dither      string
	metricsFile string
}

func (o *compressOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&o.quality, "quality", "q", processor.DefaultQuality, "WebP quality (1-100)")
	f.BoolVar(&o.noWebP, "no-webp", false, "write 256-colour PNG instead of WebP")
	f.IntVar(&o.webpMethod, "webp-method", processor.DefaultEffort, "WebP encoder effort (0-6)")
	f.IntVar(&o.resize, "resize", 0, "scale images to this percentage of their size")
	f.IntVar(&o.maxDim, "max-dim", 0, "shrink images so the longer side is at most this many pixels")
	f.BoolVar(&o.stripExif, "strip-exif", false, "drop EXIF and other metadata")
	f.IntVar(&o.workers, "workers", 0, "number of parallel workers (default: one per CPU)")
	f.StringVar(&o.dither, "dither", imagekit.DitherNone.String(), "palette dithering: none or floyd-steinberg")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics for the run to this file")
}

func (o *compressOptions) config() (processor.Config, error) {
	dither, err := imagekit.ParseDither(o.dither)
	if err != nil {
		return processor.Config{}, err
	}
	cfg := processor.Config{
		Quality:       o.quality,
		Lossy:         !o.noWebP,
		Effort:        o.webpMethod,
		ResizePercent: o.resize,
		MaxDimension:  o.maxDim,
		StripMetadata: o.stripExif,
		Dither:        dither,
	}
	return cfg, cfg.Validate()
}
