package processor

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"pixpress/internal/imagekit"
	"pixpress/internal/metadata"
)

// SkipMissing is the reason recorded when an input vanished before its job
// started.
const SkipMissing = "missing file"

// Process runs decode, metadata strip, resize and encode for one job. It
// never panics and never returns an error: every failure ends up in the
// Result.
func Process(kit imagekit.Kit, job Job) (res Result) {
	start := time.Now()
	res = Result{
		Index:      job.Index,
		Input:      job.Input,
		Output:     job.Output,
		InputName:  filepath.Base(job.Input),
		OutputName: filepath.Base(job.Output),
	}
	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("%s: panic: %v", res.InputName, r)
		}
		res.Duration = time.Since(start)
	}()

	if !readable(job.Input) {
		res.Status = StatusSkipped
		res.Reason = SkipMissing
		return res
	}

	if err := compress(kit, job, &res); err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("%s: %w", res.InputName, err)
		return res
	}

	res.Status = StatusSuccess
	return res
}

func compress(kit imagekit.Kit, job Job, res *Result) error {
	cfg := job.Config

	inSize, err := kit.FileSize(job.Input)
	if err != nil {
		return err
	}
	res.InputSize = inSize

	img, err := kit.Decode(job.Input)
	if err != nil {
		return err
	}

	if cfg.StripMetadata {
		if report, err := metadata.InspectFile(job.Input); err == nil {
			res.MetadataDropped = report.Total()
		}
		img = kit.StripMetadata(img)
	}

	img = resize(kit, img, cfg)

	if cfg.Lossy {
		err = kit.EncodeLossy(img, job.Output, cfg.Quality, cfg.Effort, true)
	} else {
		err = encodePalette(kit, img, job.Output, cfg)
	}
	if err != nil {
		return err
	}

	outSize, err := kit.FileSize(job.Output)
	if err != nil {
		return err
	}
	res.OutputSize = outSize

	size := img.Bounds().Size()
	res.Width, res.Height = size.X, size.Y
	return nil
}

func resize(kit imagekit.Kit, img image.Image, cfg Config) image.Image {
	switch {
	case cfg.ResizePercent > 0:
		size := img.Bounds().Size()
		w, h := scaledSize(size.X, size.Y, cfg.ResizePercent)
		return kit.Resize(img, w, h)
	case cfg.MaxDimension > 0:
		return kit.Fit(img, cfg.MaxDimension)
	default:
		return img
	}
}

func scaledSize(w, h, percent int) (int, int) {
	scale := func(v int) int {
		n := int(math.Round(float64(v) * float64(percent) / 100))
		if n < 1 {
			return 1
		}
		return n
	}
	return scale(w), scale(h)
}

func encodePalette(kit imagekit.Kit, img image.Image, path string, cfg Config) error {
	if !kit.HasTransparency(img) {
		img = kit.Flatten(img)
	}
	pal := kit.Quantize(img, PaletteColors, cfg.Dither)
	return kit.EncodeLosslessPalette(pal, path, true)
}

func readable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
