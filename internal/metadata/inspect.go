// Package metadata counts the side-channel blocks (EXIF, PNG text chunks,
// timestamps) that a source image carries, so the pipeline can report what
// stripping dropped and the inspect command can list it.
package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"pixpress/pkg/imgutil"
)

const (
	CategoryGPS       = "GPS"
	CategoryDevice    = "Device Model"
	CategoryTimestamp = "Timestamp"
	CategorySerial    = "Serial Number"
	CategoryText      = "Text"
)

type Category struct {
	Name   string
	Values []string
}

// Report summarises the metadata found in one file.
type Report struct {
	Kind       imgutil.Kind
	ExifTags   int
	TextChunks int
	Categories []Category
}

// Total is the number of metadata entries a strip would drop.
func (r Report) Total() int {
	return r.ExifTags + r.TextChunks
}

func (r Report) Empty() bool {
	return r.Total() == 0
}

func (r Report) Has(category string) bool {
	for _, c := range r.Categories {
		if c.Name == category && len(c.Values) > 0 {
			return true
		}
	}
	return false
}

// InspectFile opens path, sniffs its container and inspects it.
func InspectFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	kind, err := imgutil.SniffReader(f)
	if err != nil {
		return Report{}, fmt.Errorf("sniff %s: %w", path, err)
	}
	return Inspect(f, kind)
}

// Inspect reads metadata from rs, which must hold an image of the given kind.
func Inspect(rs io.ReadSeeker, kind imgutil.Kind) (Report, error) {
	report := Report{Kind: kind}
	if !kind.CarriesExif() {
		return report, nil
	}
	acc := newAccumulator()

	switch kind {
	case imgutil.KindPNG:
		if err := scanPNG(rs, &report, acc); err != nil {
			return report, err
		}
	case imgutil.KindJPEG, imgutil.KindTIFF, imgutil.KindWebP:
		tags, err := readExif(rs)
		if err != nil {
			return report, err
		}
		report.ExifTags = len(tags)
		acc.addExif(tags)
	default:
		return report, nil
	}

	report.Categories = acc.categories()
	return report, nil
}

// maxExifScan bounds how much of a file is read when searching for EXIF.
const maxExifScan = 64 << 20

func readExif(rs io.ReadSeeker) ([]exif.ExifTag, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(rs, maxExifScan))
	if err != nil {
		return nil, err
	}

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if isNoExif(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseExifBlock(raw)
}

func parseExifBlock(data []byte) ([]exif.ExifTag, error) {
	tags, _, err := exif.GetFlatExifData(data, nil)
	if err != nil {
		if isNoExif(err) {
			return nil, nil
		}
		return nil, err
	}
	return tags, nil
}

func isNoExif(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}

// accumulator groups values by category while preserving first-seen order.
type accumulator struct {
	order  []string
	values map[string][]string
}

func newAccumulator() *accumulator {
	return &accumulator{values: make(map[string][]string)}
}

func (a *accumulator) add(category, value string) {
	if _, ok := a.values[category]; !ok {
		a.order = append(a.order, category)
	}
	a.values[category] = append(a.values[category], value)
}

func (a *accumulator) addExif(tags []exif.ExifTag) {
	for _, tag := range tags {
		name := tag.TagName
		entry := fmt.Sprintf("%s=%s", name, strings.TrimSpace(tag.FormattedFirst))

		switch {
		case strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS"):
			a.add(CategoryGPS, fmt.Sprintf("%s=%s", name, strings.TrimSpace(tag.Formatted)))
		case name == "Make" || name == "Model" || name == "CameraModelName":
			a.add(CategoryDevice, entry)
		case name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime":
			a.add(CategoryTimestamp, entry)
		case strings.Contains(strings.ToLower(name), "serial"):
			a.add(CategorySerial, entry)
		}
	}
}

func (a *accumulator) categories() []Category {
	out := make([]Category, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, Category{Name: name, Values: a.values[name]})
	}
	return out
}
