package processor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixpress/internal/imagekit"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func opaqueImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := uint8(rng.Intn(32))
			img.Set(x, y, color.RGBA{
				R: uint8(x*200/w) + n,
				G: uint8(y*200/h) + n,
				B: uint8((x+y)*100/(w+h)) + n,
				A: 0xff,
			})
		}
	}
	return img
}

func losslessConfig() Config {
	cfg := DefaultConfig()
	cfg.Lossy = false
	return cfg
}

func TestProcessLosslessPaletteLimit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writePNG(t, in, opaqueImage(64, 48))

	res := Process(imagekit.New(), Job{Input: in, Output: out, Config: losslessConfig()})
	if res.Status != StatusSuccess {
		t.Fatalf("status %s: %v", res.Status, res.Err)
	}

	pal, ok := readPNG(t, out).(*image.Paletted)
	if !ok {
		t.Fatal("output is not palette-indexed")
	}
	if len(pal.Palette) > 256 {
		t.Fatalf("palette has %d colours", len(pal.Palette))
	}
	if res.InputName != "in.png" || res.OutputName != "out.png" || res.InputSize == 0 || res.OutputSize == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestProcessLosslessKeepsTransparency(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "alpha.png")
	out := filepath.Join(dir, "alpha-out.png")

	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			a := uint8(0xff)
			if x < 5 {
				a = 0
			}
			img.Set(x, y, color.NRGBA{R: 200, G: uint8(y * 20), B: 10, A: a})
		}
	}
	writePNG(t, in, img)

	res := Process(imagekit.New(), Job{Input: in, Output: out, Config: losslessConfig()})
	if res.Status != StatusSuccess {
		t.Fatalf("status %s: %v", res.Status, res.Err)
	}
	decoded := readPNG(t, out)
	if _, _, _, a := decoded.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("transparent pixel has alpha %d", a)
	}
	if _, _, _, a := decoded.At(9, 9).RGBA(); a != 0xffff {
		t.Fatalf("opaque pixel has alpha %d", a)
	}
}

func TestProcessResizePercent(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "half.png")
	writePNG(t, in, opaqueImage(101, 50))

	cfg := losslessConfig()
	cfg.ResizePercent = 50
	cfg.MaxDimension = 10 // percent wins
	res := Process(imagekit.New(), Job{Input: in, Output: out, Config: cfg})
	if res.Status != StatusSuccess {
		t.Fatalf("status %s: %v", res.Status, res.Err)
	}

	size := readPNG(t, out).Bounds().Size()
	if size != image.Pt(51, 25) {
		t.Fatalf("got %v, want 51x25", size)
	}
	if res.Width != 51 || res.Height != 25 {
		t.Fatalf("result dims %dx%d", res.Width, res.Height)
	}
}

func TestProcessMaxDimension(t *testing.T) {
	dir := t.TempDir()
	cfg := losslessConfig()
	cfg.MaxDimension = 100

	cases := []struct {
		name string
		w, h int
		want image.Point
	}{
		{"shrinks", 300, 120, image.Pt(100, 40)},
		{"portrait", 80, 400, image.Pt(20, 100)},
		{"never upscales", 50, 20, image.Pt(50, 20)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := filepath.Join(dir, tc.name+".png")
			out := filepath.Join(dir, tc.name+"-out.png")
			writePNG(t, in, opaqueImage(tc.w, tc.h))

			res := Process(imagekit.New(), Job{Input: in, Output: out, Config: cfg})
			if res.Status != StatusSuccess {
				t.Fatalf("status %s: %v", res.Status, res.Err)
			}
			size := readPNG(t, out).Bounds().Size()
			if size != tc.want {
				t.Fatalf("got %v, want %v", size, tc.want)
			}
			if max(size.X, size.Y) > cfg.MaxDimension {
				t.Fatalf("longer side exceeds %d", cfg.MaxDimension)
			}
		})
	}
}

func TestProcessStripMetadataKeepsPixels(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, opaqueImage(40, 30))

	plain := losslessConfig()
	stripped := losslessConfig()
	stripped.StripMetadata = true

	kit := imagekit.New()
	a := Process(kit, Job{Input: in, Output: filepath.Join(dir, "plain.png"), Config: plain})
	b := Process(kit, Job{Input: in, Output: filepath.Join(dir, "stripped.png"), Config: stripped})
	if a.Status != StatusSuccess || b.Status != StatusSuccess {
		t.Fatalf("statuses %s/%s: %v %v", a.Status, b.Status, a.Err, b.Err)
	}

	imgA := readPNG(t, filepath.Join(dir, "plain.png"))
	imgB := readPNG(t, filepath.Join(dir, "stripped.png"))
	if imgA.Bounds() != imgB.Bounds() {
		t.Fatalf("bounds differ: %v vs %v", imgA.Bounds(), imgB.Bounds())
	}
	bounds := imgA.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := imgA.At(x, y).RGBA()
			r2, g2, b2, a2 := imgB.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) differs", x, y)
			}
		}
	}
}

// writeCameraJPEG encodes img as JPEG with an APP1 EXIF block holding a
// camera model and a capture time.
func writeCameraJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	encoded := enc.Bytes()

	var tiff bytes.Buffer
	le := binary.LittleEndian
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, le, uint32(8))
	_ = binary.Write(&tiff, le, uint16(2))
	_ = binary.Write(&tiff, le, []uint16{0x0110, 2})
	_ = binary.Write(&tiff, le, []uint32{8, 38})
	_ = binary.Write(&tiff, le, []uint16{0x0132, 2})
	_ = binary.Write(&tiff, le, []uint32{20, 46})
	_ = binary.Write(&tiff, le, uint32(0))
	tiff.WriteString("TestCam\x00")
	tiff.WriteString("2024:01:02 03:04:05\x00")

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var out bytes.Buffer
	out.Write(encoded[:2])
	out.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(encoded[2:])

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProcessStripCountsJPEGExif(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "camera.jpg")
	writeCameraJPEG(t, in, opaqueImage(32, 24))

	cfg := DefaultConfig()
	cfg.StripMetadata = true
	res := Process(imagekit.New(), Job{Input: in, Output: filepath.Join(dir, "camera.webp"), Config: cfg})
	if res.Status != StatusSuccess {
		t.Fatalf("status %s: %v", res.Status, res.Err)
	}
	if res.MetadataDropped != 2 {
		t.Fatalf("MetadataDropped = %d, want 2", res.MetadataDropped)
	}

	kept := Process(imagekit.New(), Job{Input: in, Output: filepath.Join(dir, "kept.webp"), Config: DefaultConfig()})
	if kept.Status != StatusSuccess || kept.MetadataDropped != 0 {
		t.Fatalf("unstripped run: %s dropped=%d", kept.Status, kept.MetadataDropped)
	}
}

func TestProcessMissingFileSkipped(t *testing.T) {
	dir := t.TempDir()
	res := Process(imagekit.New(), Job{Input: filepath.Join(dir, "gone.png"), Output: filepath.Join(dir, "gone.webp"), Config: DefaultConfig()})
	if res.Status != StatusSkipped || res.Reason != SkipMissing {
		t.Fatalf("got %s %q", res.Status, res.Reason)
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.webp")); !os.IsNotExist(err) {
		t.Fatal("skipped job wrote an output")
	}
}

func TestProcessCorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(in, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := Process(imagekit.New(), Job{Input: in, Output: filepath.Join(dir, "broken.webp"), Config: DefaultConfig()})
	if res.Status != StatusFailed {
		t.Fatalf("status %s", res.Status)
	}
	if !errors.Is(res.Err, imagekit.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", res.Err)
	}
	if !strings.Contains(res.Err.Error(), "broken.png") {
		t.Fatalf("error does not name the file: %v", res.Err)
	}
}

func TestProcessLossyScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("encodes a 1000x1000 image")
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "big.png")
	out := filepath.Join(dir, "big.webp")
	writePNG(t, in, opaqueImage(1000, 1000))

	kit := imagekit.New()
	res := Process(kit, Job{Input: in, Output: out, Config: DefaultConfig()})
	if res.Status != StatusSuccess {
		t.Fatalf("status %s: %v", res.Status, res.Err)
	}
	if res.OutputSize >= res.InputSize {
		t.Fatalf("webp (%d bytes) not smaller than png (%d bytes)", res.OutputSize, res.InputSize)
	}

	decoded, err := kit.Decode(out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if size := decoded.Bounds().Size(); size != image.Pt(1000, 1000) {
		t.Fatalf("got %v", size)
	}
}

type panicKit struct {
	*imagekit.Library
}

func (panicKit) Decode(string) (image.Image, error) {
	panic("decoder exploded")
}

func TestProcessRecoversPanic(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, opaqueImage(4, 4))

	res := Process(panicKit{imagekit.New()}, Job{Input: in, Output: filepath.Join(dir, "out.webp"), Config: DefaultConfig()})
	if res.Status != StatusFailed || !strings.Contains(res.Err.Error(), "decoder exploded") {
		t.Fatalf("got %s: %v", res.Status, res.Err)
	}
}

func TestScaledSize(t *testing.T) {
	cases := []struct {
		w, h, pct    int
		wantW, wantH int
	}{
		{100, 50, 50, 50, 25},
		{101, 51, 50, 51, 26},
		{3, 3, 10, 1, 1},
		{200, 100, 150, 300, 150},
	}
	for _, tc := range cases {
		w, h := scaledSize(tc.w, tc.h, tc.pct)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("scaledSize(%d,%d,%d) = %d,%d, want %d,%d", tc.w, tc.h, tc.pct, w, h, tc.wantW, tc.wantH)
		}
	}
}
