package processor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pixpress/pkg/imgutil"
)

var ErrInvalidInput = errors.New("invalid input")

// DefaultOutputDir receives results when no output target is given.
const DefaultOutputDir = "compressed"

// BuildBatch turns an input file or directory into a Batch. Directory
// inputs take every immediate child on the extension allow-list; a file
// input yields a single job. The output directory exists when BuildBatch
// returns.
func BuildBatch(input, output string, cfg Config) (Batch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if !info.IsDir() {
		out, err := resolveFileOutput(input, output, cfg)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, err
		}
		return Batch{{Index: 0, Input: input, Output: out, Config: cfg}}, nil
	}

	if output == "" {
		output = DefaultOutputDir
	}
	names, err := listImages(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(input, name)
	}
	return assemble(paths, output, cfg)
}

// BuildListBatch builds a Batch from an explicit list of files and folders,
// writing every result into outputDir. Folders expand through the
// allow-list and duplicates are dropped. Entries that do not exist are
// kept so the pipeline reports them as skipped.
func BuildListBatch(paths []string, outputDir string, cfg Config) (Batch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files selected", ErrInvalidInput)
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}
		names, err := listImages(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		for _, name := range names {
			add(filepath.Join(p, name))
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	return assemble(files, outputDir, cfg)
}

func assemble(inputs []string, outputDir string, cfg Config) (Batch, error) {
	claimed := make(map[string]bool, len(inputs))
	batch := make(Batch, 0, len(inputs))
	for i, in := range inputs {
		out := claim(claimed, filepath.Join(outputDir, stem(in)+cfg.OutputExt()))
		if samePath(in, out) {
			return nil, fmt.Errorf("%w: output path %s resolves to input path", ErrInvalidInput, out)
		}
		batch = append(batch, Job{Index: i, Input: in, Output: out, Config: cfg})
	}
	return batch, nil
}

// claim reserves out, appending " - dupN" when another job already owns it
// (photo.png and photo.jpg both map to photo.webp).
func claim(claimed map[string]bool, out string) string {
	if !claimed[out] {
		claimed[out] = true
		return out
	}
	dir := filepath.Dir(out)
	ext := filepath.Ext(out)
	base := strings.TrimSuffix(filepath.Base(out), ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", base, n, ext))
		if !claimed[candidate] {
			claimed[candidate] = true
			return candidate
		}
	}
}

func resolveFileOutput(input, output string, cfg Config) (string, error) {
	name := stem(input) + cfg.OutputExt()

	var out string
	switch {
	case output == "":
		out = filepath.Join(DefaultOutputDir, name)
	case isDir(output):
		out = filepath.Join(output, name)
	default:
		out = output
	}

	if samePath(input, out) {
		return "", fmt.Errorf("%w: output path %s resolves to input path", ErrInvalidInput, out)
	}
	return out, nil
}

// listImages returns the allow-listed regular files directly inside dir,
// sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !imgutil.AllowedExt(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
