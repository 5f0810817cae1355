package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// maxTextChunk bounds how much of a single text or eXIf chunk is buffered.
const maxTextChunk = 1 << 20

func scanPNG(rs io.ReadSeeker, report *Report, acc *accumulator) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return err
	}

	br := bufio.NewReader(rs)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return errors.New("invalid PNG signature")
	}

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		length := binary.BigEndian.Uint32(header[:4])
		chunkName := string(header[4:])

		switch chunkName {
		case "tEXt", "zTXt", "iTXt", "eXIf":
			if length > maxTextChunk {
				return fmt.Errorf("%s chunk too large: %d bytes", chunkName, length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return err
			}
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return err
			}
			if chunkName == "eXIf" {
				tags, err := parseExifBlock(data)
				if err != nil || len(tags) == 0 {
					// An unparseable block is still dropped by a strip.
					report.TextChunks++
					continue
				}
				report.ExifTags += len(tags)
				acc.addExif(tags)
				continue
			}
			report.TextChunks++
			if key := textKey(data); key != "" {
				acc.add(categoryForKey(key), key)
			}
		case "tIME":
			report.TextChunks++
			acc.add(CategoryTimestamp, "tIME")
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return err
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return err
			}
		}

		if chunkName == "IEND" {
			return nil
		}
	}
}

func textKey(data []byte) string {
	idx := bytes.IndexByte(data, 0)
	if idx <= 0 {
		return ""
	}
	return string(data[:idx])
}

func categoryForKey(key string) string {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "gps"), strings.Contains(lower, "latitude"), strings.Contains(lower, "longitude"):
		return CategoryGPS
	case strings.Contains(lower, "model"), strings.Contains(lower, "make"):
		return CategoryDevice
	case strings.Contains(lower, "date"), strings.Contains(lower, "time"):
		return CategoryTimestamp
	default:
		return CategoryText
	}
}
