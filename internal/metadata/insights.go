package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// Insight is a human-readable conclusion drawn from a Report.
type Insight struct {
	Kind    string
	Message string
}

// Insights explains what the metadata in r would reveal if the file were
// shared as-is.
func (r Report) Insights() []Insight {
	if len(r.Categories) == 0 {
		return nil
	}

	values := flatten(r.Categories)
	var out []Insight

	if msg, ok := locationInsight(values); ok {
		out = append(out, Insight{Kind: "Location", Message: msg})
	}
	if msg, ok := deviceInsight(values); ok {
		out = append(out, Insight{Kind: "Device", Message: msg})
	}
	if msg, ok := timestampInsight(values); ok {
		out = append(out, Insight{Kind: "Timeline", Message: msg})
	}
	if r.Has(CategorySerial) {
		out = append(out, Insight{Kind: "Identifier", Message: "Unique device identifiers (serial numbers) are present."})
	}
	return out
}

func flatten(categories []Category) map[string][]string {
	values := make(map[string][]string)
	for _, c := range categories {
		for _, entry := range c.Values {
			key, value, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			values[key] = append(values[key], strings.TrimSpace(value))
		}
	}
	return values
}

func locationInsight(values map[string][]string) (string, bool) {
	lat, okLat := parseGPSCoordinate(firstValue(values, "GPSLatitude"))
	lon, okLon := parseGPSCoordinate(firstValue(values, "GPSLongitude"))
	if !okLat || !okLon {
		return "", false
	}
	if firstValue(values, "GPSLatitudeRef") == "S" {
		lat = -lat
	}
	if firstValue(values, "GPSLongitudeRef") == "W" {
		lon = -lon
	}
	return fmt.Sprintf("Approx location: %.5f, %.5f", lat, lon), true
}

func deviceInsight(values map[string][]string) (string, bool) {
	device := strings.TrimSpace(firstValue(values, "Make") + " " + firstValue(values, "Model"))
	if device == "" {
		device = firstValue(values, "CameraModelName")
	}
	if device == "" {
		return "", false
	}
	return "Device: " + device, true
}

func timestampInsight(values map[string][]string) (string, bool) {
	for _, key := range []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"} {
		if ts := firstValue(values, key); ts != "" {
			// EXIF writes dates as 2024:01:02 03:04:05.
			return "Captured: " + strings.Replace(ts, ":", "-", 2), true
		}
	}
	return "", false
}

func firstValue(values map[string][]string, key string) string {
	if list := values[key]; len(list) > 0 {
		return list[0]
	}
	return ""
}

// parseGPSCoordinate accepts go-exif's rational formatting, e.g.
// "[37/1 46/1 2986/100]", and returns decimal degrees.
func parseGPSCoordinate(raw string) (float64, bool) {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return 0, false
	}

	total := 0.0
	divisor := 1.0
	for i, part := range parts {
		if i > 2 {
			break
		}
		v, ok := parseRational(part)
		if !ok {
			return 0, false
		}
		total += v / divisor
		divisor *= 60
	}
	return total, true
}

func parseRational(part string) (float64, bool) {
	num, den, isFraction := strings.Cut(strings.TrimSpace(part), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !isFraction {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}
