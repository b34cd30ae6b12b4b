package ui

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorScheme selects how bucket counts map to cell colors.
type ColorScheme int

const (
	// SchemeGradient shades by intensity: blue for reads only, green for
	// writes only, yellow to red for mixed traffic.
	SchemeGradient ColorScheme = iota
	// SchemeBinary marks any traffic: reads, writes or both.
	SchemeBinary
)

var schemeNames = []string{"gradient", "binary"}

// ParseColorScheme maps a preference value to a scheme, defaulting to gradient.
func ParseColorScheme(name string) ColorScheme {
	if strings.EqualFold(strings.TrimSpace(name), "binary") {
		return SchemeBinary
	}
	return SchemeGradient
}

func (s ColorScheme) String() string {
	if int(s) >= 0 && int(s) < len(schemeNames) {
		return schemeNames[s]
	}
	return schemeNames[0]
}

// Next returns the following scheme in the cycle.
func (s ColorScheme) Next() ColorScheme {
	return ColorScheme((int(s) + 1) % len(schemeNames))
}

var (
	readLow   = mustHex("#add8e6") // light blue
	readHigh  = mustHex("#00008b") // dark blue
	writeLow  = mustHex("#90ee90") // light green
	writeHigh = mustHex("#006400") // dark green
)

// mixedHueSpan is the HSV hue, in degrees, of the least busy mixed bucket.
// Busier buckets slide towards 0 (red).
const mixedHueSpan = 54.0

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// intensity is total/peak clamped to [0, 1].
func intensity(total, peak uint64) float64 {
	if peak == 0 {
		peak = 1
	}
	return math.Min(float64(total)/float64(peak), 1)
}

// cellColor returns the hex color of a bucket, or "" for an untouched one.
func cellColor(scheme ColorScheme, theme Theme, reads, writes, peak uint64) string {
	if reads == 0 && writes == 0 {
		return ""
	}
	if scheme == SchemeBinary {
		switch {
		case writes == 0:
			return theme.Read
		case reads == 0:
			return theme.Write
		default:
			return theme.Both
		}
	}

	switch {
	case writes == 0:
		return readLow.BlendRgb(readHigh, intensity(reads, peak)).Hex()
	case reads == 0:
		return writeLow.BlendRgb(writeHigh, intensity(writes, peak)).Hex()
	default:
		hue := (1 - intensity(reads+writes, peak)) * mixedHueSpan
		return colorful.Hsv(hue, 1, 1).Hex()
	}
}

// legendEntries describes the active scheme for the footer.
func legendEntries(scheme ColorScheme, theme Theme) []legendEntry {
	if scheme == SchemeBinary {
		return []legendEntry{
			{theme.Read, "read"},
			{theme.Write, "write"},
			{theme.Both, "both"},
		}
	}
	return []legendEntry{
		{readLow.Hex(), "read"},
		{readHigh.Hex(), ""},
		{writeLow.Hex(), "write"},
		{writeHigh.Hex(), ""},
		{colorful.Hsv(mixedHueSpan, 1, 1).Hex(), "mixed"},
		{colorful.Hsv(0, 1, 1).Hex(), "hot"},
	}
}

type legendEntry struct {
	color string
	label string
}
