// Package palette derives presentation metadata for a quantized palette:
// hex strings, HSL components, usage shares, a hue-then-lightness ordering
// and a rough tonal role for each color. The SVG legend and the CLI's
// palette report consume it; the geometric pipeline does not.
package palette

import (
	"fmt"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/colors"
)

// Entry describes one palette color.
type Entry struct {
	// Index is the palette index facets refer to.
	Index int `json:"index"`
	// Hex is the color as #RRGGBB.
	Hex string `json:"hex"`
	// Hue is in degrees, 0-360.
	Hue float64 `json:"hue"`
	// Saturation and Lightness are percentages.
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
	// UsagePercent is the share of pixels carrying this color.
	UsagePercent float64 `json:"usage_percent"`
	// Role buckets the color by lightness rank: dark_shadow, shadow,
	// midtone, light or highlight.
	Role string `json:"role"`
}

// Summarize builds display metadata for a palette. counts holds the number
// of pixels per palette index; pass nil to skip usage percentages. Entries
// are sorted by hue, falling back to lightness when hues are within five
// degrees.
func Summarize(pal []colors.RGB, counts []int) []Entry {
	total := 0
	for _, c := range counts {
		total += c
	}

	entries := make([]Entry, len(pal))
	for i, c := range pal {
		cf := colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
		h, s, l := cf.Hsl()
		entries[i] = Entry{
			Index:      i,
			Hex:        fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
			Hue:        h,
			Saturation: s * 100,
			Lightness:  l * 100,
		}
		if total > 0 && i < len(counts) {
			entries[i].UsagePercent = float64(counts[i]) * 100.0 / float64(total)
		}
	}

	assignRoles(entries)

	sort.SliceStable(entries, func(i, j int) bool {
		if math.Abs(entries[i].Hue-entries[j].Hue) < 5 {
			return entries[i].Lightness < entries[j].Lightness
		}
		return entries[i].Hue < entries[j].Hue
	})

	return entries
}

// assignRoles buckets entries into tonal roles by lightness rank.
func assignRoles(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	if len(entries) == 1 {
		entries[0].Role = "midtone"
		return
	}

	rank := make([]int, len(entries))
	for i := range rank {
		rank[i] = i
	}
	sort.SliceStable(rank, func(a, b int) bool {
		return entries[rank[a]].Lightness < entries[rank[b]].Lightness
	})

	n := float64(len(entries) - 1)
	for pos, idx := range rank {
		ratio := float64(pos) / n
		switch {
		case ratio < 0.2:
			entries[idx].Role = "dark_shadow"
		case ratio < 0.4:
			entries[idx].Role = "shadow"
		case ratio < 0.6:
			entries[idx].Role = "midtone"
		case ratio < 0.8:
			entries[idx].Role = "light"
		default:
			entries[idx].Role = "highlight"
		}
	}
}
