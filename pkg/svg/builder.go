// Package svg renders the facet partition as vector output, and can also
// rasterise it straight to PNG or JPEG from the facet map.
package svg

import (
	"fmt"
	"strings"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/colors"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/facets"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/palette"
)

// Options controls SVG generation.
type Options struct {
	// SizeMultiplier scales the output dimensions; the viewBox stays in
	// image coordinates.
	SizeMultiplier float64
	// Fill paints each facet with its palette color.
	Fill bool
	// Stroke draws black facet outlines. Without it, filled facets get a
	// stroke in their own fill color so adjacent paths leave no hairline
	// gaps.
	Stroke bool
	// ShowLabels adds the palette index as text at each facet's label
	// anchor.
	ShowLabels bool
	FontSize   int
	FontColor  string
	// Legend appends a palette legend block beneath the drawing.
	Legend bool
}

// DefaultOptions mirrors the default output profile.
func DefaultOptions() Options {
	return Options{
		SizeMultiplier: 3.0,
		Fill:           true,
		Stroke:         true,
		ShowLabels:     true,
		FontSize:       20,
		FontColor:      "#000000",
	}
}

// Build renders the facet partition as an SVG document. Each live facet
// with border segments contributes one closed path reconstructed from its
// shared segments, so both sides of every inter-facet edge draw the exact
// same geometry.
func Build(res *facets.Result, pal []colors.RGB, opts Options) string {
	var b strings.Builder

	height := float64(res.Height)
	legendRows := 0
	if opts.Legend {
		legendRows = (len(pal) + 7) / 8
	}

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		int(opts.SizeMultiplier*float64(res.Width)),
		int(opts.SizeMultiplier*(height+float64(legendRows*12))),
		res.Width, res.Height+legendRows*12)
	b.WriteByte('\n')

	for _, f := range res.Facets {
		if f == nil || len(f.BorderSegments) == 0 {
			continue
		}

		path := f.FullPath(false)
		if len(path) == 0 {
			continue
		}
		// Close the loop if the segments left it open.
		if path[0] != path[len(path)-1] {
			path = append(path, path[0])
		}

		rgb := pal[f.Color]
		fill := "none"
		if opts.Fill {
			fill = fmt.Sprintf("rgb(%d,%d,%d)", rgb.R, rgb.G, rgb.B)
		}
		stroke := "none"
		switch {
		case opts.Stroke:
			stroke = "#000"
		case opts.Fill:
			stroke = fill
		}

		fmt.Fprintf(&b, `<path data-facet-id="%d" d="%s" fill="%s" stroke="%s" stroke-width="1"/>`,
			f.ID, pathData(path), fill, stroke)
		b.WriteByte('\n')

		if opts.ShowLabels {
			writeLabel(&b, f, opts)
		}
	}

	if opts.Legend {
		writeLegend(&b, pal, res)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// pathData emits the polyline as a quadratic Bézier chain: each vertex
// becomes the control point and the midpoint to the next vertex the curve
// target, which rounds pixel staircases into smooth borders.
func pathData(path []facets.FullPathPoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "M %s %s", coord(path[0].X), coord(path[0].Y))

	if len(path) <= 2 {
		for _, p := range path[1:] {
			fmt.Fprintf(&b, " L %s %s", coord(p.X), coord(p.Y))
		}
		return b.String()
	}

	for i := 1; i < len(path)-1; i++ {
		midX := (path[i].X + path[i+1].X) / 2
		midY := (path[i].Y + path[i+1].Y) / 2
		fmt.Fprintf(&b, " Q %s %s %s %s", coord(path[i].X), coord(path[i].Y), coord(midX), coord(midY))
	}
	last := path[len(path)-1]
	fmt.Fprintf(&b, " L %s %s Z", coord(last.X), coord(last.Y))

	return b.String()
}

func coord(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func writeLabel(b *strings.Builder, f *facets.Facet, opts Options) {
	cx := float64(f.LabelBounds.MinX+f.LabelBounds.MaxX) / 2
	cy := float64(f.LabelBounds.MinY+f.LabelBounds.MaxY) / 2

	// Shrink the font until the number fits the label box.
	size := float64(opts.FontSize)
	if w := float64(f.LabelBounds.Width()); w > 0 && size > w {
		size = w
	}

	fmt.Fprintf(b, `<text x="%s" y="%s" font-size="%s" fill="%s" text-anchor="middle" dominant-baseline="middle">%d</text>`,
		coord(cx), coord(cy), coord(size), opts.FontColor, f.Color)
	b.WriteByte('\n')
}

// writeLegend draws palette swatches with their index below the image,
// ordered by the palette summary's hue sort.
func writeLegend(b *strings.Builder, pal []colors.RGB, res *facets.Result) {
	entries := palette.Summarize(pal, nil)
	perRow := 8
	for i, e := range entries {
		x := (i % perRow) * (res.Width / perRow)
		y := res.Height + 2 + (i/perRow)*12
		fmt.Fprintf(b, `<rect x="%d" y="%d" width="8" height="8" fill="%s" stroke="#000" stroke-width="0.5"/>`,
			x, y, e.Hex)
		fmt.Fprintf(b, `<text x="%d" y="%d" font-size="6">%d</text>`, x+10, y+7, e.Index)
		b.WriteByte('\n')
	}
}
