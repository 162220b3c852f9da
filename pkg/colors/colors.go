// Package colors implements the color space conversions used for clustering.
//
// The RGB↔HSL and RGB↔LAB conversions follow the standard reference formulas
// (HSL per the Wikipedia definition with h, s, l in [0, 1]; LAB via sRGB gamma
// expansion and the D65 illuminant). They are implemented directly rather than
// through a color library because clustering results must be reproducible
// bit-for-bit across runs and platforms.
package colors

import "math"

// RGB is a color with 8-bit channels.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// HSL holds hue, saturation and lightness, each in [0, 1].
type HSL struct {
	H float64
	S float64
	L float64
}

// LAB holds CIE L*a*b* components (L in [0, 100]).
type LAB struct {
	L float64
	A float64
	B float64
}

// RGBToHSL converts an RGB color to HSL with all components in [0, 1].
func RGBToHSL(r, g, b uint8) HSL {
	rn := float64(r) / 255.0
	gn := float64(g) / 255.0
	bn := float64(b) / 255.0

	maxVal := math.Max(rn, math.Max(gn, bn))
	minVal := math.Min(rn, math.Min(gn, bn))
	l := (maxVal + minVal) / 2.0

	if maxVal == minVal {
		// Achromatic
		return HSL{H: 0, S: 0, L: l}
	}

	d := maxVal - minVal
	var s float64
	if l > 0.5 {
		s = d / (2.0 - maxVal - minVal)
	} else {
		s = d / (maxVal + minVal)
	}

	var h float64
	switch maxVal {
	case rn:
		h = (gn - bn) / d
		if gn < bn {
			h += 6.0
		}
	case gn:
		h = (bn-rn)/d + 2.0
	default:
		h = (rn-gn)/d + 4.0
	}
	h /= 6.0

	return HSL{H: h, S: s, L: l}
}

// HSLToRGB converts an HSL color (components in [0, 1]) back to RGB.
func HSLToRGB(h, s, l float64) RGB {
	if s == 0 {
		v := uint8(math.Round(l * 255.0))
		return RGB{R: v, G: v, B: v}
	}

	var q float64
	if l < 0.5 {
		q = l * (1.0 + s)
	} else {
		q = l + s - l*s
	}
	p := 2.0*l - q

	return RGB{
		R: uint8(math.Round(hueToRGB(p, q, h+1.0/3.0) * 255.0)),
		G: uint8(math.Round(hueToRGB(p, q, h) * 255.0)),
		B: uint8(math.Round(hueToRGB(p, q, h-1.0/3.0) * 255.0)),
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1.0
	}
	if t > 1 {
		t -= 1.0
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6.0*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6.0
	}
	return p
}

// RGBToLAB converts an RGB color to CIE L*a*b* under the D65 illuminant.
func RGBToLAB(r, g, b uint8) LAB {
	rl := gammaExpand(float64(r) / 255.0)
	gl := gammaExpand(float64(g) / 255.0)
	bl := gammaExpand(float64(b) / 255.0)

	x := (rl*0.4124 + gl*0.3576 + bl*0.1805) / 0.95047
	y := (rl*0.2126 + gl*0.7152 + bl*0.0722) / 1.00000
	z := (rl*0.0193 + gl*0.1192 + bl*0.9505) / 1.08883

	x = labForward(x)
	y = labForward(y)
	z = labForward(z)

	return LAB{
		L: 116.0*y - 16.0,
		A: 500.0 * (x - y),
		B: 200.0 * (y - z),
	}
}

// LABToRGB converts a CIE L*a*b* color back to RGB, clamping to gamut.
func LABToRGB(l, a, b float64) RGB {
	y := (l + 16.0) / 116.0
	x := a/500.0 + y
	z := y - b/200.0

	x = 0.95047 * labInverse(x)
	y = 1.00000 * labInverse(y)
	z = 1.08883 * labInverse(z)

	rl := x*3.2406 + y*-1.5372 + z*-0.4986
	gl := x*-0.9689 + y*1.8758 + z*0.0415
	bl := x*0.0557 + y*-0.2040 + z*1.0570

	return RGB{
		R: uint8(math.Round(clamp01(gammaCompress(rl)) * 255.0)),
		G: uint8(math.Round(clamp01(gammaCompress(gl)) * 255.0)),
		B: uint8(math.Round(clamp01(gammaCompress(bl)) * 255.0)),
	}
}

func gammaExpand(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

func gammaCompress(c float64) float64 {
	if c > 0.0031308 {
		return 1.055*math.Pow(c, 1.0/2.4) - 0.055
	}
	return 12.92 * c
}

func labForward(t float64) float64 {
	if t > 0.008856 {
		return math.Pow(t, 1.0/3.0)
	}
	return 7.787*t + 16.0/116.0
}

func labInverse(t float64) float64 {
	if t*t*t > 0.008856 {
		return t * t * t
	}
	return (t - 16.0/116.0) / 7.787
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Distance returns the Euclidean distance between two colors in RGB space.
func Distance(c1, c2 RGB) float64 {
	dr := float64(c1.R) - float64(c2.R)
	dg := float64(c1.G) - float64(c2.G)
	db := float64(c1.B) - float64(c2.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// DistanceMatrix builds the symmetric RGB Euclidean distance matrix for a
// palette, so repeated pairwise lookups during strip cleanup and facet
// reduction avoid recomputing square roots.
func DistanceMatrix(palette []RGB) [][]float64 {
	n := len(palette)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		for i := j; i < n; i++ {
			d := Distance(palette[j], palette[i])
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}
