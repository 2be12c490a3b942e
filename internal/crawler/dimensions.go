package crawler

import (
	"regexp"
	"strconv"
)

// Only numbers with a decimal point count as measurements; bare integers in
// the cell (panel counts, years) are ignored.
var decimalRe = regexp.MustCompile(`\d+\.\d+`)

// DimensionUnitMarker identifies the table cell holding an item's measurements.
const DimensionUnitMarker = "cm)"

// Dimensions holds one entry per measured part, in order of appearance.
type Dimensions struct {
	Height []float64
	Width  []float64
	Depth  []float64
}

// ParseDimensions extracts height/width(/depth) sequences from a raw dimension
// string. Counts divisible by 3 are read as triples first, then counts divisible
// by 2 as pairs; anything else is rejected rather than guessed.
func ParseDimensions(raw string) (Dimensions, bool) {
	matches := decimalRe.FindAllString(raw, -1)
	values := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return Dimensions{}, false
		}
		values = append(values, v)
	}

	switch n := len(values); {
	case n == 0:
		return Dimensions{}, false
	case n%3 == 0:
		return Dimensions{
			Height: stride(values, 0, 3),
			Width:  stride(values, 1, 3),
			Depth:  stride(values, 2, 3),
		}, true
	case n%2 == 0:
		return Dimensions{
			Height: stride(values, 0, 2),
			Width:  stride(values, 1, 2),
		}, true
	default:
		return Dimensions{}, false
	}
}

func stride(values []float64, offset, step int) []float64 {
	out := make([]float64, 0, len(values)/step)
	for i := offset; i < len(values); i += step {
		out = append(out, values[i])
	}
	return out
}
