// Package budget parses the free-form budget strings brands put on campaigns
// and creators put on proposals ("$5,000 - $10,000", "2k-5k", "10k+", "up to $800").
package budget

import (
	"math"
	"strconv"
	"strings"
)

// Range is a parsed budget band in whole currency units.
type Range struct {
	Min       int  `json:"min"`
	Max       int  `json:"max"`
	Unbounded bool `json:"unbounded,omitempty"` // "10k+" has no maximum
}

var cleaner = strings.NewReplacer(
	"$", "",
	",", "",
	"usd", "",
	" ", "",
	"\t", "",
	"–", "-",
	"—", "-",
)

// Parse reads a budget string. ok is false for empty or unparsable input.
func Parse(s string) (Range, bool) {
	v := cleaner.Replace(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return Range{}, false
	}

	for _, prefix := range []string{"upto", "under", "max"} {
		if rest, found := strings.CutPrefix(v, prefix); found {
			n, ok := parseAmount(rest)
			return Range{Min: 0, Max: n}, ok
		}
	}

	if rest, found := strings.CutSuffix(v, "+"); found {
		n, ok := parseAmount(rest)
		return Range{Min: n, Unbounded: true}, ok
	}

	lo, hi, found := strings.Cut(v, "-")
	if !found {
		lo, hi, found = strings.Cut(v, "to")
	}
	if !found {
		n, ok := parseAmount(v)
		return Range{Min: n, Max: n}, ok
	}

	min, ok := parseAmount(lo)
	if !ok {
		return Range{}, false
	}
	max, ok := parseAmount(hi)
	if !ok {
		return Range{}, false
	}
	if min > max {
		min, max = max, min
	}
	return Range{Min: min, Max: max}, true
}

func parseAmount(s string) (int, bool) {
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1_000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "m")
	}
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	// float64(math.MaxInt) rounds up to 2^63, so >= catches every value
	// that would wrap on conversion.
	v := math.Round(f * mult)
	if v >= float64(math.MaxInt) {
		return math.MaxInt, true
	}
	return int(v), true
}

// Upper is the value used for ordering and scoring: Max, or Min for an
// unbounded range.
func (r Range) Upper() int {
	if r.Unbounded {
		return r.Min
	}
	return r.Max
}

// Overlaps reports whether the range intersects [min, max]. A nil bound is open.
func (r Range) Overlaps(min, max *int) bool {
	if max != nil && r.Min > *max {
		return false
	}
	if min != nil && !r.Unbounded && r.Max < *min {
		return false
	}
	return true
}

// UpperOf parses s and returns its upper value, or 0 when s is unparsable.
func UpperOf(s string) int {
	r, ok := Parse(s)
	if !ok {
		return 0
	}
	return r.Upper()
}
