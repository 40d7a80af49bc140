package lexical

import (
	"math"
	"strings"
)

// strongTermLen is the length at which a matched term counts as strong
// evidence (longer terms are far less likely to match by accident).
const strongTermLen = 6

// Score accumulates lexical-overlap evidence of terms in text.
// Each matched term counts once, regardless of occurrences: +3 for
// terms of 6+ characters, +1 for shorter ones.
func Score(text string, terms []string) float64 {
	lower := strings.ToLower(text)
	var score float64
	for _, term := range terms {
		if term == "" {
			continue
		}
		if !strings.Contains(lower, term) {
			continue
		}
		if len(term) >= strongTermLen {
			score += 3
		} else {
			score++
		}
	}
	return score
}

// NormalizeMinMax linearly rescales values to [0,1]. When the input is
// empty or all finite values are equal, every output is 0 rather than
// dividing by zero. Non-finite inputs normalize to 0.
func NormalizeMinMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo || math.IsInf(lo, 1) {
		return out
	}

	span := hi - lo
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = (v - lo) / span
	}
	return out
}
