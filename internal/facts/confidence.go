package facts

import (
	"strings"
)

const (
	// NeutralConfidence is returned when there is no signal at all.
	NeutralConfidence = 0.5

	comparatorWeight = 1.0
	affirmativeToken = "áno"
)

// Subfact is one independently scored number inside a fact type
type Subfact struct {
	Name   string
	Weight float64
	Parse  func(text string) (int, bool)
}

type agreement int

const (
	agreementNone agreement = iota
	agreementPartial
	agreementFull
)

// Affirmative reports whether the comparator verdict contains "áno"
func Affirmative(verdict string) bool {
	return strings.Contains(strings.ToLower(normalize(verdict)), affirmativeToken)
}

// Score blends per-subfact numeric agreement with the comparator verdict.
// Subfacts parsed from fewer than two texts are skipped. The result is in [0,1].
func Score(texts []string, verdict string, subfacts []Subfact) float64 {
	var num, den float64

	for _, sf := range subfacts {
		values := make([]int, 0, len(texts))
		for _, t := range texts {
			if v, ok := sf.Parse(t); ok {
				values = append(values, v)
			}
		}
		if len(values) < 2 {
			continue
		}

		den += sf.Weight
		switch agreementOf(values) {
		case agreementFull:
			num += sf.Weight
		case agreementPartial:
			num += sf.Weight / 2
		}
	}

	den += comparatorWeight
	if Affirmative(verdict) {
		num += comparatorWeight
	}

	if den == 0 {
		return NeutralConfidence
	}
	return clamp(num / den)
}

// agreementOf is full when all values are equal and partial when they
// take exactly two distinct values, whether from two or three sources.
func agreementOf(values []int) agreement {
	distinct := make(map[int]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}

	switch len(distinct) {
	case 1:
		return agreementFull
	case 2:
		return agreementPartial
	default:
		return agreementNone
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
