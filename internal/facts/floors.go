package facts

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	undergroundPattern = regexp.MustCompile(`(?i)podzemn[ýé]ch?\s*podlaží?:?\s*(\d+)`)
	abovePattern       = regexp.MustCompile(`(?i)nadzemn[ýé]ch?\s*podlaží?:?\s*(\d+)`)
)

var floorSubfacts = []Subfact{
	{Name: "underground", Weight: 2, Parse: parseUnderground},
	{Name: "above", Weight: 2, Parse: parseAbove},
}

func parseUnderground(text string) (int, bool) {
	return firstNumber(undergroundPattern, text)
}

func parseAbove(text string) (int, bool) {
	return firstNumber(abovePattern, text)
}

// FloorValue renders "U PP + A NP" from the first source mentioning either count
func FloorValue(texts []string) string {
	for _, t := range texts {
		u, uok := parseUnderground(t)
		a, aok := parseAbove(t)
		if !uok && !aok {
			continue
		}
		return fmt.Sprintf("%s PP + %s NP", placeholder(u, uok, "?"), placeholder(a, aok, "?"))
	}
	return NotFound
}

// FloorConfidence scores underground and above-ground counts independently
func FloorConfidence(texts []string, verdict string) float64 {
	return Score(texts, verdict, floorSubfacts)
}

func firstNumber(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(normalize(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func placeholder(v int, ok bool, missing string) string {
	if !ok {
		return missing
	}
	return strconv.Itoa(v)
}
