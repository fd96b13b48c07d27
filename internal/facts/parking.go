package facts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// The leading word is captured so that qualified counts
	// ("vonkajších parkovacích miest: 10") are not taken for the total.
	parkingTotalPattern   = regexp.MustCompile(`(?i)(\p{L}*)\s*parkovac\p{L}*\s+miest\p{L}*(?:\s+celkom)?\s*:?\s*(\d+)`)
	parkingOutdoorPattern = regexp.MustCompile(`(?i)(?:vonkajš|na\s+terén)\p{L}*(?:\s+parkovac\p{L}*\s+miest\p{L}*)?\s*:?\s*(\d+)`)
	parkingGaragePattern  = regexp.MustCompile(`(?i)(?:v\s+garáž|garážov|podzemn)\p{L}*(?:\s+parkovac\p{L}*\s+miest\p{L}*)?\s*:?\s*(\d+)`)
)

var qualifiedParkingPrefixes = []string{"vonkajš", "garážov", "podzemn", "krytých"}

var parkingSubfacts = []Subfact{
	{Name: "total", Weight: 2, Parse: parseParkingTotal},
	{Name: "outdoor", Weight: 1, Parse: parseOutdoor},
	{Name: "garage", Weight: 1, Parse: parseGarage},
}

type parkingCounts struct {
	total, outdoor, garage          int
	hasTotal, hasOutdoor, hasGarage bool
}

func parseParking(text string) parkingCounts {
	var c parkingCounts
	c.total, c.hasTotal = parseExplicitTotal(text)
	c.outdoor, c.hasOutdoor = parseOutdoor(text)
	c.garage, c.hasGarage = parseGarage(text)
	return c
}

func (c parkingCounts) any() bool {
	return c.hasTotal || c.hasOutdoor || c.hasGarage
}

// sum is the explicit total, or the split counts added up
func (c parkingCounts) sum() (int, bool) {
	if c.hasTotal {
		return c.total, true
	}
	if c.hasOutdoor || c.hasGarage {
		return c.outdoor + c.garage, true
	}
	return 0, false
}

func parseExplicitTotal(text string) (int, bool) {
	for _, m := range parkingTotalPattern.FindAllStringSubmatch(normalize(text), -1) {
		if isQualified(m[1]) {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

func isQualified(word string) bool {
	w := strings.ToLower(word)
	for _, p := range qualifiedParkingPrefixes {
		if strings.HasPrefix(w, p) {
			return true
		}
	}
	return false
}

func parseParkingTotal(text string) (int, bool) {
	return parseParking(text).sum()
}

func parseOutdoor(text string) (int, bool) {
	return firstNumber(parkingOutdoorPattern, text)
}

func parseGarage(text string) (int, bool) {
	return firstNumber(parkingGaragePattern, text)
}

// ParkingValue renders "T PM (O vonkajších + G v garáži)" from the first
// source mentioning any parking count. Missing split counts render as 0.
func ParkingValue(texts []string) string {
	for _, t := range texts {
		c := parseParking(t)
		if !c.any() {
			continue
		}
		total, _ := c.sum()
		return fmt.Sprintf("%d PM (%s vonkajších + %s v garáži)",
			total,
			placeholder(c.outdoor, c.hasOutdoor, "0"),
			placeholder(c.garage, c.hasGarage, "0"),
		)
	}
	return NotFound
}

// ParkingConfidence scores the total and both split counts
func ParkingConfidence(texts []string, verdict string) float64 {
	return Score(texts, verdict, parkingSubfacts)
}
