package facts

import (
	"golang.org/x/text/unicode/norm"
)

// NotFound is the display value used when no source yields a parseable fact
const NotFound = "Nezistené"

// Identifiers of the built-in fact types
const (
	IDFloors  = "pocet_podlazi"
	IDParking = "pocet_parkovacich_miest"
)

// ValueExtractor renders one display value out of the raw extraction outputs
type ValueExtractor func(texts []string) string

// ConfidenceCalculator scores agreement of the raw outputs and the comparator verdict
type ConfidenceCalculator func(texts []string, verdict string) float64

// Config describes one kind of cross-document check
type Config struct {
	ID                    string
	Name                  string
	ExtractionInstruction string
	// SearchQueries holds one query per consulted source, 1 to 3 entries.
	SearchQueries        []string
	OrchestratorPrompt   string
	ComparisonQuestion   string
	ValueExtractor       ValueExtractor
	ConfidenceCalculator ConfidenceCalculator
}

// QueryFor returns the query for the i-th source, falling back to the first one
func (c Config) QueryFor(i int) string {
	if i >= 0 && i < len(c.SearchQueries) && c.SearchQueries[i] != "" {
		return c.SearchQueries[i]
	}
	if len(c.SearchQueries) == 0 {
		return ""
	}
	return c.SearchQueries[0]
}

// Defaults returns the fixed, ordered table of fact types
func Defaults() []Config {
	return []Config{
		{
			ID:   IDFloors,
			Name: "Počet podlaží",
			ExtractionInstruction: `Prehľadaj dokument a zisti, koľko podlaží má objekt.
Odpovedz iba v tomto formáte: Počet podzemných podlaží: X, Počet nadzemných podlaží: Y
Nepridávaj žiadny ďalší text.`,
			SearchQueries: []string{
				"počet podlaží objektu",
				"počet podlaží objektu",
				"počet nadzemných a podzemných podlaží",
			},
			OrchestratorPrompt: `Posúď zhodu medzi zistenými počtami podlaží z rôznych dokumentov.
Odpovedz iba v tomto formáte: Zhodujú sa: áno/nie
Nepridávaj žiadny ďalší text.`,
			ComparisonQuestion:   "Posúď, či sa celkové počty podlaží v objekte zhodujú.",
			ValueExtractor:       FloorValue,
			ConfidenceCalculator: FloorConfidence,
		},
		{
			ID:   IDParking,
			Name: "Počet parkovacích miest",
			ExtractionInstruction: `Prehľadaj dokument a zisti, koľko parkovacích miest má objekt.
Odpovedz iba v tomto formáte: Počet parkovacích miest celkom: X, z toho vonkajších: Y, v garáži: Z
Ak údaj v dokumente chýba, napíš namiesto čísla "neuvedené".
Nepridávaj žiadny ďalší text.`,
			SearchQueries: []string{
				"počet parkovacích miest",
				"počet parkovacích miest",
				"parkovacie miesta na teréne a v garáži",
			},
			OrchestratorPrompt: `Posúď zhodu medzi zistenými počtami parkovacích miest z rôznych dokumentov.
Odpovedz iba v tomto formáte: Zhodujú sa: áno/nie
Nepridávaj žiadny ďalší text.`,
			ComparisonQuestion:   "Posúď, či sa celkové počty parkovacích miest zhodujú.",
			ValueExtractor:       ParkingValue,
			ConfidenceCalculator: ParkingConfidence,
		},
	}
}

// normalize folds decomposed diacritics so the patterns see one spelling
func normalize(s string) string {
	return norm.NFC.String(s)
}
