package rulebook

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// ruleTerms mark mechanics that add rules overhead.
var ruleTerms = map[string]struct{}{
	"phase": {}, "phases": {}, "action": {}, "actions": {}, "round": {}, "rounds": {},
	"exception": {}, "exceptions": {}, "optional": {}, "advanced": {}, "variant": {},
	"resolve": {}, "resolves": {}, "trigger": {}, "triggers": {}, "modifier": {},
	"modifiers": {}, "upkeep": {}, "priority": {}, "initiative": {}, "scenario": {},
}

const (
	minComplexity = 1.0
	maxComplexity = 5.0
)

// Complexity scores rules weight from 1.0 to 5.0 using text length, page
// count, and the density of rules vocabulary. The result has one decimal.
func Complexity(text string, pages int) float64 {
	folded := cases.Fold().String(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})

	// Length saturates at 40k characters, pages at 24.
	lengthScore := math.Min(2.0, float64(len(text))/20000.0)
	pageScore := math.Min(1.0, float64(pages)/24.0)

	densityScore := 0.0
	if len(words) > 0 {
		hits := 0
		for _, w := range words {
			if _, ok := ruleTerms[w]; ok {
				hits++
			}
		}
		perThousand := float64(hits) * 1000.0 / float64(len(words))
		densityScore = math.Min(1.0, perThousand/20.0)
	}

	score := minComplexity + lengthScore + pageScore + densityScore
	score = math.Max(minComplexity, math.Min(maxComplexity, score))
	return math.Round(score*10) / 10
}
