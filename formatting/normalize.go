package formatting

import (
	"regexp"
	"strings"
)

var (
	horizontalSpacePattern  = regexp.MustCompile(`[ \t]+`)
	spaceBeforePunctPattern = regexp.MustCompile(`[ \t]+([,.!?])`)
	periodRunPattern        = regexp.MustCompile(`\.{2,}`)
	periodLetterPattern     = regexp.MustCompile(`\.(\pL)`)
)

// Abbreviation is one entry of the ordered medical shorthand table.
type Abbreviation struct {
	Phrase      string
	Replacement string
	pattern     *regexp.Regexp
}

func newAbbreviation(phrase, replacement string) Abbreviation {
	return Abbreviation{
		Phrase:      phrase,
		Replacement: replacement,
		pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
	}
}

// abbreviations is applied top to bottom; every entry runs, so substitutions
// may compound.
var abbreviations = []Abbreviation{
	newAbbreviation("alert and oriented times four", "AAOX4"),
	newAbbreviation("glasgow coma scale", "GCS"),
	newAbbreviation("pupils were equal, round, and reactive to light", "Pupils were PERRL"),
	newAbbreviation("blood pressure", "BP"),
	newAbbreviation("heart rate", "HR"),
	newAbbreviation("respiratory rate", "RR"),
	newAbbreviation("temperature", "Temp"),
	newAbbreviation("electrocardiogram", "EKG"),
	newAbbreviation("intravenous", "IV"),
	newAbbreviation("emergency department", "ED"),
	newAbbreviation("loss of consciousness", "LOC"),
	newAbbreviation("chest pain", "CP"),
	newAbbreviation("abdominal pain", "AP"),
	newAbbreviation("respiratory distress", "RD"),
	newAbbreviation("blood glucose level", "BGL"),
}

// Abbreviations returns a copy of the ordered abbreviation table.
func Abbreviations() []Abbreviation {
	return append([]Abbreviation(nil), abbreviations...)
}

// Normalize cleans assembled narrative text: spacing, period runs, missing
// spaces after sentence breaks, and a terminal punctuation mark.
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = horizontalSpacePattern.ReplaceAllString(text, " ")
	text = spaceBeforePunctPattern.ReplaceAllString(text, "$1")
	text = periodRunPattern.ReplaceAllString(text, ".")
	text = periodLetterPattern.ReplaceAllString(text, ". $1")
	text = strings.TrimSpace(text)

	if text != "" {
		if last := text[len(text)-1]; last != '.' && last != '!' && last != '?' {
			text += "."
		}
	}
	return text
}

// Abbreviate replaces long-form medical phrases with their shorthand.
func Abbreviate(text string) string {
	for _, a := range abbreviations {
		text = a.pattern.ReplaceAllString(text, a.Replacement)
	}
	return text
}
