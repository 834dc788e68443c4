package narrative

import "strings"

// qualifierPrefixes mark free text that amends a canned default rather than
// adding to it.
var qualifierPrefixes = []string{"except", "but", "however"}

// Combine merges a "normal findings" checkbox with its free-text field.
//
//	flag unset, no text  -> ""
//	flag set,   no text  -> defaultText
//	flag unset, text     -> text
//	flag set,   text     -> defaultText joined to text
//
// When both are present and the text opens with except/but/however, the text
// follows the default directly (minus its trailing period). Otherwise the two
// are joined with ", {connector} ".
func Combine(flag bool, text, defaultText, connector string) string {
	text = strings.TrimSpace(text)
	switch {
	case !flag && text == "":
		return ""
	case flag && text == "":
		return defaultText
	case !flag:
		return text
	}

	base := strings.TrimSuffix(strings.TrimSpace(defaultText), ".")
	lower := strings.ToLower(text)
	for _, prefix := range qualifierPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return base + " " + text
		}
	}
	return base + ", " + connector + " " + text
}
