package formatting

import (
	"strings"
)

// DispatchRule maps a keyword found in a dispatch reason to a canned phrase.
// Transform receives the trimmed, lower-cased dispatch text.
type DispatchRule struct {
	Keyword   string
	Transform func(text string) string
}

// Matches reports whether the rule applies to the lower-cased dispatch text.
func (r DispatchRule) Matches(text string) bool {
	return strings.Contains(text, r.Keyword)
}

func fixed(phrase string) func(string) string {
	return func(string) string { return phrase }
}

// dispatchRules is evaluated in order and the first match wins. Specific
// conditions come before generic symptom words so "chest pain" reads as
// chest discomfort rather than a pain complaint.
var dispatchRules = []DispatchRule{
	{Keyword: "chest", Transform: fixed("chest discomfort")},
	{Keyword: "cardiac", Transform: fixed("a cardiac event")},
	{Keyword: "stroke", Transform: fixed("a possible stroke")},
	{Keyword: "seizure", Transform: fixed("a possible seizure")},
	{Keyword: "overdose", Transform: fixed("a possible overdose")},
	{Keyword: "diabetic", Transform: fixed("a diabetic emergency")},
	{Keyword: "psychiatric", Transform: fixed("a psychiatric emergency")},
	{Keyword: "unconscious", Transform: fixed("an unconscious person")},
	{Keyword: "unresponsive", Transform: fixed("an unresponsive person")},
	{Keyword: "breathing", Transform: fixed("difficulty breathing")},
	{Keyword: "respiratory", Transform: fixed("respiratory distress")},
	{Keyword: "allergy", Transform: fixed("an allergic reaction")},
	{Keyword: "allergic", Transform: fixed("an allergic reaction")},
	{Keyword: "bleeding", Transform: fixed("active bleeding")},
	{Keyword: "fall", Transform: fixed("a fall incident")},
	{Keyword: "trauma", Transform: fixed("a trauma incident")},
	{Keyword: "infection", Transform: func(t string) string { return "a possible " + t }},
	{Keyword: "injury", Transform: WithArticle},
	{Keyword: "incident", Transform: WithArticle},
	{Keyword: "emergency", Transform: func(t string) string { return "a medical " + t }},
	{Keyword: "illness", Transform: WithArticle},
	{Keyword: "pain", Transform: complaintsOf},
	{Keyword: "ache", Transform: complaintsOf},
	{Keyword: "discomfort", Transform: complaintsOf},
	{Keyword: "dizzy", Transform: fixed("dizziness")},
	{Keyword: "weak", Transform: fixed("weakness")},
	{Keyword: "sick", Transform: fixed("illness")},
}

// DispatchRules returns a copy of the ordered dispatch phrase table.
func DispatchRules() []DispatchRule {
	return append([]DispatchRule(nil), dispatchRules...)
}

func complaintsOf(text string) string {
	return "complaints of " + text
}

// EnhanceDispatchText turns a raw dispatch reason into the phrase that follows
// "was dispatched to".
func EnhanceDispatchText(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}
	for _, rule := range dispatchRules {
		if rule.Matches(text) {
			return rule.Transform(text)
		}
	}
	if hasArticle(text) {
		return text
	}
	return "a patient with " + text
}

// WithArticle prefixes "a" or "an" unless the text already carries one.
func WithArticle(text string) string {
	if text == "" || hasArticle(text) {
		return text
	}
	switch text[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + text
	default:
		return "a " + text
	}
}

func hasArticle(text string) bool {
	return strings.HasPrefix(text, "a ") || strings.HasPrefix(text, "an ")
}

// DelayNone is the sentinel response-delay code meaning no delay.
const DelayNone = "none"

var defaultDelayDescriptions = map[string]string{
	"traffic":    "heavy traffic conditions",
	"weather":    "inclement weather",
	"staging":    "staging requirements for scene security",
	"access":     "difficulties accessing the location",
	"directions": "challenges locating the address",
}

// DefaultDelayDescriptions returns a copy of the built-in delay dictionary.
func DefaultDelayDescriptions() map[string]string {
	out := make(map[string]string, len(defaultDelayDescriptions))
	for k, v := range defaultDelayDescriptions {
		out[k] = v
	}
	return out
}

// ProcessResponseDelays renders the delay suffix for the dispatch sentence
// using the built-in dictionary.
func ProcessResponseDelays(delays []string) string {
	return DescribeResponseDelays(delays, defaultDelayDescriptions)
}

// DescribeResponseDelays renders the delay suffix with a caller-supplied
// dictionary keyed by lower-case code. Codes match case-insensitively; unknown
// codes pass through verbatim. The suffix starts with a space so it can be
// appended directly after a sentence.
func DescribeResponseDelays(delays []string, descriptions map[string]string) string {
	items := make([]string, 0, len(delays))
	for _, code := range delays {
		code = strings.TrimSpace(code)
		key := strings.ToLower(code)
		if key == "" || key == DelayNone {
			continue
		}
		if desc, ok := descriptions[key]; ok {
			items = append(items, desc)
			continue
		}
		items = append(items, code)
	}
	if len(items) == 0 {
		return ""
	}
	return " Response time was affected by " + JoinWithAnd(items) + "."
}

// JoinWithAnd joins items as "A, B and C".
func JoinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// JoinNonEmpty joins trimmed, non-empty parts with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
