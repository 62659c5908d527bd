package insight

import (
	"strings"
	"unicode"
)

// irregularStems maps word forms that the suffix rules cannot reach back to
// the surface form used in the opposition table.
var irregularStems = map[string]string{
	"brevity":       "brief",
	"verbosity":     "verbose",
	"concision":     "concise",
	"cautious":      "caution",
	"spontaneity":   "spontaneous",
	"autonomy":      "autonomous",
	"independence":  "independent",
	"collaboration": "collaborative",
	"collaborate":   "collaborative",
	"decisive":      "decide",
	"decision":      "decide",
}

// suffixRules are tried in order; only the first rule whose stripped result
// keeps length >= 3 applies. Rules are never chained. This is a deliberately
// approximate transform that exists to raise recall for the opposition
// table, not to be a correct linguistic stemmer; the table is calibrated
// against its quirks.
var suffixRules = []string{
	"ness", "ity", "tion", "ment", "ing", "ly", "ous", "ive", "ful",
	"ed", "er", "est", "al", "s",
}

// minStemLength is the shortest result a suffix rule may produce.
const minStemLength = 3

// Tokenize lowercases text, splits on non-word boundaries, drops tokens of
// length <= 2, and adds a stemmed form for each surviving token when it
// differs. The returned set always contains both raw and stemmed forms so
// literal-keyword matching keeps working.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range splitWords(strings.ToLower(text)) {
		if len(word) <= 2 {
			continue
		}
		tokens[word] = struct{}{}
		if stemmed := stem(word); stemmed != word {
			tokens[stemmed] = struct{}{}
		}
	}
	return tokens
}

// splitWords splits text on any rune that is not a letter, digit, or
// underscore.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// stem applies the irregular lookup first, then the ordered suffix rules.
func stem(word string) string {
	if mapped, ok := irregularStems[word]; ok {
		return mapped
	}
	for _, suffix := range suffixRules {
		if !strings.HasSuffix(word, suffix) {
			continue
		}
		candidate := strings.TrimSuffix(word, suffix)
		if len(candidate) >= minStemLength {
			return candidate
		}
	}
	return word
}
