package insight

import (
	"fmt"
	"strings"
)

// tensionGain controls how quickly additional matched pairs saturate the
// tension score: score = 1 - 1/(1 + tensionGain*n). One pair yields 0.375;
// further pairs add sharply diminishing increments, capped at 1.0.
const tensionGain = 0.6

// oppositionPair is one curated pair of opposing concept terms.
type oppositionPair struct {
	a, b string
}

// oppositionPairs is the curated opposing-concept table, grouped by theme.
// Terms are matched against the token set produced by Tokenize, so both raw
// and stemmed claim vocabulary can hit them.
var oppositionPairs = []oppositionPair{
	// Communication style
	{"verbose", "concise"},
	{"verbose", "brief"},
	{"detailed", "brief"},
	{"detailed", "concise"},
	{"elaborate", "terse"},
	{"talkative", "quiet"},
	{"expressive", "reserved"},
	{"direct", "indirect"},
	{"blunt", "diplomatic"},
	{"explain", "summarize"},
	{"long", "short"},

	// Action orientation
	{"ask", "act"},
	{"wait", "proceed"},
	{"passive", "proactive"},
	{"hesitate", "decide"},
	{"hesitate", "act"},
	{"deliberate", "impulsive"},
	{"patient", "urgent"},
	{"slow", "fast"},
	{"follow", "lead"},
	{"react", "initiate"},
	{"observe", "intervene"},

	// Formality
	{"formal", "casual"},
	{"formal", "informal"},
	{"professional", "relaxed"},
	{"serious", "playful"},
	{"strict", "lenient"},
	{"rigid", "flexible"},
	{"polished", "rough"},

	// Approach
	{"planned", "spontaneous"},
	{"structured", "improvised"},
	{"methodical", "adhoc"},
	{"thorough", "quick"},
	{"careful", "hasty"},
	{"precise", "approximate"},
	{"perfectionist", "pragmatic"},
	{"theoretical", "practical"},
	{"incremental", "sweeping"},
	{"consistent", "erratic"},

	// Risk
	{"cautious", "bold"},
	{"caution", "bold"},
	{"safe", "risky"},
	{"conservative", "aggressive"},
	{"avoid", "embrace"},
	{"prudent", "daring"},
	{"stable", "volatile"},
	{"certain", "experimental"},

	// Independence
	{"independent", "collaborative"},
	{"autonomous", "supervised"},
	{"solo", "team"},
	{"delegate", "control"},
	{"trust", "verify"},
	{"individual", "collective"},
}

// TensionResult is the outcome of contradiction detection between two
// claims.
type TensionResult struct {
	// Score is the bounded contradiction score in [0, 1].
	Score float64

	// MatchedPairs lists each matched opposition, formatted as
	// "term" ↔ "term" for human-readable explanation.
	MatchedPairs []string
}

// Reason joins the matched pairs into a single explanation string.
func (r TensionResult) Reason() string {
	return strings.Join(r.MatchedPairs, ", ")
}

// DetectTension detects opposing-concept collisions between two claims.
// It is case-insensitive and symmetric: DetectTension(a, b) and
// DetectTension(b, a) produce the same score.
func DetectTension(claimA, claimB string) TensionResult {
	return tensionBetween(Tokenize(claimA), Tokenize(claimB))
}

// tensionBetween runs the opposition table against two pre-tokenized claims.
//
// A pair matches when one claim holds one term and the other claim holds the
// opposing term. A pair is excluded when both claims contain both terms:
// that is nuanced co-discussion of the axis, not contradiction.
func tensionBetween(tokensA, tokensB map[string]struct{}) TensionResult {
	var matched []string
	for _, pair := range oppositionPairs {
		aHasA := contains(tokensA, pair.a)
		aHasB := contains(tokensA, pair.b)
		bHasA := contains(tokensB, pair.a)
		bHasB := contains(tokensB, pair.b)

		if aHasA && aHasB && bHasA && bHasB {
			continue
		}
		if (aHasA && bHasB) || (aHasB && bHasA) {
			matched = append(matched, fmt.Sprintf("%q ↔ %q", pair.a, pair.b))
		}
	}

	if len(matched) == 0 {
		return TensionResult{}
	}

	score := 1.0 - 1.0/(1.0+tensionGain*float64(len(matched)))
	if score > 1.0 {
		score = 1.0
	}
	return TensionResult{Score: score, MatchedPairs: matched}
}

func contains(set map[string]struct{}, token string) bool {
	_, ok := set[token]
	return ok
}
