package insight

import "strings"

// ContextCategory is the small category set a free-text query maps to.
// The chosen category selects the type-boost profile used by ranked
// retrieval.
type ContextCategory string

const (
	CategoryCoding        ContextCategory = "coding"
	CategoryCommunication ContextCategory = "communication"
	CategoryEthical       ContextCategory = "ethical"
	CategoryCreative      ContextCategory = "creative"

	// CategoryGeneral is the neutral fallback when no category reaches the
	// activation threshold. Its boost profile is all 1.0.
	CategoryGeneral ContextCategory = "general"
)

// activationThreshold is the minimum weighted hit count a category must
// reach; below it the classifier falls back to CategoryGeneral.
const activationThreshold = 1.0

// substringHitWeight discounts matches found only as substrings of larger
// tokens (compounds like "codebase" hitting "code").
const substringHitWeight = 0.5

// categoryKeywords pairs each category with its keyword set and per-category
// weight.
type categoryKeywords struct {
	category ContextCategory
	weight   float64
	keywords []string
}

// Order fixes tie-breaking: earlier categories win equal scores.
var classifierKeywords = []categoryKeywords{
	{
		category: CategoryCoding,
		weight:   1.0,
		keywords: []string{
			"code", "coding", "program", "debug", "refactor", "function",
			"compile", "test", "bug", "implement", "software", "api",
			"script", "build", "deploy",
		},
	},
	{
		category: CategoryCommunication,
		weight:   1.0,
		keywords: []string{
			"write", "writing", "email", "message", "reply", "explain",
			"summarize", "tone", "phrasing", "conversation", "draft",
			"respond", "communicate", "meeting",
		},
	},
	{
		category: CategoryEthical,
		weight:   1.2,
		keywords: []string{
			"ethical", "ethics", "moral", "honest", "privacy", "consent",
			"harm", "fair", "transparent", "integrity", "trust",
		},
	},
	{
		category: CategoryCreative,
		weight:   1.0,
		keywords: []string{
			"creative", "brainstorm", "idea", "design", "story", "imagine",
			"invent", "novel", "art", "compose", "sketch",
		},
	},
}

// BoostProfile holds one ranking multiplier per insight type. The zero
// value is not meaningful; use NeutralBoosts for no bias.
type BoostProfile struct {
	Behavioral  float64
	Personality float64
	Relational  float64
	Principle   float64
	Skill       float64
	Trigger     float64
}

// For returns the multiplier for the given type.
func (p BoostProfile) For(t Type) float64 {
	switch t {
	case TypeBehavioral:
		return p.Behavioral
	case TypePersonality:
		return p.Personality
	case TypeRelational:
		return p.Relational
	case TypePrinciple:
		return p.Principle
	case TypeSkill:
		return p.Skill
	case TypeTrigger:
		return p.Trigger
	default:
		return 1.0
	}
}

// NeutralBoosts is the all-1.0 profile used for the general category.
func NeutralBoosts() BoostProfile {
	return BoostProfile{
		Behavioral:  1.0,
		Personality: 1.0,
		Relational:  1.0,
		Principle:   1.0,
		Skill:       1.0,
		Trigger:     1.0,
	}
}

// Boosts maps the category to its fixed per-type boost profile.
func (c ContextCategory) Boosts() BoostProfile {
	switch c {
	case CategoryCoding:
		return BoostProfile{
			Behavioral:  1.2,
			Personality: 0.9,
			Relational:  0.8,
			Principle:   1.0,
			Skill:       1.5,
			Trigger:     1.1,
		}
	case CategoryCommunication:
		return BoostProfile{
			Behavioral:  1.3,
			Personality: 1.1,
			Relational:  1.4,
			Principle:   1.0,
			Skill:       0.9,
			Trigger:     1.1,
		}
	case CategoryEthical:
		return BoostProfile{
			Behavioral:  1.1,
			Personality: 1.0,
			Relational:  1.0,
			Principle:   1.6,
			Skill:       0.8,
			Trigger:     1.2,
		}
	case CategoryCreative:
		return BoostProfile{
			Behavioral:  1.0,
			Personality: 1.3,
			Relational:  0.9,
			Principle:   0.9,
			Skill:       1.3,
			Trigger:     1.0,
		}
	default:
		return NeutralBoosts()
	}
}

// ClassifyContext maps a free-text query to a context category using
// weighted keyword hits. Both whole-token and substring matches count, the
// latter at half weight to catch compounds without over-rewarding them.
//
// Empty input and queries with no hits above the activation threshold map
// to CategoryGeneral.
func ClassifyContext(query string) ContextCategory {
	query = strings.ToLower(query)
	if strings.TrimSpace(query) == "" {
		return CategoryGeneral
	}

	tokens := Tokenize(query)

	best := CategoryGeneral
	bestScore := 0.0
	for _, ck := range classifierKeywords {
		score := 0.0
		for _, keyword := range ck.keywords {
			if contains(tokens, keyword) {
				score += ck.weight
			} else if strings.Contains(query, keyword) {
				score += ck.weight * substringHitWeight
			}
		}
		if score > bestScore {
			best = ck.category
			bestScore = score
		}
	}

	if bestScore < activationThreshold {
		return CategoryGeneral
	}
	return best
}
