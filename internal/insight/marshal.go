package insight

import (
	"fmt"
	"strings"
)

// DefaultTokenBudget bounds the serialized context block handed back into a
// session.
const DefaultTokenBudget = 1000

// displayPriority fixes the order type groups appear in serialized output.
var displayPriority = []Type{
	TypePrinciple,
	TypeTrigger,
	TypeBehavioral,
	TypePersonality,
	TypeRelational,
	TypeSkill,
}

// sectionTitles maps each type to its serialized heading.
var sectionTitles = map[Type]string{
	TypePrinciple:   "Principles",
	TypeTrigger:     "Triggers",
	TypeBehavioral:  "Behaviors",
	TypePersonality: "Personality",
	TypeRelational:  "Relationships",
	TypeSkill:       "Skills",
}

// MarshalOptions configures budget-aware serialization.
type MarshalOptions struct {
	// TokenBudget caps the estimated token size of the output. Defaults to
	// DefaultTokenBudget.
	TokenBudget int
}

func (o *MarshalOptions) applyDefaults() {
	if o.TokenBudget <= 0 {
		o.TokenBudget = DefaultTokenBudget
	}
}

// estimateTokens approximates the token count of s. Four characters per
// token is the usual rule of thumb for English prose.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// MarshalRanked serializes ranked retrieval results into a markdown block,
// grouped by type in fixed display priority. Within a group, results keep
// their rank order. The budget is checked before appending each unit;
// serialization stops entirely once a unit no longer fits.
//
// This is the presentation boundary, not the ranking core, but its ordering
// contract (groups in priority order, budget check before each unit) is one
// the ranker's consumers rely on.
func MarshalRanked(results []ScoredInsight, opts MarshalOptions) string {
	opts.applyDefaults()

	grouped := make(map[Type][]ScoredInsight, len(displayPriority))
	for _, r := range results {
		grouped[r.Insight.Type] = append(grouped[r.Insight.Type], r)
	}

	var b strings.Builder
	used := 0

	for _, typ := range displayPriority {
		group := grouped[typ]
		if len(group) == 0 {
			continue
		}

		heading := fmt.Sprintf("## %s\n", sectionTitles[typ])
		headingWritten := false

		for _, r := range group {
			unit := renderUnit(r.Insight)
			cost := estimateTokens(unit)
			if !headingWritten {
				cost += estimateTokens(heading)
			}
			if used+cost > opts.TokenBudget {
				return b.String()
			}
			if !headingWritten {
				b.WriteString(heading)
				headingWritten = true
			}
			b.WriteString(unit)
			used += cost
		}
	}

	return b.String()
}

// renderUnit formats one insight as a single serialized bullet.
func renderUnit(ins *Insight) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(ins.Claim)
	if ins.Type == TypeTrigger && ins.Condition != "" {
		if ins.Avoid {
			b.WriteString(fmt.Sprintf(" (avoid when: %s)", ins.Condition))
		} else {
			b.WriteString(fmt.Sprintf(" (when: %s)", ins.Condition))
		}
	}
	b.WriteString(fmt.Sprintf(" [confidence %.2f]", ins.Confidence))
	if ins.Context != "" {
		b.WriteString(fmt.Sprintf(" (%s)", ins.Context))
	}
	b.WriteString("\n")
	return b.String()
}
