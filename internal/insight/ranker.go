package insight

import (
	"fmt"
	"math"
	"sort"
)

// Retrieval defaults.
const (
	// DefaultMaxResults caps ranked retrieval output.
	DefaultMaxResults = 5

	// DefaultOversample multiplies MaxResults for the cosine shortlist so
	// post-scoring still has enough candidates after boosts reorder them.
	DefaultOversample = 3
)

// RetrievalOptions configures ranked retrieval. Every recognized option is
// enumerated here; defaults are applied once at the entry point.
type RetrievalOptions struct {
	// MaxResults caps the final result list. Defaults to DefaultMaxResults.
	MaxResults int

	// MinConfidence filters out insights below this confidence before
	// scoring. Filtered-out candidates never appear in output.
	MinConfidence float64

	// Types restricts results to the given insight types. Empty means all.
	Types []Type

	// Boosts is the per-type multiplier profile, normally produced by the
	// context classifier. The zero value means neutral (all 1.0).
	Boosts BoostProfile

	// Oversample multiplies MaxResults for the nearest-neighbor shortlist.
	// Defaults to DefaultOversample.
	Oversample int
}

func (o *RetrievalOptions) applyDefaults() {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.Oversample <= 0 {
		o.Oversample = DefaultOversample
	}
	if o.Boosts == (BoostProfile{}) {
		o.Boosts = NeutralBoosts()
	}
}

// rankScore combines semantic similarity, confidence, reinforcement history
// and the context-dependent type boost:
//
//	score = cos × confidence × log2(reinforcementCount+2) × typeBoost
//
// The +2 inside the log keeps a never-reinforced insight from scoring zero
// while still rewarding repeated confirmation.
func rankScore(similarity float64, ins *Insight, boosts BoostProfile) float64 {
	return similarity * ins.Confidence * math.Log2(float64(ins.ReinforcementCount)+2) * boosts.For(ins.Type)
}

// fallbackScore ranks an insight with no usable semantic signal:
// confidence × log2(reinforcementCount+2) × typeBoost, no similarity term.
func fallbackScore(ins *Insight, boosts BoostProfile) float64 {
	return ins.Confidence * math.Log2(float64(ins.ReinforcementCount)+2) * boosts.For(ins.Type)
}

// RankInsights ranks the corpus against a query embedding.
//
// Confidence and type filters are applied before scoring. When query is
// non-empty, candidates are shortlisted by cosine similarity (oversampled
// beyond MaxResults) before the full score is computed. Records with no
// stored vector, or all records when query is empty, are scored by the
// non-semantic fallback so a missing embedding degrades ranking instead of
// failing retrieval. A stored vector whose length disagrees with the query
// is a hard error, not a zero score.
//
// Results are sorted non-increasing by score and truncated to MaxResults.
func RankInsights(query []float32, corpus []*Insight, vectors map[string][]float32, opts RetrievalOptions) ([]ScoredInsight, error) {
	opts.applyDefaults()

	allowed := make(map[Type]struct{}, len(opts.Types))
	for _, t := range opts.Types {
		allowed[t] = struct{}{}
	}

	candidates := make([]ScoredInsight, 0, len(corpus))
	for _, ins := range corpus {
		if ins.Confidence < opts.MinConfidence {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[ins.Type]; !ok {
				continue
			}
		}

		similarity := 0.0
		if len(query) > 0 {
			if vec, ok := vectors[ins.ID]; ok {
				sim, err := CosineSimilarity(query, vec)
				if err != nil {
					return nil, fmt.Errorf("insight %s: %w", ins.ID, err)
				}
				similarity = sim
			}
		}
		candidates = append(candidates, ScoredInsight{Insight: ins, Similarity: similarity})
	}

	// Nearest-neighbor shortlist, oversampled to survive post-scoring
	// reordering by boosts and reinforcement.
	if len(query) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Similarity > candidates[j].Similarity
		})
		shortlist := opts.MaxResults * opts.Oversample
		if len(candidates) > shortlist {
			candidates = candidates[:shortlist]
		}
	}

	for i := range candidates {
		ins := candidates[i].Insight
		if len(query) > 0 {
			if _, ok := vectors[ins.ID]; ok {
				candidates[i].Score = rankScore(candidates[i].Similarity, ins, opts.Boosts)
				continue
			}
		}
		candidates[i].Score = fallbackScore(ins, opts.Boosts)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > opts.MaxResults {
		candidates = candidates[:opts.MaxResults]
	}
	return candidates, nil
}
