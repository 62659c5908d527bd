package insight

import "sort"

// Conflict score weights. Tension is weighted higher than lexical overlap
// because topic overlap and contradiction are different signals: an insight
// can contradict on a different topic, or overlap heavily without
// contradicting.
const (
	conflictSimilarityWeight = 0.3
	conflictTensionWeight    = 0.7

	// preFilterSimilarity skips candidates with no tension and lexical
	// similarity below this threshold.
	preFilterSimilarity = 0.3

	// DefaultConflictMinScore drops results below this combined score.
	DefaultConflictMinScore = 0.15

	// DefaultConflictMaxResults caps the returned conflict list.
	DefaultConflictMaxResults = 5
)

// ConflictOptions configures conflict detection. The zero value is usable:
// defaults are applied once at the entry point.
type ConflictOptions struct {
	// MinScore drops results whose combined conflict score is lower.
	// Defaults to DefaultConflictMinScore.
	MinScore float64

	// MaxResults caps the result list. Defaults to DefaultConflictMaxResults.
	MaxResults int

	// ExcludeID skips one corpus record, typically the candidate itself
	// when re-checking an existing insight.
	ExcludeID string
}

func (o *ConflictOptions) applyDefaults() {
	if o.MinScore <= 0 {
		o.MinScore = DefaultConflictMinScore
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultConflictMaxResults
	}
}

// DetectConflicts scans the corpus for insights that likely contradict the
// candidate claim. The corpus is small enough to scan exhaustively; no index
// is used. Results are sorted by descending conflict score and capped.
//
// An empty result means no conflicts; it is never an error.
func DetectConflicts(claim string, corpus []*Insight, opts ConflictOptions) []ConflictResult {
	opts.applyDefaults()

	candidateTokens := Tokenize(claim)
	results := make([]ConflictResult, 0, opts.MaxResults)

	for _, existing := range corpus {
		if opts.ExcludeID != "" && existing.ID == opts.ExcludeID {
			continue
		}

		existingTokens := Tokenize(existing.Claim)
		similarity := JaccardSimilarity(candidateTokens, existingTokens)
		tension := tensionBetween(candidateTokens, existingTokens)

		if tension.Score == 0 && similarity < preFilterSimilarity {
			continue
		}

		score := conflictSimilarityWeight*similarity + conflictTensionWeight*tension.Score
		if score < opts.MinScore {
			continue
		}

		results = append(results, ConflictResult{
			Insight:       existing,
			Similarity:    similarity,
			TensionScore:  tension.Score,
			TensionReason: tension.Reason(),
			ConflictScore: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ConflictScore > results[j].ConflictScore
	})
	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results
}
