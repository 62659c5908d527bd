package insight

import (
	"fmt"
	"math"
)

// CosineSimilarity computes the cosine similarity between two embedding
// vectors.
//
// The result is in [-1, 1]: 1.0 for identical direction, 0.0 for
// orthogonal, -1.0 for opposite. Empty and zero-magnitude vectors return
// 0.0 so retrieval can degrade instead of failing. Vectors of different
// lengths are not comparable at all and return ErrDimensionMismatch.
func CosineSimilarity(vec1, vec2 []float32) (float64, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0.0, nil
	}
	if len(vec1) != len(vec2) {
		return 0.0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(vec1), len(vec2))
	}

	var dot, mag1, mag2 float64
	for i := 0; i < len(vec1); i++ {
		v1 := float64(vec1[i])
		v2 := float64(vec2[i])
		dot += v1 * v2
		mag1 += v1 * v1
		mag2 += v2 * v2
	}

	if mag1 == 0.0 || mag2 == 0.0 {
		return 0.0, nil
	}

	return dot / (math.Sqrt(mag1) * math.Sqrt(mag2)), nil
}

// JaccardSimilarity computes intersection-over-union of two token sets.
// Two empty sets have similarity 0.
func JaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// ClaimSimilarity tokenizes both claims and returns their Jaccard
// similarity.
func ClaimSimilarity(claimA, claimB string) float64 {
	return JaccardSimilarity(Tokenize(claimA), Tokenize(claimB))
}
