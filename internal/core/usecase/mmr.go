package usecase

import (
	"math"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// selectMaxMarginalRelevance picks k candidates from a similarity-ranked pool
// by repeatedly taking the one maximizing
//
//	lambda*relevance(query, c) - (1-lambda)*max(similarity(c, selected))
//
// so results stay relevant while covering distinct records. Ties resolve to
// the earlier pool position, keeping selection deterministic.
func selectMaxMarginalRelevance(queryVector []float32, pool []ports.ScoredPoint, k int, lambda float64) []domain.Record {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	if k > len(pool) {
		k = len(pool)
	}

	relevance := make([]float64, len(pool))
	for i, point := range pool {
		if len(point.Vector) == 0 {
			// Backend did not return stored vectors; its own score is the
			// best relevance estimate available.
			relevance[i] = point.Score
			continue
		}
		relevance[i] = cosineSimilarity(queryVector, point.Vector)
	}

	selected := make([]int, 0, k)
	taken := make([]bool, len(pool))

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		for i := range pool {
			if taken[i] {
				continue
			}
			redundancy := 0.0
			for _, j := range selected {
				if len(pool[i].Vector) == 0 || len(pool[j].Vector) == 0 {
					continue
				}
				if sim := cosineSimilarity(pool[i].Vector, pool[j].Vector); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best < 0 {
			break
		}
		taken[best] = true
		selected = append(selected, best)
	}

	out := make([]domain.Record, 0, len(selected))
	for _, i := range selected {
		out = append(out, pool[i].Record)
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
