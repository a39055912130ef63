package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// rerankRecords scores every (query, content) pair with the cross-encoder and
// returns candidates ordered by score descending, truncated to topK. Score
// ties keep the original list position, so repeated invocations with
// identical inputs produce identical orderings.
func rerankRecords(
	ctx context.Context,
	scorer ports.CrossEncoderScorer,
	query string,
	records []domain.Record,
	topK int,
) ([]domain.ScoredCandidate, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Content
	}

	scores, err := scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder score: %w", err)
	}
	if len(scores) != len(records) {
		return nil, fmt.Errorf("cross-encoder score: %d scores for %d records", len(scores), len(records))
	}

	return orderCandidates(records, scores, topK), nil
}

func orderCandidates(records []domain.Record, scores []float64, topK int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(records))
	for i := range records {
		out[i] = domain.ScoredCandidate{Record: records[i], Score: scores[i]}
	}

	// Stable sort: equal scores retain original position.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
