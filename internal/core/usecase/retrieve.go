package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

type RetrieverConfig struct {
	TopK      int
	FetchK    int
	MMRLambda float64
}

func (c RetrieverConfig) normalize() RetrieverConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 20
	}
	if out.FetchK < out.TopK {
		out.FetchK = 120
	}
	if out.MMRLambda <= 0 || out.MMRLambda > 1 {
		out.MMRLambda = 0.5
	}
	return out
}

// HybridRetriever fans dense retrieval out over query variants and unions in
// optional sparse lexical results. Failures are isolated per variant: a dense
// search error falls back to plain similarity search for that variant only.
type HybridRetriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	sparse   ports.SparseRetriever
	cfg      RetrieverConfig
}

// NewHybridRetriever builds a retriever. sparse may be nil, which disables
// the lexical union.
func NewHybridRetriever(
	embedder ports.Embedder,
	index ports.VectorIndex,
	sparse ports.SparseRetriever,
	cfg RetrieverConfig,
) *HybridRetriever {
	return &HybridRetriever{
		embedder: embedder,
		index:    index,
		sparse:   sparse,
		cfg:      cfg.normalize(),
	}
}

// Retrieve collects candidates for every variant of the plan. It errors only
// when every dense variant failed and nothing else was retrieved.
func (h *HybridRetriever) Retrieve(ctx context.Context, plan domain.QueryPlan) ([]domain.Record, error) {
	out := make([]domain.Record, 0, h.cfg.TopK*len(plan.Variants))

	failures := 0
	for _, variant := range plan.Variants {
		records, err := h.retrieveVariant(ctx, variant)
		if err != nil {
			failures++
			slog.Warn("variant_retrieval_failed", "variant", variant, "error", err)
			continue
		}
		out = append(out, records...)
	}

	if h.sparse != nil {
		lexical, err := h.sparse.GetRelevantRecords(ctx, plan.Canonical, h.cfg.TopK)
		if err != nil {
			slog.Warn("sparse_retrieval_failed", "error", err)
		} else {
			out = append(out, lexical...)
		}
	}

	if failures == len(plan.Variants) && len(out) == 0 {
		return nil, domain.WrapError(
			domain.ErrRetrieval,
			"hybrid retrieve",
			fmt.Errorf("all %d variants failed", len(plan.Variants)),
		)
	}
	return out, nil
}

// retrieveVariant runs diversity-aware selection for one variant, falling
// back to plain top-K similarity search when the pool search errors.
func (h *HybridRetriever) retrieveVariant(ctx context.Context, variant string) ([]domain.Record, error) {
	queryVector, err := h.embedder.EmbedQuery(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("embed variant: %w", err)
	}

	pool, err := h.index.SearchWithVectors(ctx, queryVector, h.cfg.FetchK)
	if err != nil {
		records, plainErr := h.index.Search(ctx, queryVector, h.cfg.TopK)
		if plainErr != nil {
			return nil, fmt.Errorf("mmr search: %w; plain search: %w", err, plainErr)
		}
		return records, nil
	}
	return selectMaxMarginalRelevance(queryVector, pool, h.cfg.TopK, h.cfg.MMRLambda), nil
}
