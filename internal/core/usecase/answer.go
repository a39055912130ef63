package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

type PipelineConfig struct {
	VariantCount      int
	TopK              int
	GenerationTimeout time.Duration
	PromptSnippetMax  int
}

func (c PipelineConfig) normalize() PipelineConfig {
	out := c
	if out.VariantCount <= 0 {
		out.VariantCount = defaultVariantsN
	}
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.GenerationTimeout <= 0 {
		out.GenerationTimeout = 60 * time.Second
	}
	if out.PromptSnippetMax <= 0 {
		out.PromptSnippetMax = 2000
	}
	return out
}

// AnswerUseCase composes the full pipeline: signal extraction, query
// rewriting, hybrid retrieval, deduplication, signal filtering, cross-encoder
// reranking, and grounded answer generation. It holds no per-request state;
// the backend and model handles it carries are shared read-only.
type AnswerUseCase struct {
	signals   *SignalExtractor
	rewriter  *Rewriter
	retriever *HybridRetriever
	scorer    ports.CrossEncoderScorer
	generator ports.TextGenerator
	cfg       PipelineConfig
}

func NewAnswerUseCase(
	signals *SignalExtractor,
	rewriter *Rewriter,
	retriever *HybridRetriever,
	scorer ports.CrossEncoderScorer,
	generator ports.TextGenerator,
	cfg PipelineConfig,
) *AnswerUseCase {
	return &AnswerUseCase{
		signals:   signals,
		rewriter:  rewriter,
		retriever: retriever,
		scorer:    scorer,
		generator: generator,
		cfg:       cfg.normalize(),
	}
}

// AnswerQuestion runs the production path. The returned string is always one
// of: a grounded answer, the fixed refusal, or (via the transport mapping of
// the returned error) the fixed failure message.
func (uc *AnswerUseCase) AnswerQuestion(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "answer question", fmt.Errorf("query is empty"))
	}

	result, err := uc.run(ctx, query)
	if err != nil {
		return "", err
	}
	if len(result.selected) == 0 {
		// Cost avoidance and determinism: no model call for an empty context.
		return domain.RefusalAnswer, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.GenerationTimeout)
	defer cancel()

	answer, err := uc.generator.Generate(genCtx, result.prompt)
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "generate answer", err)
	}
	return strings.TrimSpace(answer), nil
}

// DebugRetrieve runs the same pipeline and reports every intermediate
// decision, for offline evaluation.
func (uc *AnswerUseCase) DebugRetrieve(ctx context.Context, query string) (*domain.RetrievalDiagnostics, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "debug retrieve", fmt.Errorf("query is empty"))
	}

	result, err := uc.run(ctx, query)
	if err != nil {
		return nil, err
	}

	selected := make([]domain.CandidateDecision, 0, len(result.selected))
	for _, rec := range result.selected {
		selected = append(selected, domain.CandidateDecision{
			Passed:   true,
			Snippet:  contentSnippet(rec.Content, diagnosticSnippetChars),
			Metadata: rec.Metadata,
		})
	}

	return &domain.RetrievalDiagnostics{
		Query:       query,
		Canonical:   result.plan.Canonical,
		Variants:    result.plan.Variants,
		Signals:     result.signals,
		Candidates:  result.decisions,
		Selected:    selected,
		FinalPrompt: contentSnippet(result.prompt, uc.cfg.PromptSnippetMax),
	}, nil
}

type pipelineResult struct {
	plan      domain.QueryPlan
	signals   domain.QuerySignals
	deduped   []domain.Record
	decisions []domain.CandidateDecision
	selected  []domain.Record
	prompt    string
}

func (uc *AnswerUseCase) run(ctx context.Context, query string) (*pipelineResult, error) {
	signals := uc.signals.Extract(query)
	plan := uc.rewriter.Rewrite(ctx, query, uc.cfg.VariantCount)

	candidates, err := uc.retriever.Retrieve(ctx, plan)
	if err != nil {
		return nil, err
	}

	deduped := dedupeRecords(candidates)
	filtered, decisions := uc.signals.filterBySignals(deduped, signals)

	// The filter is a precision aid, never a hard gate: an over-aggressive
	// filter falls back to the deduplicated set.
	chosen := filtered
	if len(chosen) == 0 && len(deduped) > 0 {
		slog.Info("signal_filter_fallback", "query", query, "candidates", len(deduped))
		chosen = deduped
	}

	selected := chosen
	if len(chosen) > 0 {
		scored, rerankErr := rerankRecords(ctx, uc.scorer, plan.Canonical, chosen, uc.cfg.TopK)
		if rerankErr != nil {
			slog.Warn("rerank_fallback", "query", query, "error", rerankErr)
			if len(selected) > uc.cfg.TopK {
				selected = selected[:uc.cfg.TopK]
			}
		} else {
			selected = make([]domain.Record, 0, len(scored))
			for _, cand := range scored {
				selected = append(selected, cand.Record)
			}
		}
	}

	prompt := ""
	if len(selected) > 0 {
		prompt = buildAnswerPrompt(uc.signals.Rules().Institution, query, selected)
	}

	return &pipelineResult{
		plan:      plan,
		signals:   signals,
		deduped:   deduped,
		decisions: decisions,
		selected:  selected,
		prompt:    prompt,
	}, nil
}
