package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

const (
	rewriteAttempts  = 2
	variantMinWords  = 4
	variantMaxWords  = 18
	defaultVariantsN = 3
)

// Rewriter produces a canonical query and alignment-oriented variants via a
// JSON-mode generation call, with a deterministic heuristic fallback. It
// never returns an error and never returns an empty variant list.
type Rewriter struct {
	gen     ports.TextGenerator
	signals *SignalExtractor
}

func NewRewriter(gen ports.TextGenerator, signals *SignalExtractor) *Rewriter {
	return &Rewriter{gen: gen, signals: signals}
}

type rewritePayload struct {
	Canonical string   `json:"canonical"`
	Queries   []string `json:"queries"`
}

// Rewrite builds the QueryPlan for a user query. The variant list always
// contains the canonical query; on total model failure the canonical resolves
// to the original query and variants are synthesized from entity tokens.
func (r *Rewriter) Rewrite(ctx context.Context, query string, n int) domain.QueryPlan {
	base := collapseWhitespace(query)
	if n <= 0 {
		n = defaultVariantsN
	}
	names := r.signals.NameTokens(base)

	canonical := ""
	var variants []string
	for attempt := 1; attempt <= rewriteAttempts; attempt++ {
		raw, err := r.gen.GenerateJSON(ctx, r.buildRewritePrompt(base, n))
		if err != nil {
			slog.Warn("rewrite_attempt_failed", "attempt", attempt, "error", err)
			continue
		}
		payload, ok := parseRewritePayload(raw)
		if !ok {
			slog.Warn("rewrite_attempt_unparseable", "attempt", attempt)
			continue
		}
		accepted := r.acceptVariants(payload.Queries, names, n)
		if len(accepted) == 0 {
			continue
		}
		canonical = payload.Canonical
		variants = accepted
		break
	}

	if canonical == "" {
		canonical = base
	}
	if len(variants) == 0 {
		variants = r.fallbackVariants(base, canonical, names, n)
	}

	return r.assemblePlan(canonical, variants)
}

// assemblePlan guarantees the plan invariants: the canonical leads the
// variant list, entries are unique case-insensitively, and a variant
// mentioning the institution is present.
func (r *Rewriter) assemblePlan(canonical string, variants []string) domain.QueryPlan {
	out := make([]string, 0, len(variants)+2)
	seen := make(map[string]struct{}, len(variants)+2)

	add := func(v string) {
		v = collapseWhitespace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	add(canonical)
	for _, v := range variants {
		add(v)
	}

	institution := r.signals.Rules().Institution
	if !strings.Contains(strings.ToLower(canonical), strings.ToLower(institution)) {
		add(canonical + " " + institution)
	}

	return domain.QueryPlan{Canonical: collapseWhitespace(canonical), Variants: out}
}

func parseRewritePayload(raw string) (rewritePayload, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return rewritePayload{}, false
	}
	var payload rewritePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return rewritePayload{}, false
	}
	payload.Canonical = collapseWhitespace(payload.Canonical)
	if payload.Canonical == "" || len(payload.Queries) == 0 {
		return rewritePayload{}, false
	}
	return payload, true
}

// acceptVariants cleans, deduplicates and validates candidate variants.
func (r *Rewriter) acceptVariants(candidates []string, names []string, n int) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, n)
	for _, cand := range candidates {
		v := collapseWhitespace(cand)
		if v == "" || !r.validVariant(v, names) {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out
}

// validVariant enforces the acceptance rules: bounded length, at least one
// entity token when the query carried any, and an intent-bearing verb.
func (r *Rewriter) validVariant(v string, names []string) bool {
	words := len(strings.Fields(v))
	if words < variantMinWords || words > variantMaxWords {
		return false
	}
	lowered := strings.ToLower(v)
	if len(names) > 0 {
		hit := false
		for _, name := range names {
			if strings.Contains(lowered, strings.ToLower(name)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, verb := range r.signals.Rules().VariantVerbs {
		if strings.Contains(lowered, verb) {
			return true
		}
	}
	return false
}

// fallbackVariants synthesizes retrieval variants deterministically when the
// model path produced nothing usable.
func (r *Rewriter) fallbackVariants(base, canonical string, names []string, n int) []string {
	institution := r.signals.Rules().Institution

	var candidates []string
	if len(names) > 0 {
		nm := strings.Join(names[:min(2, len(names))], " ")
		candidates = []string{
			fmt.Sprintf("What courses does %s teach at %s?", nm, institution),
			fmt.Sprintf("What subjects does %s teach in Computer Science?", nm),
			fmt.Sprintf("What are %s's research interests at %s?", nm, institution),
		}
	} else {
		candidates = []string{
			base + " at " + institution,
			strings.ReplaceAll(strings.ReplaceAll(base, "What does", "What courses does"), "what does", "what courses does"),
			strings.ReplaceAll(base, "teach", "teach at "+institution),
		}
	}

	seen := map[string]struct{}{strings.ToLower(canonical): {}}
	out := make([]string, 0, n)
	for _, cand := range candidates {
		v := collapseWhitespace(cand)
		if v == "" || !r.validVariant(v, names) {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out
}

func (r *Rewriter) buildRewritePrompt(query string, n int) string {
	rules := r.signals.Rules()
	return fmt.Sprintf(`You are a query optimizer for the %s knowledge base.
Rewrite the user question into a canonical form and produce search-friendly variants.

Return ONLY a JSON object of the form:
{"canonical": string, "queries": [string, ...]}

Rules:
- canonical: one concise rewrite that makes the intent explicit using terms found in %s FAQs, departments, roles, or facilities.
- queries: exactly %d distinct rewrites optimized for retrieval. Use synonyms, abbreviations, and role/department name variants (HoD vs Head of Department, CSE vs Computer Science, Mess vs Hostel Mess).
- Each query must stay under 16 words.
- Do not generate answers, explanations, or filler text.
- If the question is ambiguous, cover the most likely intents.

User question: %s
`, rules.Institution, rules.Institution, n, query)
}
