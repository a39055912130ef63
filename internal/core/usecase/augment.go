package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

const augmentPromptTemplate = `You generate paraphrases of FAQ questions for a search index.
Rewrite the question below in %d different ways. Keep the meaning identical,
keep every proper noun and course code unchanged, and keep each paraphrase
under 20 words.

Question: %s

Respond with ONLY a JSON array of strings, nothing else.`

// ParaphraseAugmenter enlarges the corpus offline by generating paraphrases
// of each question. Failures degrade to the original question so indexing
// never blocks on the model.
type ParaphraseAugmenter struct {
	gen ports.TextGenerator
	n   int
}

func NewParaphraseAugmenter(gen ports.TextGenerator, n int) *ParaphraseAugmenter {
	if n <= 0 {
		n = 2
	}
	return &ParaphraseAugmenter{gen: gen, n: n}
}

// Expand returns the question itself plus up to n distinct paraphrases.
func (a *ParaphraseAugmenter) Expand(ctx context.Context, question string) []string {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	out := []string{question}
	if a == nil || a.gen == nil {
		return out
	}

	raw, err := a.gen.GenerateJSON(ctx, fmt.Sprintf(augmentPromptTemplate, a.n, question))
	if err != nil {
		slog.Warn("paraphrase_generation_failed", "error", err)
		return out
	}

	seen := map[string]bool{strings.ToLower(question): true}
	for _, p := range parseParaphrases(raw) {
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if len(out) > a.n {
			break
		}
	}
	return out
}

// parseParaphrases accepts a JSON array of strings, falling back to
// line-splitting when the model ignored the format instruction.
func parseParaphrases(raw string) []string {
	raw = strings.TrimSpace(raw)

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return cleanParaphrases(arr)
	}

	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			if err := json.Unmarshal([]byte(raw[start:end+1]), &arr); err == nil {
				return cleanParaphrases(arr)
			}
		}
	}

	return cleanParaphrases(strings.Split(raw, "\n"))
}

func cleanParaphrases(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(strings.Trim(strings.TrimSpace(c), `"-*`))
		if c == "" || strings.HasPrefix(c, "[") || strings.HasPrefix(c, "{") {
			continue
		}
		out = append(out, c)
	}
	return out
}
