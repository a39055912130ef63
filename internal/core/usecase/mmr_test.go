package usecase

import (
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

func TestSelectMaxMarginalRelevancePrefersDiversity(t *testing.T) {
	query := []float32{1, 0}
	pool := []ports.ScoredPoint{
		{Record: domain.Record{Content: "a"}, Vector: []float32{1, 0}},
		{Record: domain.Record{Content: "a-dup"}, Vector: []float32{1, 0}},
		{Record: domain.Record{Content: "b"}, Vector: []float32{0.1, 1}},
	}

	out := selectMaxMarginalRelevance(query, pool, 2, 0.5)
	if len(out) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(out))
	}
	if out[0].Content != "a" || out[1].Content != "b" {
		t.Fatalf("expected [a b], got [%s %s]", out[0].Content, out[1].Content)
	}
}

func TestSelectMaxMarginalRelevanceTieKeepsPoolOrder(t *testing.T) {
	query := []float32{1, 0}
	pool := []ports.ScoredPoint{
		{Record: domain.Record{Content: "first"}, Vector: []float32{0, 1}},
		{Record: domain.Record{Content: "second"}, Vector: []float32{0, 1}},
	}

	out := selectMaxMarginalRelevance(query, pool, 1, 0.5)
	if len(out) != 1 || out[0].Content != "first" {
		t.Fatalf("tie must resolve to the earlier pool position, got %+v", out)
	}
}

func TestSelectMaxMarginalRelevanceKExceedsPool(t *testing.T) {
	pool := []ports.ScoredPoint{
		{Record: domain.Record{Content: "only"}, Vector: []float32{1}},
	}
	out := selectMaxMarginalRelevance([]float32{1}, pool, 10, 0.5)
	if len(out) != 1 {
		t.Fatalf("expected the whole pool, got %d", len(out))
	}
}

func TestSelectMaxMarginalRelevanceVectorlessUsesScore(t *testing.T) {
	pool := []ports.ScoredPoint{
		{Record: domain.Record{Content: "low"}, Score: 0.2},
		{Record: domain.Record{Content: "high"}, Score: 0.9},
	}
	out := selectMaxMarginalRelevance([]float32{1, 0}, pool, 1, 0.5)
	if len(out) != 1 || out[0].Content != "high" {
		t.Fatalf("vectorless pool must rank by backend score, got %+v", out)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors must score ~1, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors must score 0, got %f", got)
	}
	if got := cosineSimilarity(nil, []float32{1}); got != 0 {
		t.Fatalf("zero-norm input must score 0, got %f", got)
	}
}
