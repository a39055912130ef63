package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

type scorerFake struct {
	scores []float64
	err    error
}

func (f *scorerFake) Score(_ context.Context, _ string, texts []string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.scores != nil {
		return f.scores, nil
	}
	return make([]float64, len(texts)), nil
}

func TestRerankOrdersByScoreDescending(t *testing.T) {
	records := []domain.Record{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	scorer := &scorerFake{scores: []float64{0.5, 0.9, 0.5}}

	out, err := rerankRecords(context.Background(), scorer, "q", records, 0)
	if err != nil {
		t.Fatalf("rerankRecords() error = %v", err)
	}
	if out[0].Record.Content != "b" || out[1].Record.Content != "a" || out[2].Record.Content != "c" {
		t.Fatalf("expected [b a c], got %+v", out)
	}
}

func TestRerankStableAcrossInvocations(t *testing.T) {
	records := []domain.Record{{Content: "x"}, {Content: "y"}, {Content: "z"}}
	scorer := &scorerFake{scores: []float64{0.7, 0.7, 0.7}}

	first, err := rerankRecords(context.Background(), scorer, "q", records, 0)
	if err != nil {
		t.Fatalf("rerankRecords() error = %v", err)
	}
	second, err := rerankRecords(context.Background(), scorer, "q", records, 0)
	if err != nil {
		t.Fatalf("rerankRecords() error = %v", err)
	}
	for i := range first {
		if first[i].Record.Content != second[i].Record.Content {
			t.Fatalf("orderings diverge at %d: %s vs %s", i, first[i].Record.Content, second[i].Record.Content)
		}
	}
	if first[0].Record.Content != "x" {
		t.Fatalf("equal scores must keep original position, got %s first", first[0].Record.Content)
	}
}

func TestRerankTruncatesToTopK(t *testing.T) {
	records := []domain.Record{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	scorer := &scorerFake{scores: []float64{0.1, 0.2, 0.3}}

	out, err := rerankRecords(context.Background(), scorer, "q", records, 2)
	if err != nil {
		t.Fatalf("rerankRecords() error = %v", err)
	}
	if len(out) != 2 || out[0].Record.Content != "c" {
		t.Fatalf("expected top-2 starting with c, got %+v", out)
	}
}

func TestRerankScoreCountMismatch(t *testing.T) {
	records := []domain.Record{{Content: "a"}, {Content: "b"}}
	scorer := &scorerFake{scores: []float64{0.1}}

	if _, err := rerankRecords(context.Background(), scorer, "q", records, 0); err == nil {
		t.Fatalf("expected error on score/record count mismatch")
	}
}

func TestRerankScorerError(t *testing.T) {
	records := []domain.Record{{Content: "a"}}
	scorer := &scorerFake{err: errors.New("reranker down")}

	if _, err := rerankRecords(context.Background(), scorer, "q", records, 0); err == nil {
		t.Fatalf("expected error from scorer")
	}
}

func TestRerankEmptyInput(t *testing.T) {
	out, err := rerankRecords(context.Background(), &scorerFake{}, "q", nil, 5)
	if err != nil || out != nil {
		t.Fatalf("empty input must be a no-op, got %+v, %v", out, err)
	}
}
