package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

type retrieveEmbedderFake struct {
	failOn map[string]bool
}

func (f *retrieveEmbedderFake) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not used")
}
func (f *retrieveEmbedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.failOn[text] {
		return nil, errors.New("embed down")
	}
	return []float32{1, 0}, nil
}

type retrieveIndexFake struct {
	pool        []ports.ScoredPoint
	poolErr     error
	plain       []domain.Record
	plainErr    error
	plainCalled bool
}

func (f *retrieveIndexFake) IndexRecords(context.Context, string, []domain.Record, [][]float32) error {
	return nil
}
func (f *retrieveIndexFake) Search(context.Context, []float32, int) ([]domain.Record, error) {
	f.plainCalled = true
	return f.plain, f.plainErr
}
func (f *retrieveIndexFake) SearchWithVectors(context.Context, []float32, int) ([]ports.ScoredPoint, error) {
	if f.poolErr != nil {
		return nil, f.poolErr
	}
	return f.pool, nil
}

type sparseFake struct {
	records []domain.Record
	err     error
}

func (f *sparseFake) GetRelevantRecords(context.Context, string, int) ([]domain.Record, error) {
	return f.records, f.err
}

func TestRetrieveIsolatesVariantFailure(t *testing.T) {
	embedder := &retrieveEmbedderFake{failOn: map[string]bool{"bad variant": true}}
	index := &retrieveIndexFake{pool: []ports.ScoredPoint{
		{Record: domain.Record{Content: "hit"}, Vector: []float32{1, 0}, Score: 0.9},
	}}
	retriever := NewHybridRetriever(embedder, index, nil, RetrieverConfig{TopK: 5})

	plan := domain.QueryPlan{Canonical: "good variant", Variants: []string{"good variant", "bad variant"}}
	records, err := retriever.Retrieve(context.Background(), plan)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(records) != 1 || records[0].Content != "hit" {
		t.Fatalf("expected results from the healthy variant, got %+v", records)
	}
}

func TestRetrieveErrorsWhenAllVariantsFail(t *testing.T) {
	embedder := &retrieveEmbedderFake{failOn: map[string]bool{"v1": true, "v2": true}}
	retriever := NewHybridRetriever(embedder, &retrieveIndexFake{}, nil, RetrieverConfig{})

	plan := domain.QueryPlan{Canonical: "v1", Variants: []string{"v1", "v2"}}
	_, err := retriever.Retrieve(context.Background(), plan)
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestRetrieveFallsBackToPlainSearch(t *testing.T) {
	index := &retrieveIndexFake{
		poolErr: errors.New("with_vector unsupported"),
		plain:   []domain.Record{{Content: "plain hit"}},
	}
	retriever := NewHybridRetriever(&retrieveEmbedderFake{}, index, nil, RetrieverConfig{})

	plan := domain.QueryPlan{Canonical: "q", Variants: []string{"q"}}
	records, err := retriever.Retrieve(context.Background(), plan)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !index.plainCalled {
		t.Fatalf("plain search fallback was not used")
	}
	if len(records) != 1 || records[0].Content != "plain hit" {
		t.Fatalf("expected plain search results, got %+v", records)
	}
}

func TestRetrieveUnionsSparseResults(t *testing.T) {
	index := &retrieveIndexFake{pool: []ports.ScoredPoint{
		{Record: domain.Record{Content: "dense"}, Vector: []float32{1, 0}, Score: 0.8},
	}}
	sparse := &sparseFake{records: []domain.Record{{Content: "lexical"}}}
	retriever := NewHybridRetriever(&retrieveEmbedderFake{}, index, sparse, RetrieverConfig{})

	plan := domain.QueryPlan{Canonical: "q", Variants: []string{"q"}}
	records, err := retriever.Retrieve(context.Background(), plan)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected dense+sparse union, got %+v", records)
	}
}

func TestRetrieveToleratesSparseFailure(t *testing.T) {
	index := &retrieveIndexFake{pool: []ports.ScoredPoint{
		{Record: domain.Record{Content: "dense"}, Vector: []float32{1, 0}, Score: 0.8},
	}}
	sparse := &sparseFake{err: errors.New("lexical index down")}
	retriever := NewHybridRetriever(&retrieveEmbedderFake{}, index, sparse, RetrieverConfig{})

	plan := domain.QueryPlan{Canonical: "q", Variants: []string{"q"}}
	records, err := retriever.Retrieve(context.Background(), plan)
	if err != nil {
		t.Fatalf("sparse failure must not fail retrieval, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected dense results only, got %+v", records)
	}
}
