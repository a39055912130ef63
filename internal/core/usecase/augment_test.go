package usecase

import (
	"context"
	"errors"
	"testing"
)

type augmentGeneratorFake struct {
	response string
	err      error
}

func (f *augmentGeneratorFake) Generate(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (f *augmentGeneratorFake) GenerateJSON(context.Context, string) (string, error) {
	return f.response, f.err
}

func TestExpandReturnsOriginalPlusParaphrases(t *testing.T) {
	gen := &augmentGeneratorFake{response: `["Which teacher handles CS101?","Who is the CS101 instructor?"]`}
	a := NewParaphraseAugmenter(gen, 2)

	out := a.Expand(context.Background(), "Who teaches CS101?")
	if len(out) != 3 {
		t.Fatalf("expected original + 2 paraphrases, got %v", out)
	}
	if out[0] != "Who teaches CS101?" {
		t.Fatalf("original question must lead, got %q", out[0])
	}
}

func TestExpandDeduplicatesAgainstOriginal(t *testing.T) {
	gen := &augmentGeneratorFake{response: `["who teaches cs101?","Who runs CS101?"]`}
	a := NewParaphraseAugmenter(gen, 2)

	out := a.Expand(context.Background(), "Who teaches CS101?")
	if len(out) != 2 || out[1] != "Who runs CS101?" {
		t.Fatalf("case-insensitive duplicate of the original must be dropped, got %v", out)
	}
}

func TestExpandModelFailureFallsBack(t *testing.T) {
	a := NewParaphraseAugmenter(&augmentGeneratorFake{err: errors.New("model down")}, 2)

	out := a.Expand(context.Background(), "Who teaches CS101?")
	if len(out) != 1 || out[0] != "Who teaches CS101?" {
		t.Fatalf("failure must degrade to the original question, got %v", out)
	}
}

func TestExpandLineFallback(t *testing.T) {
	gen := &augmentGeneratorFake{response: "Which teacher handles CS101?\nWho is the CS101 instructor?"}
	a := NewParaphraseAugmenter(gen, 3)

	out := a.Expand(context.Background(), "Who teaches CS101?")
	if len(out) != 3 {
		t.Fatalf("line-separated output must still be accepted, got %v", out)
	}
}

func TestExpandEmptyQuestion(t *testing.T) {
	a := NewParaphraseAugmenter(&augmentGeneratorFake{}, 2)
	if out := a.Expand(context.Background(), "  "); out != nil {
		t.Fatalf("blank question must expand to nothing, got %v", out)
	}
}
