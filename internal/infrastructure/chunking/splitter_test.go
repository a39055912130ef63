package chunking

import (
	"strings"
	"testing"
)

func TestSplitShortAnswerIsSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("The library opens at 8 AM on weekdays.")
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk, got %d", len(chunks))
	}
}

func TestSplitEmptyTextReturnsNil(t *testing.T) {
	s := NewSplitter(100, 20)
	if chunks := s.Split("   "); chunks != nil {
		t.Fatalf("expected nil for blank text, got %v", chunks)
	}
}

func TestSplitLongAnswerProducesOverlappingChunks(t *testing.T) {
	words := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		words = append(words, "hostel")
	}
	text := strings.Join(words, " ")

	s := NewSplitter(200, 40)
	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 200 {
			t.Fatalf("chunk %d exceeds size limit: %d runes", i, len([]rune(chunk)))
		}
	}
	// Overlap carries shared text across the cut.
	tail := chunks[0][len(chunks[0])-6:]
	if !strings.Contains(chunks[1], tail) {
		t.Fatalf("expected chunk overlap, first ends %q, second is %q", tail, chunks[1][:20])
	}
}

func TestSplitDoesNotCutMidWord(t *testing.T) {
	text := strings.Repeat("registration deadline ", 30)
	s := NewSplitter(100, 10)

	for i, chunk := range s.Split(text) {
		for _, word := range strings.Fields(chunk) {
			if word != "registration" && word != "deadline" {
				t.Fatalf("chunk %d contains a cut word %q", i, word)
			}
		}
	}
}

func TestSplitUnbrokenTextFallsBackToHardCut(t *testing.T) {
	text := strings.Repeat("x", 250)
	s := NewSplitter(100, 0)

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 hard-cut chunks, got %d", len(chunks))
	}
	if chunks[0] != strings.Repeat("x", 100) {
		t.Fatalf("unexpected first chunk length %d", len(chunks[0]))
	}
}

func TestNewSplitterNormalizesBadConfig(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 900 || s.Overlap != 0 {
		t.Fatalf("unexpected normalized config: %+v", s)
	}

	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamped to quarter, got %d", s.Overlap)
	}
}
