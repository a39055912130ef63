package usecase

import (
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func TestExtractLeadershipAndDepartment(t *testing.T) {
	extractor := NewSignalExtractor(DefaultSignalRules())

	signals := extractor.Extract("Who is the HoD of CSE?")

	found := false
	for _, tag := range signals.Intents {
		if tag == domain.IntentTag("leadership") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected leadership intent, got %v", signals.Intents)
	}
	if len(signals.DepartmentHits) != 1 || signals.DepartmentHits[0] != "cse" {
		t.Fatalf("expected department hit [cse], got %v", signals.DepartmentHits)
	}
	if signals.HasCourseCode {
		t.Fatalf("query has no course code")
	}
}

func TestExtractCourseCode(t *testing.T) {
	extractor := NewSignalExtractor(DefaultSignalRules())

	if !extractor.Extract("What is the syllabus of CS101?").HasCourseCode {
		t.Fatalf("expected course code signal for CS101")
	}
	if extractor.Extract("what is the syllabus of cs101?").HasCourseCode {
		t.Fatalf("lower-case code must not raise the course-code signal")
	}
}

func TestNameTokensStopwordsAndCap(t *testing.T) {
	extractor := NewSignalExtractor(DefaultSignalRules())

	names := extractor.NameTokens("What does Prof. Sudarshan Iyengar of IIT Ropar teach about research and interests?")
	if len(names) != maxNameTokens {
		t.Fatalf("expected %d name tokens, got %v", maxNameTokens, names)
	}
	if names[0] != "Sudarshan" || names[1] != "Iyengar" {
		t.Fatalf("expected Sudarshan Iyengar first, got %v", names)
	}
	for _, n := range names {
		if n == "Prof" || n == "What" || n == "IIT" || n == "Ropar" {
			t.Fatalf("stopword %q leaked into name tokens", n)
		}
	}
}

func TestExtractNoSignals(t *testing.T) {
	extractor := NewSignalExtractor(DefaultSignalRules())

	signals := extractor.Extract("is it far")
	if len(signals.Intents) != 0 || signals.HasEntityCue() {
		t.Fatalf("expected empty signal set, got %+v", signals)
	}
}

func TestIsGreetingTokenBounded(t *testing.T) {
	extractor := NewSignalExtractor(DefaultSignalRules())

	if !extractor.IsGreeting("Hello there!") {
		t.Fatalf("expected greeting for hello")
	}
	if !extractor.IsGreeting("hey, how are you?") {
		t.Fatalf("expected greeting for multi-word phrase")
	}
	if extractor.IsGreeting("Which hostel has a gym?") {
		t.Fatalf("'which' must not match greeting 'hi'")
	}
}

func TestLoadSignalRulesRejectsEmpty(t *testing.T) {
	if _, err := LoadSignalRules([]byte("intents: {}")); err == nil {
		t.Fatalf("expected error for rules without institution")
	}
	if _, err := LoadSignalRules([]byte("institution: X")); err == nil {
		t.Fatalf("expected error for rules without intents")
	}
}
