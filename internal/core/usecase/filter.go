package usecase

import (
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// PassesFilter applies the intent and entity checks to one record. A record
// passes only when it satisfies every check the query signals activate; a
// query without entity cues never triggers the entity check.
func (e *SignalExtractor) PassesFilter(rec domain.Record, signals domain.QuerySignals) bool {
	hay := recordHaystack(rec)

	if len(signals.Intents) > 0 {
		matched := false
		for _, keyword := range e.IntentKeywordUnion(signals.Intents) {
			if strings.Contains(hay, keyword) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if !signals.HasEntityCue() {
		return true
	}

	if len(signals.DepartmentHits) > 0 {
		for _, dept := range e.rules.Departments {
			if strings.Contains(hay, dept) {
				return true
			}
		}
	}
	if signals.HasCourseCode && courseCodeFoldRe.MatchString(hay) {
		return true
	}
	for _, name := range signals.Names {
		if strings.Contains(hay, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// filterBySignals partitions the deduplicated candidates into pass/fail
// decisions. The caller decides whether to use the filtered subset; filtering
// is a precision aid, never a hard gate.
func (e *SignalExtractor) filterBySignals(records []domain.Record, signals domain.QuerySignals) ([]domain.Record, []domain.CandidateDecision) {
	passed := make([]domain.Record, 0, len(records))
	decisions := make([]domain.CandidateDecision, 0, len(records))
	for _, rec := range records {
		ok := e.PassesFilter(rec, signals)
		if ok {
			passed = append(passed, rec)
		}
		decisions = append(decisions, domain.CandidateDecision{
			Passed:   ok,
			Snippet:  contentSnippet(rec.Content, diagnosticSnippetChars),
			Metadata: rec.Metadata,
		})
	}
	return passed, decisions
}

// recordHaystack builds the searchable text for a record: content plus the
// question/answer/category metadata, lower-cased.
func recordHaystack(rec domain.Record) string {
	parts := []string{
		rec.Content,
		rec.Metadata.Question,
		rec.Metadata.Answer,
		rec.Metadata.Category,
	}
	return strings.ToLower(strings.Join(parts, " "))
}

const diagnosticSnippetChars = 300

func contentSnippet(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
