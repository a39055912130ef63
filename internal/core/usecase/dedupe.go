package usecase

import (
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const identityKeyContentChars = 100

// dedupeRecords collapses duplicates across retrieval variants, first
// occurrence wins. Records without a computable identity key carry no
// addressable identity and are dropped.
func dedupeRecords(records []domain.Record) []domain.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		key := recordIdentityKey(rec)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// recordIdentityKey prefers the email field, then the question/name field,
// then a content prefix. The corpus models Q&A pairs and personnel entries,
// so question text is the natural duplicate signal, not raw content.
func recordIdentityKey(rec domain.Record) string {
	if email := strings.ToLower(strings.TrimSpace(rec.Metadata.ExtraField("email"))); email != "" {
		return email
	}
	name := strings.TrimSpace(rec.Metadata.Question)
	if name == "" {
		name = strings.TrimSpace(rec.Metadata.ExtraField("name"))
	}
	if name != "" {
		return strings.ToLower(name)
	}

	runes := []rune(rec.Content)
	if len(runes) > identityKeyContentChars {
		runes = runes[:identityKeyContentChars]
	}
	return strings.ToLower(strings.TrimSpace(string(runes)))
}
