package usecase

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

//go:embed signal_rules.yaml
var defaultSignalRulesYAML []byte

// SignalRules is the data-driven taxonomy the extractor and filter run on.
type SignalRules struct {
	Institution       string                        `yaml:"institution"`
	InstitutionTokens []string                      `yaml:"institution_tokens"`
	Intents           map[domain.IntentTag][]string `yaml:"intents"`
	Departments       []string                      `yaml:"departments"`
	NameStopwords     []string                      `yaml:"name_stopwords"`
	VariantVerbs      []string                      `yaml:"variant_verbs"`
	Greetings         []string                      `yaml:"greetings"`
}

// LoadSignalRules parses a rule table from YAML.
func LoadSignalRules(data []byte) (SignalRules, error) {
	var rules SignalRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return SignalRules{}, fmt.Errorf("unmarshal signal rules: %w", err)
	}
	if rules.Institution == "" {
		return SignalRules{}, fmt.Errorf("signal rules: institution is required")
	}
	if len(rules.Intents) == 0 {
		return SignalRules{}, fmt.Errorf("signal rules: at least one intent is required")
	}
	return rules, nil
}

// DefaultSignalRules returns the embedded rule table. The embedded file is
// part of the build, so a parse failure here is a programming error.
func DefaultSignalRules() SignalRules {
	rules, err := LoadSignalRules(defaultSignalRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded signal rules: %v", err))
	}
	return rules
}

var (
	courseCodeRe     = regexp.MustCompile(`\b[A-Z]{2}[0-9]{3}\b`)
	courseCodeFoldRe = regexp.MustCompile(`(?i)\b[a-z]{2}[0-9]{3}\b`)
	nameTokenRe      = regexp.MustCompile(`[A-Za-z][A-Za-z\.]+`)
	nonLetterRe      = regexp.MustCompile(`[^a-z']+`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

const maxNameTokens = 3

// SignalExtractor maps a query string to intent/entity signals. It is a pure
// rule-table matcher: deterministic, side-effect-free, never fails.
type SignalExtractor struct {
	rules       SignalRules
	stopwords   map[string]struct{}
	intentOrder []domain.IntentTag
}

func NewSignalExtractor(rules SignalRules) *SignalExtractor {
	stopwords := make(map[string]struct{}, len(rules.NameStopwords))
	for _, w := range rules.NameStopwords {
		stopwords[strings.ToLower(w)] = struct{}{}
	}

	order := make([]domain.IntentTag, 0, len(rules.Intents))
	for tag := range rules.Intents {
		order = append(order, tag)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	return &SignalExtractor{
		rules:       rules,
		stopwords:   stopwords,
		intentOrder: order,
	}
}

func (e *SignalExtractor) Rules() SignalRules {
	return e.rules
}

// Extract derives intent/entity signals from a query. Always returns a
// (possibly empty) signal set.
func (e *SignalExtractor) Extract(query string) domain.QuerySignals {
	lowered := strings.ToLower(query)

	var intents []domain.IntentTag
	for _, tag := range e.intentOrder {
		for _, keyword := range e.rules.Intents[tag] {
			if strings.Contains(lowered, keyword) {
				intents = append(intents, tag)
				break
			}
		}
	}

	var departments []string
	for _, dept := range e.rules.Departments {
		if strings.Contains(lowered, dept) {
			departments = append(departments, dept)
		}
	}

	return domain.QuerySignals{
		Intents:        intents,
		DepartmentHits: departments,
		HasCourseCode:  courseCodeRe.MatchString(query),
		Names:          e.NameTokens(query),
	}
}

// NameTokens extracts up to three capitalized-or-long tokens that look like
// proper-noun entities, preserving query order.
func (e *SignalExtractor) NameTokens(text string) []string {
	var out []string
	for _, tok := range nameTokenRe.FindAllString(text, -1) {
		trimmed := strings.Trim(tok, ".")
		if trimmed == "" {
			continue
		}
		if _, skip := e.stopwords[strings.ToLower(trimmed)]; skip {
			continue
		}
		capitalized := trimmed[0] >= 'A' && trimmed[0] <= 'Z'
		if (capitalized && len(trimmed) >= 3) || len(trimmed) >= 5 {
			out = append(out, trimmed)
		}
		if len(out) == maxNameTokens {
			break
		}
	}
	return out
}

// IntentKeywordUnion collects the keyword sets of all matched intents.
func (e *SignalExtractor) IntentKeywordUnion(tags []domain.IntentTag) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tag := range tags {
		for _, keyword := range e.rules.Intents[tag] {
			if _, ok := seen[keyword]; ok {
				continue
			}
			seen[keyword] = struct{}{}
			out = append(out, keyword)
		}
	}
	return out
}

// IsGreeting reports whether the query is small talk the pipeline should not
// be invoked for. Matching is token-bounded so "which" never matches "hi".
func (e *SignalExtractor) IsGreeting(query string) bool {
	lowered := strings.ToLower(query)
	padded := " " + strings.Trim(nonLetterRe.ReplaceAllString(lowered, " "), " ") + " "
	for _, g := range e.rules.Greetings {
		if strings.Contains(padded, " "+g+" ") {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
