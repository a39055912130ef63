package domain

// IntentTag names one entry of the closed intent taxonomy.
type IntentTag string

// QuerySignals are the deterministic intent/entity cues extracted from a query.
// Derived per request, never persisted.
type QuerySignals struct {
	Intents        []IntentTag `json:"intents"`
	DepartmentHits []string    `json:"department_hits"`
	HasCourseCode  bool        `json:"has_course_code"`
	Names          []string    `json:"names"`
}

// HasEntityCue reports whether the query carried any explicit entity signal.
// Absence of entity cues must never cause filtering on its own.
func (s QuerySignals) HasEntityCue() bool {
	return len(s.DepartmentHits) > 0 || s.HasCourseCode || len(s.Names) > 0
}

// QueryPlan is the rewriter output: one canonical restatement plus
// retrieval-oriented variants. Variants always include the canonical query.
type QueryPlan struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
}

// ScoredCandidate pairs a record with its cross-encoder relevance score.
type ScoredCandidate struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}

// CandidateDecision records the signal-filter verdict for one deduplicated
// candidate, for offline evaluation.
type CandidateDecision struct {
	Passed   bool           `json:"passed"`
	Snippet  string         `json:"snippet"`
	Metadata RecordMetadata `json:"metadata"`
}

// RetrievalDiagnostics is the instrumented view of one pipeline run.
type RetrievalDiagnostics struct {
	Query       string              `json:"query"`
	Canonical   string              `json:"canonical"`
	Variants    []string            `json:"variants"`
	Signals     QuerySignals        `json:"signals"`
	Candidates  []CandidateDecision `json:"candidates"`
	Selected    []CandidateDecision `json:"selected"`
	FinalPrompt string              `json:"final_prompt"`
}
