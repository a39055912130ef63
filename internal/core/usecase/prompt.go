package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// The grounding contract lives in the prompt: context-only answers, exact
// refusal sentences, bounded length, and the three-meal rule for menu
// questions. Compliance is best-effort; the pipeline does not validate the
// model output against it.
const answerPromptTemplate = `You are a helpful assistant for %[1]s-specific information. Answer the user’s question only using the information in the context provided.
You are allowed to reframe the question so as to find an answer, but the final answer must come from the context provided.
Rules:
All context provided directly refers to %[1]s. So when the user asks "Is there a hospital?", it means "Is there a hospital at %[1]s?".
Answer directly and concisely, in 1-4 lines. Do not create puzzles, hypothetical scenarios, reasoning chains, or explanations.
If the answer is not in the context, respond exactly: "%[2]s"
If the question is not related to %[1]s, respond exactly: "%[3]s"
Never hallucinate; answer only the asked question.
If the question is about the mess menu, list exact meals: breakfast, lunch, and dinner.

Context:
%[4]s

Question:
%[5]s

Answer:
`

func buildAnswerPrompt(institution, question string, records []domain.Record) string {
	contents := make([]string, 0, len(records))
	for _, rec := range records {
		contents = append(contents, rec.Content)
	}
	return fmt.Sprintf(
		answerPromptTemplate,
		institution,
		domain.RefusalAnswer,
		domain.OffTopicAnswer,
		strings.Join(contents, "\n\n"),
		question,
	)
}
