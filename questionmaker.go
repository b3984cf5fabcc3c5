package factle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionMaker generates a full ranked-list question draft for a topic.
type QuestionMaker struct {
	client ChatCompleter
	model  string
}

// NewQuestionMaker creates a question maker.
func NewQuestionMaker(client ChatCompleter, model string) *QuestionMaker {
	return &QuestionMaker{client: client, model: model}
}

// Generate asks the model for a complete draft: question text, 5 ordered
// answers, 15 distractors, a source URL, and a verification search query.
// A malformed response or a wrong answer count fails the attempt; distractor
// count and option uniqueness are enforced later by validation.
func (qm *QuestionMaker) Generate(ctx context.Context, topic, suggestedQuestion string) (*QuestionDraft, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Topic: %s\n", topic)
	fmt.Fprintf(&prompt, "Suggested question direction: %s\n\n", suggestedQuestion)
	prompt.WriteString("Generate the Factle question. Return ONLY a JSON object with:\n")
	prompt.WriteString("- \"question\": the question text\n")
	prompt.WriteString("- \"answers\": array of exactly 5 correct answers in order (index 0 = 1st place, index 4 = 5th place)\n")
	prompt.WriteString("- \"distractors\": array of exactly 15 plausible wrong options\n")
	prompt.WriteString("- \"source\": a URL where this ranking can be verified\n")
	prompt.WriteString("- \"search_query\": a search query that would find an authoritative source for verification")

	system := "You create trivia questions for Factle, a game where players must rank 5 items in the correct order. " +
		"You must provide:\n" +
		"- A clear question\n" +
		"- Exactly 5 correct answers in the RIGHT ORDER (1st to 5th)\n" +
		"- Exactly 15 plausible but incorrect distractor options\n" +
		"- A suggested source URL where the answer can be verified\n\n" +
		"The distractors should be from the same category and realistic enough that someone might confuse them " +
		"with the correct answers. All 20 options (5 correct + 15 distractors) must be unique."

	raw, err := completeJSON(ctx, qm.client, qm.model, system, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	var draft QuestionDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse question response: %w", err)
	}
	if len(draft.Answers) != 5 {
		return nil, fmt.Errorf("expected 5 answers, got %d", len(draft.Answers))
	}

	VerboseLog("Generated question: %s", draft.Question)
	return &draft, nil
}
