package factle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SimilarityChecker asks the model whether a proposed topic duplicates a
// previously used question.
type SimilarityChecker struct {
	client ChatCompleter
	model  string
}

// NewSimilarityChecker creates a similarity checker.
func NewSimilarityChecker(client ChatCompleter, model string) *SimilarityChecker {
	return &SimilarityChecker{client: client, model: model}
}

// QuestionSummary flattens the question history into one line per question
// for the similarity prompt.
func QuestionSummary(questions []QuestionEntry) string {
	var sb strings.Builder
	for _, q := range questions {
		fmt.Fprintf(&sb, "- ID %d: %s\n", q.ID, q.Question)
	}
	return sb.String()
}

// TooSimilar reports whether the proposed question is a near-duplicate of
// history. An empty history short-circuits to false. Parse and transport
// failures also yield false: it is better to proceed and let verification
// catch problems than to block on a broken check.
func (sc *SimilarityChecker) TooSimilar(ctx context.Context, topic, suggestedQuestion, previousSummary string, attempt *AttemptRecord) bool {
	if strings.TrimSpace(previousSummary) == "" {
		attempt.SimilarityReason = "no previous questions"
		return false
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Proposed new topic: %s\n", topic)
	fmt.Fprintf(&prompt, "Suggested question: %s\n\n", suggestedQuestion)
	fmt.Fprintf(&prompt, "Here are all previously used questions:\n%s\n", previousSummary)
	prompt.WriteString("Is this new question too similar to any previous one? ")
	prompt.WriteString("Two questions are 'too similar' if they ask essentially the same thing ")
	prompt.WriteString("(e.g., 'largest countries by area' and 'biggest countries by land area'). ")
	prompt.WriteString("Questions in the same broad category but about different specifics are fine ")
	prompt.WriteString("(e.g., 'tallest mountains' and 'longest rivers' are both geography but different enough).\n\n")
	prompt.WriteString(`Respond with ONLY a JSON object: {"too_similar": true/false, "reason": "brief explanation"}`)

	raw, err := completeJSON(ctx, sc.client, sc.model,
		"You compare trivia questions to detect duplicates or near-duplicates.",
		prompt.String())
	if err != nil {
		VerboseLog("Similarity check failed for topic %q: %v", topic, err)
		attempt.SimilarityReason = fmt.Sprintf("check failed: %v", err)
		return false
	}

	var result struct {
		TooSimilar bool   `json:"too_similar"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		VerboseLog("Similarity check returned unparsable response for topic %q", topic)
		attempt.SimilarityReason = "failed to parse response"
		return false
	}

	attempt.SimilarityReason = result.Reason
	return result.TooSimilar
}
