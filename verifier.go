package factle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Verifier cross-checks a draft's answer ordering against web sources,
// applies corrections, and re-verifies them before trusting the question.
//
// Per iteration: search with the draft's query, cross-check the current
// answers against the snippets, then branch. VERIFIED ends the attempt
// successfully. CORRECTED triggers a targeted second search and a
// confirmation call; a confirmed correction also ends the attempt.
// Everything else either loops (with mutated query or corrected baseline)
// or, when retries are disabled, abandons the attempt.
type Verifier struct {
	llm    ChatCompleter
	search Searcher
	cfg    Config
}

// NewVerifier creates a verifier.
func NewVerifier(llm ChatCompleter, search Searcher, cfg Config) *Verifier {
	return &Verifier{llm: llm, search: search, cfg: cfg}
}

// VerifyResult is the terminal state of one verification attempt.
type VerifyResult struct {
	Verified   bool
	Answers    []string
	Source     string
	Iterations int
}

// Verify runs the verification loop for one draft. The draft itself is not
// mutated; the working answers and source live here. Every iteration is
// appended to the attempt record for the audit log.
func (v *Verifier) Verify(ctx context.Context, draft *QuestionDraft, attempt *AttemptRecord) VerifyResult {
	answers := append([]string(nil), draft.Answers...)
	source := draft.Source
	query := draft.SearchQuery
	if query == "" {
		query = draft.Question
	}

	for iter := 0; iter < v.cfg.MaxVerifyRetries; iter++ {
		attempt.VerifyIterations = iter + 1
		rec := &IterationRecord{SearchQuery: query}
		attempt.Iterations = append(attempt.Iterations, rec)
		VerboseLog("Verification iteration %d/%d, answers: %v", iter+1, v.cfg.MaxVerifyRetries, answers)

		sources, err := v.search.Search(ctx, query, v.cfg.SearchMaxResults)
		if err != nil {
			VerboseLog("Verification search failed: %v", err)
			rec.CrossCheckStatus = "search_failed"
			rec.CrossCheckReason = err.Error()
			if !v.cfg.RetryOnUnverifiable {
				break
			}
			continue
		}
		if len(sources) == 0 {
			// No sources means no possible verification this round.
			rec.CrossCheckStatus = "no_sources"
			if !v.cfg.RetryOnUnverifiable {
				break
			}
			continue
		}
		rec.Sources = sourceRefs(sources)

		check := v.crossCheck(ctx, draft.Question, answers, sources)
		rec.CrossCheckStatus = string(check.Status)
		rec.CrossCheckReason = check.Reason

		switch check.Status {
		case CheckVerified:
			return VerifyResult{Verified: true, Answers: answers, Source: source, Iterations: iter + 1}

		case CheckCorrected:
			if len(check.CorrectedAnswers) != 5 {
				VerboseLog("Correction has %d answers (need 5)", len(check.CorrectedAnswers))
				rec.CrossCheckReason = fmt.Sprintf("malformed correction: %d answers", len(check.CorrectedAnswers))
				if !v.cfg.RetryOnUnverifiable {
					return VerifyResult{Answers: answers, Source: source, Iterations: iter + 1}
				}
				continue
			}
			rec.CorrectedAnswers = check.CorrectedAnswers

			reVerify := v.reVerifyCorrection(ctx, draft.Question, check.CorrectedAnswers, rec)
			if reVerify.Status == ReVerifyConfirmed {
				answers = check.CorrectedAnswers
				// Source precedence: the cross-check's explicit corrected
				// source wins over the re-verification's best source, which
				// wins over the draft's original source.
				if reVerify.BestSource != "" {
					source = reVerify.BestSource
				}
				if check.CorrectedSource != "" {
					source = check.CorrectedSource
				}
				return VerifyResult{Verified: true, Answers: answers, Source: source, Iterations: iter + 1}
			}

			// The unconfirmed correction becomes the new baseline for the
			// next iteration rather than being discarded.
			answers = check.CorrectedAnswers
			if !v.cfg.RetryOnUnverifiable {
				return VerifyResult{Answers: answers, Source: source, Iterations: iter + 1}
			}

		default:
			if !v.cfg.RetryOnUnverifiable {
				return VerifyResult{Answers: answers, Source: source, Iterations: iter + 1}
			}
			// Retry with a query that names the current top two, hoping to
			// surface more specific sources.
			query = fmt.Sprintf("%s %s %s ranking", draft.Question, answers[0], answers[1])
		}
	}

	return VerifyResult{Answers: answers, Source: source, Iterations: attempt.VerifyIterations}
}

// crossCheck presents the current answers and source snippets to the model
// and parses its verdict. Any failure collapses to UNVERIFIABLE so the loop
// treats it as a failed step rather than a crash.
func (v *Verifier) crossCheck(ctx context.Context, question string, answers []string, sources []SourceSnippet) CrossCheckResult {
	var sourcesText strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&sourcesText, "Source: %s (%s)\n%s\n\n", s.Title, s.URL, truncate(s.Content, v.cfg.SnippetMaxLen))
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Question: %s\n\n", question)
	prompt.WriteString("Proposed answers (in order, 1st to 5th):\n")
	for i, a := range answers {
		fmt.Fprintf(&prompt, "%d. %s\n", i+1, a)
	}
	fmt.Fprintf(&prompt, "\nWeb source data:\n%s\n", sourcesText.String())
	prompt.WriteString("Based on the source data, are these answers correct AND in the right order?\n\n")
	prompt.WriteString("Respond with ONLY a JSON object:\n")
	prompt.WriteString("- \"status\": one of \"VERIFIED\", \"CORRECTED\", or \"UNVERIFIABLE\"\n")
	prompt.WriteString("- \"corrected_answers\": (only if CORRECTED) array of 5 answers in the correct order\n")
	prompt.WriteString("- \"corrected_source\": (only if CORRECTED) the URL of the most authoritative source used for correction\n")
	prompt.WriteString("- \"reason\": detailed explanation of your finding, including what the sources say\n\n")
	prompt.WriteString("Use VERIFIED if the answers match the sources in both content and order.\n")
	prompt.WriteString("Use CORRECTED if you can determine the right answers/order from the sources. Provide the corrected list.\n")
	prompt.WriteString("Use UNVERIFIABLE ONLY if the source data truly has no relevant information about this question.")

	system := "You are a meticulous fact-checker. You compare a trivia answer against authoritative web source data. " +
		"The ORDER of the answers is critical — this is a ranking question.\n\n" +
		"Be very careful about ordering. If the source clearly shows a different order, you MUST correct it. " +
		"If you can verify some answers but not the exact order, try to provide the correct order from the source data.\n\n" +
		"If the source data contains enough information to determine the correct answers and order, use it — " +
		"don't give up too easily."

	raw, err := completeJSON(ctx, v.llm, v.cfg.Model, system, prompt.String())
	if err != nil {
		return CrossCheckResult{Status: CheckUnverifiable, Reason: fmt.Sprintf("cross-check call failed: %v", err)}
	}

	var result CrossCheckResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return CrossCheckResult{Status: CheckUnverifiable, Reason: "failed to parse cross-check response"}
	}
	switch result.Status {
	case CheckVerified, CheckCorrected, CheckUnverifiable:
	default:
		return CrossCheckResult{Status: CheckUnverifiable, Reason: fmt.Sprintf("unknown cross-check status %q", result.Status)}
	}
	return result
}

// reVerifyCorrection runs a second, more targeted search built from the
// corrected top two and asks the model to confirm or reject the new order.
// A single corrective pass from the same model is not independent evidence;
// this pass supplies fresh sources before a correction is accepted.
func (v *Verifier) reVerifyCorrection(ctx context.Context, question string, corrected []string, rec *IterationRecord) ReVerifyResult {
	query := fmt.Sprintf("%s %s vs %s ranking list", question, corrected[0], corrected[1])
	reRec := &ReVerifyRecord{Query: query}
	rec.ReVerify = reRec

	sources, err := v.search.Search(ctx, query, v.cfg.SearchMaxResults)
	if err != nil {
		VerboseLog("Re-verification search failed: %v", err)
		sources = nil
	}
	reRec.Sources = sourceRefs(sources)

	var sourcesText strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&sourcesText, "Source: %s (%s)\n%s\n\n", s.Title, s.URL, truncate(s.Content, v.cfg.SnippetMaxLen))
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Question: %s\n\n", question)
	prompt.WriteString("Corrected answers (in order, 1st to 5th):\n")
	for i, a := range corrected {
		fmt.Fprintf(&prompt, "%d. %s\n", i+1, a)
	}
	fmt.Fprintf(&prompt, "\nAdditional source data:\n%s\n", sourcesText.String())
	prompt.WriteString("Based on this additional source data, is the corrected order confirmed?\n\n")
	prompt.WriteString("Respond with ONLY a JSON object:\n")
	prompt.WriteString("- \"status\": \"CONFIRMED\" or \"REJECTED\"\n")
	prompt.WriteString("- \"reason\": brief explanation\n")
	prompt.WriteString("- \"best_source\": URL of the most authoritative source")

	system := "You are a fact-checker performing a SECOND verification of a corrected trivia answer. " +
		"A previous check corrected the order of answers. You must confirm or reject this corrected order " +
		"using the new source data provided. Be very strict about ordering."

	result := ReVerifyResult{Status: ReVerifyRejected, Reason: "failed to parse re-verification response"}
	raw, err := completeJSON(ctx, v.llm, v.cfg.Model, system, prompt.String())
	if err != nil {
		result.Reason = fmt.Sprintf("re-verification call failed: %v", err)
	} else if err := json.Unmarshal([]byte(raw), &result); err != nil {
		result = ReVerifyResult{Status: ReVerifyRejected, Reason: "failed to parse re-verification response"}
	}
	if result.Status != ReVerifyConfirmed {
		result.Status = ReVerifyRejected
	}

	reRec.Status = string(result.Status)
	reRec.Reason = result.Reason
	reRec.BestSource = result.BestSource
	return result
}
