package factle

import "fmt"

// AssembleEntry builds the persisted entry from a verified draft. Options
// are the 5 answers followed by the distractors; the front-end shuffles for
// presentation, so answer positions stay fixed here.
func AssembleEntry(date string, draft *QuestionDraft, answers []string, sourceURL string, id int) QuestionEntry {
	options := make([]string, 0, len(answers)+len(draft.Distractors))
	options = append(options, answers...)
	options = append(options, draft.Distractors...)

	return QuestionEntry{
		ID:       id,
		Date:     date,
		Question: draft.Question,
		Options:  options,
		Answers:  append([]string(nil), answers...),
		Source:   sourceURL,
	}
}

// ValidateEntry checks the structural invariants of a final entry and
// returns human-readable reasons for every violation. A non-empty result
// aborts the attempt.
func ValidateEntry(entry QuestionEntry) []string {
	var errs []string

	if entry.Question == "" {
		errs = append(errs, "missing question text")
	}
	if len(entry.Answers) != 5 {
		errs = append(errs, fmt.Sprintf("expected 5 answers, got %d", len(entry.Answers)))
	}
	if len(entry.Options) != 20 {
		errs = append(errs, fmt.Sprintf("expected 20 options, got %d", len(entry.Options)))
	}

	optionSet := make(map[string]bool, len(entry.Options))
	duplicate := false
	for _, o := range entry.Options {
		if optionSet[o] {
			duplicate = true
		}
		optionSet[o] = true
	}
	if duplicate {
		errs = append(errs, "duplicate options found")
	}

	for _, a := range entry.Answers {
		if !optionSet[a] {
			errs = append(errs, fmt.Sprintf("answer %q not found in options", a))
		}
	}

	if entry.Source == "" {
		errs = append(errs, "missing source URL")
	}

	return errs
}
