package factle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleEntryAnswersFirst(t *testing.T) {
	draft := testDraft()
	answers := []string{"USA", "Norway", "Germany", "Soviet Union", "Canada"}

	entry := AssembleEntry("2026-03-15", draft, answers, "https://example.com/src", 42)

	assert.Equal(t, 42, entry.ID)
	assert.Equal(t, "2026-03-15", entry.Date)
	require.Len(t, entry.Options, 20)
	assert.Equal(t, answers, entry.Options[:5])
	assert.Equal(t, draft.Distractors, entry.Options[5:])
	assert.Equal(t, answers, entry.Answers)
}

func TestValidateEntryAcceptsGoodEntry(t *testing.T) {
	draft := testDraft()
	entry := AssembleEntry("2026-03-15", draft, draft.Answers, draft.Source, 1)
	assert.Empty(t, ValidateEntry(entry))
}

func TestValidateEntryReportsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuestionEntry)
		want   string
	}{
		{"empty question", func(e *QuestionEntry) { e.Question = "" }, "missing question text"},
		{"wrong answer count", func(e *QuestionEntry) { e.Answers = e.Answers[:4] }, "expected 5 answers"},
		{"wrong option count", func(e *QuestionEntry) { e.Options = e.Options[:19] }, "expected 20 options"},
		{"duplicate options", func(e *QuestionEntry) { e.Options[5] = e.Options[6] }, "duplicate options"},
		{"answer missing from options", func(e *QuestionEntry) { e.Options[0] = "replaced" }, "not found in options"},
		{"missing source", func(e *QuestionEntry) { e.Source = "" }, "missing source URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := testDraft()
			entry := AssembleEntry("2026-03-15", draft, draft.Answers, draft.Source, 1)
			tt.mutate(&entry)
			errs := ValidateEntry(entry)
			require.NotEmpty(t, errs)
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a reason containing %q, got %v", tt.want, errs)
		})
	}
}
