package factle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParsesDraft(t *testing.T) {
	chat := &fakeChat{responses: []string{mustJSON(t, testDraft())}}
	qm := NewQuestionMaker(chat, "gpt-5")

	draft, err := qm.Generate(context.Background(), "Winter Olympics", "Top 5 gold medal countries?")

	require.NoError(t, err)
	assert.Equal(t, testDraft().Question, draft.Question)
	assert.Len(t, draft.Answers, 5)
	assert.Len(t, draft.Distractors, 15)
	assert.NotEmpty(t, draft.SearchQuery)
}

func TestGenerateRejectsWrongAnswerCount(t *testing.T) {
	bad := testDraft()
	bad.Answers = bad.Answers[:4]
	chat := &fakeChat{responses: []string{mustJSON(t, bad)}}
	qm := NewQuestionMaker(chat, "gpt-5")

	draft, err := qm.Generate(context.Background(), "topic", "question")

	assert.Error(t, err)
	assert.Nil(t, draft)
}

func TestGenerateRejectsMalformedResponse(t *testing.T) {
	chat := &fakeChat{responses: []string{"definitely not json"}}
	qm := NewQuestionMaker(chat, "gpt-5")

	draft, err := qm.Generate(context.Background(), "topic", "question")

	assert.Error(t, err)
	assert.Nil(t, draft)
}
