package factle

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// fakeChat replays scripted responses in call order. A nil entry in errs (or
// a missing one) means the call succeeds with the matching response.
type fakeChat struct {
	responses []string
	errs      []error
	calls     []openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

// userMessage returns the user-role content of the i-th recorded call.
func (f *fakeChat) userMessage(t *testing.T, i int) string {
	t.Helper()
	if i >= len(f.calls) {
		t.Fatalf("expected at least %d chat calls, got %d", i+1, len(f.calls))
	}
	for _, m := range f.calls[i].Messages {
		if m.Role == openai.ChatMessageRoleUser {
			return m.Content
		}
	}
	t.Fatalf("call %d has no user message", i)
	return ""
}

// fakeSearch records queries and delegates to fn; a nil fn returns no
// results.
type fakeSearch struct {
	fn      func(query string, maxResults int) ([]SourceSnippet, error)
	queries []string
}

func (f *fakeSearch) Search(_ context.Context, query string, maxResults int) ([]SourceSnippet, error) {
	f.queries = append(f.queries, query)
	if f.fn != nil {
		return f.fn(query, maxResults)
	}
	return nil, nil
}

func someSources() []SourceSnippet {
	return []SourceSnippet{
		{Title: "Ranking authority", URL: "https://example.com/ranking", Content: "The definitive list."},
		{Title: "Almanac", URL: "https://example.com/almanac", Content: "Historical figures."},
	}
}

func testDraft() *QuestionDraft {
	distractors := make([]string, 15)
	for i := range distractors {
		distractors[i] = fmt.Sprintf("Distractor %d", i+1)
	}
	return &QuestionDraft{
		Question:    "Top 5 countries by Winter Olympics all-time gold medals?",
		Answers:     []string{"Norway", "USA", "Germany", "Soviet Union", "Canada"},
		Distractors: distractors,
		Source:      "https://example.com/original",
		SearchQuery: "winter olympics all-time gold medal table",
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal test value: %v", err)
	}
	return string(data)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BlockedTopics = defaultBlockedTopics
	return cfg
}
