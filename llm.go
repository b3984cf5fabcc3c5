package factle

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// GitHubModelsEndpoint is the OpenAI-compatible endpoint for GitHub Models.
const GitHubModelsEndpoint = "https://models.inference.ai.azure.com"

// ChatCompleter is the slice of the OpenAI client the pipeline uses. Tests
// substitute a scripted implementation.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewModelClient creates an OpenAI client for the given token. A non-empty
// baseURL points it at an OpenAI-compatible endpoint such as GitHub Models.
func NewModelClient(token, baseURL string) *openai.Client {
	if baseURL == "" {
		return openai.NewClient(token)
	}
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = baseURL
	return openai.NewClientWithConfig(cfg)
}

// completeJSON issues one chat completion asking for a single JSON object
// and returns the raw response text. Callers parse and must tolerate
// malformed output; only transport-level failures surface as errors.
func completeJSON(ctx context.Context, client ChatCompleter, model, system, user string) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in model response")
	}
	return resp.Choices[0].Message.Content, nil
}
