package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	DefaultModel = "gpt-4o-mini"

	maxCompletionTokens = 1000
	temperature         = 0.7

	// Returned when the API answers with no usable completion.
	fallbackText = "Unable to generate a response"
)

// Message is one prior conversation turn. Role is "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer generates a completion for a system instruction plus turns.
// The last turn is the active user message.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Message) (string, error)
}

// OpenAIClient is a thin Completer over langchaingo's OpenAI backend.
// No retry, no caching; upstream failures surface to the caller.
type OpenAIClient struct {
	llm   *openai.LLM
	model string
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	if model == "" {
		model = DefaultModel
	}

	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return &OpenAIClient{llm: llm, model: model}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, system string, turns []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(turns)+1)
	content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, system))
	for _, turn := range turns {
		role := schema.ChatMessageTypeHuman
		if turn.Role == "assistant" {
			role = schema.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, turn.Content))
	}

	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxCompletionTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return fallbackText, nil
	}
	return resp.Choices[0].Content, nil
}
