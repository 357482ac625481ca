package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client against an OpenAI-compatible chat endpoint.
// With a base URL override it also covers local Ollama servers, which expose
// the same API under /v1.
type OpenAIClient struct {
	client openai.Client
	usage  usageCounter

	mu    sync.RWMutex
	model string
}

// NewOpenAIClient creates an OpenAI client. baseURL may be empty for the
// hosted API.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Generate sends one chat completion request.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.Model()),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	c.usage.record(response.Usage.PromptTokens, response.Usage.CompletionTokens)
	return response.Choices[0].Message.Content, nil
}

// HealthCheck lists models to verify the endpoint is reachable.
func (c *OpenAIClient) HealthCheck(ctx context.Context) (bool, error) {
	if _, err := c.client.Models.List(ctx); err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}
	return true, nil
}

// Model returns the current model name.
func (c *OpenAIClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel switches the model used for subsequent calls.
func (c *OpenAIClient) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// Usage returns counters accumulated since the last reset.
func (c *OpenAIClient) Usage() Usage {
	return c.usage.snapshot()
}

// ResetUsage zeroes the usage counters.
func (c *OpenAIClient) ResetUsage() {
	c.usage.reset()
}
