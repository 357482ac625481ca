package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 1024

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	usage  usageCounter

	mu    sync.RWMutex
	model string
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate sends one messages request.
func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.Model()),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("message request failed: %w", err)
	}

	content := ""
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += text.Text
		}
	}

	c.usage.record(response.Usage.InputTokens, response.Usage.OutputTokens)
	return content, nil
}

// HealthCheck lists models to verify the endpoint is reachable.
func (c *AnthropicClient) HealthCheck(ctx context.Context) (bool, error) {
	if _, err := c.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}
	return true, nil
}

// Model returns the current model name.
func (c *AnthropicClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel switches the model used for subsequent calls.
func (c *AnthropicClient) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// Usage returns counters accumulated since the last reset.
func (c *AnthropicClient) Usage() Usage {
	return c.usage.snapshot()
}

// ResetUsage zeroes the usage counters.
func (c *AnthropicClient) ResetUsage() {
	c.usage.reset()
}
