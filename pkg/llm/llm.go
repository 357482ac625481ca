// Package llm provides the text-generation clients consumed by the mesh
// consumer tasks. Every client tracks a request counter and token totals
// since the last reset.
package llm

import (
	"context"
	"sync/atomic"
)

// Client is the capability the consumer tasks call out to.
type Client interface {
	// Generate produces a response for prompt under the given system prompt.
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)

	// HealthCheck reports whether the model service is reachable.
	HealthCheck(ctx context.Context) (bool, error)

	// Model returns the model name in use.
	Model() string

	// SetModel switches the model used for subsequent calls.
	SetModel(model string)

	// Usage returns counters accumulated since the last reset.
	Usage() Usage

	// ResetUsage zeroes the usage counters.
	ResetUsage()
}

// Usage holds request and token counters.
type Usage struct {
	Requests     int64 `json:"requests"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// usageCounter accumulates usage atomically so Generate calls from many
// consumer goroutines never contend on a lock.
type usageCounter struct {
	requests     atomic.Int64
	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

func (u *usageCounter) record(input, output int64) {
	u.requests.Add(1)
	u.inputTokens.Add(input)
	u.outputTokens.Add(output)
}

func (u *usageCounter) snapshot() Usage {
	return Usage{
		Requests:     u.requests.Load(),
		InputTokens:  u.inputTokens.Load(),
		OutputTokens: u.outputTokens.Load(),
	}
}

func (u *usageCounter) reset() {
	u.requests.Store(0)
	u.inputTokens.Store(0)
	u.outputTokens.Store(0)
}
