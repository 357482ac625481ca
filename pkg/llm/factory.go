package llm

import "fmt"

const ollamaBaseURL = "http://localhost:11434/v1"

// Options selects and configures a provider.
type Options struct {
	Provider string // "openai", "anthropic", "ollama"
	Model    string
	APIKey   string
	BaseURL  string // optional endpoint override
}

// NewClient creates a provider client from options.
func NewClient(opts Options) (Client, error) {
	switch opts.Provider {
	case "openai":
		return NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Model), nil
	case "ollama":
		// Ollama serves an OpenAI-compatible API; the key is ignored by the
		// server but must be non-empty for the SDK.
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = ollamaBaseURL
		}
		apiKey := opts.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, baseURL, opts.Model), nil
	case "anthropic":
		return NewAnthropicClient(opts.APIKey, opts.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
}
