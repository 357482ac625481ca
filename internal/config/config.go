package config

// Config represents the main parley configuration
type Config struct {
	// Agents and the undirected connection graph between them
	Agents      []AgentDef `json:"agents" mapstructure:"agents"`
	Connections [][]string `json:"connections" mapstructure:"connections"`

	// Model service
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics exposure
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Periodic model health probing
	Health HealthConfig `json:"health" mapstructure:"health"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// AgentDef declares one agent and its role prompt
type AgentDef struct {
	Name string `json:"name" mapstructure:"name"`
	Role string `json:"role" mapstructure:"role"`
}

// LLMConfig selects the text-generation backend
type LLMConfig struct {
	Provider string `json:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model    string `json:"model" mapstructure:"model"`
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// HealthConfig holds the health probe schedule
type HealthConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"` // cron syntax
}

// DefaultConfig returns the default configuration: a three-agent research
// topology talking to a local Ollama server.
func DefaultConfig() *Config {
	return &Config{
		Agents: []AgentDef{
			{
				Name: "Researcher",
				Role: "You are a researcher agent. Your task is to gather and analyze information.",
			},
			{
				Name: "Analyst",
				Role: "You are an analyst agent. Your task is to process data and provide insights.",
			},
			{
				Name: "Coordinator",
				Role: "You are a coordinator agent. Your task is to manage and organize tasks between agents.",
			},
		},
		Connections: [][]string{
			{"Researcher", "Analyst"},
			{"Analyst", "Coordinator"},
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "gemma3:4b",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Health: HealthConfig{
			Enabled:  true,
			Schedule: "@every 30s",
		},
	}
}
