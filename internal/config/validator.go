package config

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema constrains the on-disk config shape. Semantic rules that a
// schema cannot express (connection endpoints must be declared agents) live
// in ValidateTopology.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "agents": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "role": {"type": "string", "minLength": 1}
        },
        "required": ["name", "role"]
      }
    },
    "connections": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {"type": "string", "minLength": 1},
        "minItems": 2,
        "maxItems": 2
      }
    },
    "llm": {
      "type": "object",
      "properties": {
        "provider": {"type": "string", "enum": ["openai", "anthropic", "ollama"]},
        "model": {"type": "string"},
        "api_key": {"type": "string"},
        "base_url": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "pretty": {"type": "boolean"}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "addr": {"type": "string"}
      }
    },
    "health": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "schedule": {"type": "string"}
      }
    },
    "data_dir": {"type": "string"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(configSchema)

// ValidateSchema validates raw config JSON against the embedded schema.
func ValidateSchema(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		msg := ""
		for i, e := range errs {
			if i > 0 {
				msg += "; "
			}
			msg += e.String()
		}
		return fmt.Errorf("config does not match schema: %s", msg)
	}
	return nil
}

// ValidateTopology checks the agent graph: unique agent names and connection
// pairs that reference declared agents.
func ValidateTopology(cfg *Config) error {
	names := make(map[string]struct{}, len(cfg.Agents))
	for _, agent := range cfg.Agents {
		if agent.Name == "" {
			return fmt.Errorf("agent name cannot be empty")
		}
		if _, dup := names[agent.Name]; dup {
			return fmt.Errorf("duplicate agent name %q", agent.Name)
		}
		names[agent.Name] = struct{}{}
	}

	for _, pair := range cfg.Connections {
		if len(pair) != 2 {
			return fmt.Errorf("connection must name exactly two agents, got %v", pair)
		}
		for _, name := range pair {
			if _, ok := names[name]; !ok {
				return fmt.Errorf("connection references unknown agent %q", name)
			}
		}
	}

	return nil
}
