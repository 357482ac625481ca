package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Len(t, cfg.Agents, 3)
	assert.Equal(t, "Researcher", cfg.Agents[0].Name)
	assert.Equal(t, "Analyst", cfg.Agents[1].Name)
	assert.Equal(t, "Coordinator", cfg.Agents[2].Name)
	assert.Len(t, cfg.Connections, 2)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "gemma3:4b", cfg.LLM.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Health.Enabled)
}

func TestDefaultConfig_PassesValidation(t *testing.T) {
	cfg := DefaultConfig()

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.NoError(t, ValidateSchema(raw))
	assert.NoError(t, ValidateTopology(cfg))
}

func TestValidateSchema_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "agent without role",
			raw:  `{"agents": [{"name": "A"}]}`,
		},
		{
			name: "empty agent name",
			raw:  `{"agents": [{"name": "", "role": "r"}]}`,
		},
		{
			name: "connection with three endpoints",
			raw:  `{"connections": [["A", "B", "C"]]}`,
		},
		{
			name: "unknown provider",
			raw:  `{"llm": {"provider": "bard"}}`,
		},
		{
			name: "bad log level",
			raw:  `{"logging": {"level": "loud"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateSchema([]byte(tt.raw)))
		})
	}
}

func TestValidateTopology(t *testing.T) {
	t.Run("duplicate agent name", func(t *testing.T) {
		cfg := &Config{
			Agents: []AgentDef{{Name: "A", Role: "r"}, {Name: "A", Role: "r"}},
		}
		err := ValidateTopology(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate agent name")
	})

	t.Run("connection references unknown agent", func(t *testing.T) {
		cfg := &Config{
			Agents:      []AgentDef{{Name: "A", Role: "r"}},
			Connections: [][]string{{"A", "Ghost"}},
		}
		err := ValidateTopology(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown agent")
	})

	t.Run("connection with wrong arity", func(t *testing.T) {
		cfg := &Config{
			Agents:      []AgentDef{{Name: "A", Role: "r"}},
			Connections: [][]string{{"A"}},
		}
		err := ValidateTopology(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly two")
	})
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Agents, cfg.Agents)
}

func TestLoader_LoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.json")
	content := `{
		"agents": [
			{"name": "Writer", "role": "You write."},
			{"name": "Editor", "role": "You edit."}
		],
		"connections": [["Writer", "Editor"]],
		"llm": {"provider": "openai", "model": "gpt-4o-mini"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "Writer", cfg.Agents[0].Name)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	// Sections absent in the file keep their defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoader_RejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"agents": [{`), 0o644))

	_, err := NewLoader(path).Load()
	require.Error(t, err)
}

func TestLoader_RejectsBadTopology(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.json")
	content := `{
		"agents": [{"name": "A", "role": "r"}],
		"connections": [["A", "Ghost"]]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}
