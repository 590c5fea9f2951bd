package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeSettings_Validate(t *testing.T) {
	valid := RuntimeSettings{
		LLMAPIURL: "https://example.test/v1",
		LLMAPIKey: "ak-test",
		LLMModel:  "model-test",
	}
	require.NoError(t, valid.Validate())

	noModel := valid
	noModel.LLMModel = " "
	require.Error(t, noModel.Validate())

	negative := valid
	negative.AgentMaxIterations = -1
	require.Error(t, negative.Validate())

	// partial overrides are valid
	require.NoError(t, RuntimeSettings{LLMModel: "model-test"}.Validate())
	require.NoError(t, RuntimeSettings{}.Validate())
}

func TestRuntimeSettings_Merge(t *testing.T) {
	saved := RuntimeSettings{LLMAPIURL: "https://saved.example/v1", AgentMaxIterations: 4}
	got := saved.Merge(RuntimeSettings{LLMModel: "new-model"})
	assert.Equal(t, RuntimeSettings{
		LLMAPIURL:          "https://saved.example/v1",
		LLMModel:           "new-model",
		AgentMaxIterations: 4,
	}, got)
	assert.Equal(t, saved, saved.Merge(RuntimeSettings{}))
}

func TestRuntimeSettingsFile_RoundTrip(t *testing.T) {
	input := RuntimeSettings{
		LLMAPIURL:          "https://example.test/v1",
		LLMAPIKey:          "ak-test",
		LLMModel:           "model-test",
		AgentMaxIterations: 8,
	}

	for _, name := range []string{"runtime.json", "runtime.yaml"} {
		t.Run(name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "settings", name)
			require.NoError(t, WriteRuntimeSettingsFile(filePath, input))

			got, err := LoadRuntimeSettingsFile(filePath)
			require.NoError(t, err)
			assert.Equal(t, input, got)

			info, err := os.Stat(filePath)
			require.NoError(t, err)
			assert.False(t, info.IsDir())
		})
	}
}

func TestLoadRuntimeSettingsFile_YAML(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte("llm_model: gpt-4o\nagent_max_iterations: 20\n"), 0o600))

	got, err := LoadRuntimeSettingsFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", got.LLMModel)
	assert.Equal(t, 20, got.AgentMaxIterations)
	assert.Empty(t, got.LLMAPIKey)

	require.NoError(t, os.WriteFile(filePath, []byte("llm_model: [unclosed"), 0o600))
	_, err = LoadRuntimeSettingsFile(filePath)
	assert.Error(t, err)

	_, err = LoadRuntimeSettingsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestWithRuntimeSettings_OverridesConfig(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_API_URL", "https://env.example/v1")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("AGENT_MAX_ITERATIONS", "5")

	override := RuntimeSettings{
		LLMAPIURL:          "https://file.example/v1",
		LLMAPIKey:          "file-key",
		LLMModel:           "file-model",
		AgentMaxIterations: 9,
	}

	cfg, err := NewFromEnv(WithRuntimeSettings(override))
	require.NoError(t, err)
	assert.Equal(t, override.LLMAPIURL, cfg.LLM.APIURL)
	assert.Equal(t, override.LLMAPIKey, cfg.LLM.APIKey)
	assert.Equal(t, override.LLMModel, cfg.LLM.Model)
	assert.Equal(t, 9, cfg.Agent.MaxIterations)
	assert.Equal(t, override, cfg.RuntimeSettings())

	// partial settings keep the environment values
	cfg, err = NewFromEnv(WithRuntimeSettings(RuntimeSettings{LLMModel: "only-model"}))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://env.example/v1", cfg.LLM.APIURL)
	assert.Equal(t, "only-model", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
}

func TestRuntimeSettingsStore_UpdatePersistsFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "runtime-settings.yaml")
	initial := RuntimeSettings{
		LLMAPIURL: "https://old.example/v1",
		LLMModel:  "old-model",
	}

	store, err := NewRuntimeSettingsStore(filePath, initial)
	require.NoError(t, err)
	assert.Equal(t, initial, store.GetRuntimeSettings())

	got, err := store.UpdateRuntimeSettings(RuntimeSettings{LLMModel: "new-model", AgentMaxIterations: 12})
	require.NoError(t, err)
	want := RuntimeSettings{
		LLMAPIURL:          "https://old.example/v1",
		LLMModel:           "new-model",
		AgentMaxIterations: 12,
	}
	assert.Equal(t, want, got)
	assert.Equal(t, want, store.GetRuntimeSettings())

	loaded, err := LoadRuntimeSettingsFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	_, err = store.UpdateRuntimeSettings(RuntimeSettings{LLMAPIKey: "  "})
	assert.Error(t, err)
	assert.Equal(t, want, store.GetRuntimeSettings())

	_, err = NewRuntimeSettingsStore("", initial)
	assert.Error(t, err)
}

func TestOpenRuntimeSettingsStore(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenRuntimeSettingsStore(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, RuntimeSettings{}, store.GetRuntimeSettings())

	filePath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte("llm_model: saved-model\n"), 0o600))
	store, err = OpenRuntimeSettingsStore(filePath)
	require.NoError(t, err)
	assert.Equal(t, RuntimeSettings{LLMModel: "saved-model"}, store.GetRuntimeSettings())

	require.NoError(t, os.WriteFile(filePath, []byte("llm_model: [oops"), 0o600))
	_, err = OpenRuntimeSettingsStore(filePath)
	assert.Error(t, err)
}
