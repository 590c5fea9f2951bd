package main

import (
	"fmt"
	"strings"

	"github.com/MimeLyc/sales-copilot/internal/config"
)

// SettingsCmd prints the effective runtime settings and writes changes to the settings file
type SettingsCmd struct {
	APIURL        string `long:"api-url" description:"LLM API URL"`
	APIKey        string `long:"api-key" description:"LLM API key"`
	SetModel      string `long:"set-model" description:"default model"`
	MaxIterations int    `long:"max-iterations" description:"model steps per request"`

	root *Options `no-flag:"true"`
}

func (c *SettingsCmd) changes() config.RuntimeSettings {
	return config.RuntimeSettings{
		LLMAPIURL:          c.APIURL,
		LLMAPIKey:          c.APIKey,
		LLMModel:           c.SetModel,
		AgentMaxIterations: c.MaxIterations,
	}
}

// Execute saves only the flags given on this invocation. Values from the
// environment and the root --model stay out of the file.
func (c *SettingsCmd) Execute(_ []string) error {
	changes := c.changes()
	cfg, err := loadConfig(c.root, config.WithRuntimeSettings(changes))
	if err != nil {
		return err
	}

	if changes != (config.RuntimeSettings{}) {
		path := settingsPath(c.root)
		store, err := config.OpenRuntimeSettingsStore(path)
		if err != nil {
			return err
		}
		if _, err := store.UpdateRuntimeSettings(changes); err != nil {
			return err
		}
		fmt.Printf("updated %s\n", path)
	}

	current := cfg.RuntimeSettings()
	fmt.Printf("llm_api_url: %s\nllm_api_key: %s\nllm_model: %s\nagent_max_iterations: %d\n",
		current.LLMAPIURL, maskKey(current.LLMAPIKey), current.LLMModel, current.AgentMaxIterations)
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
