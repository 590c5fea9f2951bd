package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultRuntimeSettingsFile = "./config/settings.yaml"

// RuntimeSettings are the values a settings file may override.
// Zero values leave the environment configuration untouched.
type RuntimeSettings struct {
	LLMAPIURL          string `json:"llm_api_url,omitempty" yaml:"llm_api_url,omitempty"`
	LLMAPIKey          string `json:"llm_api_key,omitempty" yaml:"llm_api_key,omitempty"`
	LLMModel           string `json:"llm_model,omitempty" yaml:"llm_model,omitempty"`
	AgentMaxIterations int    `json:"agent_max_iterations,omitempty" yaml:"agent_max_iterations,omitempty"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

// Validate rejects fields that are present but blank. Absent fields are fine,
// a settings file only carries the values it overrides.
func (s RuntimeSettings) Validate() error {
	if s.LLMAPIURL != "" && strings.TrimSpace(s.LLMAPIURL) == "" {
		return fmt.Errorf("llm_api_url must not be blank")
	}
	if s.LLMAPIKey != "" && strings.TrimSpace(s.LLMAPIKey) == "" {
		return fmt.Errorf("llm_api_key must not be blank")
	}
	if s.LLMModel != "" && strings.TrimSpace(s.LLMModel) == "" {
		return fmt.Errorf("llm_model must not be blank")
	}
	if s.AgentMaxIterations < 0 {
		return fmt.Errorf("agent_max_iterations must not be negative")
	}
	return nil
}

// Merge returns s with the non-zero fields of changes applied
func (s RuntimeSettings) Merge(changes RuntimeSettings) RuntimeSettings {
	if changes.LLMAPIURL != "" {
		s.LLMAPIURL = changes.LLMAPIURL
	}
	if changes.LLMAPIKey != "" {
		s.LLMAPIKey = changes.LLMAPIKey
	}
	if changes.LLMModel != "" {
		s.LLMModel = changes.LLMModel
	}
	if changes.AgentMaxIterations != 0 {
		s.AgentMaxIterations = changes.AgentMaxIterations
	}
	return s
}

func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		LLMAPIURL:          c.LLM.APIURL,
		LLMAPIKey:          c.LLM.APIKey,
		LLMModel:           c.LLM.Model,
		AgentMaxIterations: c.Agent.MaxIterations,
	}
}

func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.LLMAPIURL) != "" {
			c.LLM.APIURL = settings.LLMAPIURL
		}
		if strings.TrimSpace(settings.LLMAPIKey) != "" {
			c.LLM.APIKey = settings.LLMAPIKey
		}
		if strings.TrimSpace(settings.LLMModel) != "" {
			c.LLM.Model = settings.LLMModel
		}
		if settings.AgentMaxIterations > 0 {
			c.Agent.MaxIterations = settings.AgentMaxIterations
		}
	}
}

// LoadRuntimeSettingsFile reads a YAML or JSON settings file
func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	return settings, nil
}

// WriteRuntimeSettingsFile writes JSON for .json paths and YAML otherwise
func WriteRuntimeSettingsFile(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var content []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		content, err = json.MarshalIndent(settings, "", "  ")
		content = append(content, '\n')
	} else {
		content, err = yaml.Marshal(settings)
	}
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// RuntimeSettingsStore holds the overrides saved in a settings file and writes updates through to disk
type RuntimeSettingsStore struct {
	path string

	mu      sync.RWMutex
	current RuntimeSettings
}

func NewRuntimeSettingsStore(path string, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeSettingsStore{
		path:    path,
		current: initial,
	}, nil
}

// OpenRuntimeSettingsStore loads the overrides in path. A missing file starts empty.
func OpenRuntimeSettingsStore(path string) (*RuntimeSettingsStore, error) {
	initial, err := LoadRuntimeSettingsFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return NewRuntimeSettingsStore(path, initial)
}

func (s *RuntimeSettingsStore) GetRuntimeSettings() RuntimeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// UpdateRuntimeSettings merges changes into the stored overrides and persists them.
// Fields left zero in changes keep their saved value.
func (s *RuntimeSettingsStore) UpdateRuntimeSettings(changes RuntimeSettings) (RuntimeSettings, error) {
	if err := changes.Validate(); err != nil {
		return RuntimeSettings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.Merge(changes)
	if err := WriteRuntimeSettingsFile(s.path, next); err != nil {
		return RuntimeSettings{}, err
	}
	s.current = next
	return next, nil
}
