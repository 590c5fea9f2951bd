package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MimeLyc/sales-copilot/internal/fetch"
	"github.com/MimeLyc/sales-copilot/internal/llm"
	"github.com/MimeLyc/sales-copilot/internal/wiki"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://api.openai.com/v1)
// - LLM_MODEL: Model name to use (default: gpt-4o-mini)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 4000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0)
// - LLM_TIMEOUT: Request timeout in seconds (default: 60)
// - LLM_ORGANIZATION: OpenAI organization id (optional)
//
// Tools:
// - SEARCH_API_KEY: Tavily API key, web search is disabled without it
// - SEARCH_API_URL: Tavily endpoint (default: https://api.tavily.com/search)
// - WIKI_API_URL: MediaWiki api.php endpoint (default: English Wikipedia)
// - WIKI_TIMEOUT: Encyclopedia timeout in seconds (default: 15)
// - FETCH_TIMEOUT: Page fetch timeout in seconds (default: 10)
// - FETCH_MAX_CHARS: Page text cap (default: 15000)
//
// Agent:
// - AGENT_MAX_ITERATIONS: Model steps per request (default: 15)
// - AGENT_RUN_TIMEOUT: Deadline of one request in seconds, 0 disables (default: 0)
//
// System:
// - DATA_DIR: Directory of the session database (default: ./data)
// - SAVE_DIR: Directory for reports saved without an absolute path (default: .)
// - LOG_LEVEL: debug, info, warn or error (default: info)
// - LOG_FILE: Additional log file (optional)
type Config struct {
	LLM    LLMConfig    `json:"llm"`
	Search SearchConfig `json:"search"`
	Wiki   WikiConfig   `json:"wiki"`
	Fetch  FetchConfig  `json:"fetch"`
	Agent  AgentConfig  `json:"agent"`
	System SystemConfig `json:"system"`
	Log    LogConfig    `json:"log"`
}

// LLMConfig holds the configuration for LLM client
// Supports any OpenAI-compatible provider
type LLMConfig struct {
	APIKey       string  `json:"api_key"`
	APIURL       string  `json:"api_url"`
	Model        string  `json:"model"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	Timeout      int     `json:"timeout"`
	Organization string  `json:"organization"`
}

// SearchConfig holds the configuration for web search tool
type SearchConfig struct {
	APIKey string `json:"api_key"` // Tavily API key
	APIURL string `json:"api_url"` // Tavily API URL
}

type WikiConfig struct {
	APIURL  string `json:"api_url"`
	Timeout int    `json:"timeout"`
}

type FetchConfig struct {
	Timeout  int `json:"timeout"`
	MaxChars int `json:"max_chars"`
}

// AgentConfig holds the configuration for the agent
type AgentConfig struct {
	MaxIterations int `json:"max_iterations"` // Max model steps per request
	RunTimeout    int `json:"run_timeout"`    // Seconds, 0 disables
}

// SystemConfig holds the system configuration
type SystemConfig struct {
	DataDir string `json:"data_dir"`
	SaveDir string `json:"save_dir"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:       getEnvString("LLM_API_KEY", ""),
			APIURL:       getEnvString("LLM_API_URL", "https://api.openai.com/v1"),
			Model:        getEnvString("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:    getEnvInt("LLM_MAX_TOKENS", 4000),
			Temperature:  getEnvFloat("LLM_TEMPERATURE", 0),
			Timeout:      getEnvInt("LLM_TIMEOUT", 60),
			Organization: getEnvString("LLM_ORGANIZATION", ""),
		},
		Search: SearchConfig{
			APIKey: getEnvString("SEARCH_API_KEY", ""),
			APIURL: getEnvString("SEARCH_API_URL", "https://api.tavily.com/search"),
		},
		Wiki: WikiConfig{
			APIURL:  getEnvString("WIKI_API_URL", wiki.DefaultAPIURL),
			Timeout: getEnvInt("WIKI_TIMEOUT", 15),
		},
		Fetch: FetchConfig{
			Timeout:  getEnvInt("FETCH_TIMEOUT", 10),
			MaxChars: getEnvInt("FETCH_MAX_CHARS", fetch.DefaultMaxChars),
		},
		Agent: AgentConfig{
			MaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", 15),
			RunTimeout:    getEnvInt("AGENT_RUN_TIMEOUT", 0),
		},
		System: SystemConfig{
			DataDir: getEnvString("DATA_DIR", "./data"),
			SaveDir: getEnvString("SAVE_DIR", "."),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "info"),
			File:  getEnvString("LOG_FILE", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	log.Debug("Config: model=%s api=%s search=%t data=%s", config.LLM.Model, config.LLM.APIURL, config.Search.APIKey != "", config.System.DataDir)

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// WithModel overrides the model name
func WithModel(model string) Option {
	return func(c *Config) {
		if model != "" {
			c.LLM.Model = model
		}
	}
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be greater than 0")
	}
	return nil
}

// DBPath is the session database inside DataDir
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "copilot.db")
}

func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Agent.RunTimeout) * time.Second
}

func (c *Config) LLMClientConfig() *llm.Config {
	return &llm.Config{
		APIKey:       c.LLM.APIKey,
		APIURL:       c.LLM.APIURL,
		Model:        c.LLM.Model,
		MaxTokens:    c.LLM.MaxTokens,
		Temperature:  c.LLM.Temperature,
		Timeout:      c.LLM.Timeout,
		Organization: c.LLM.Organization,
	}
}

func (c *Config) FetcherConfig() fetch.Config {
	return fetch.Config{
		Timeout:  time.Duration(c.Fetch.Timeout) * time.Second,
		MaxChars: c.Fetch.MaxChars,
	}
}

func (c *Config) WikiClientConfig() wiki.Config {
	return wiki.Config{
		APIURL:  c.Wiki.APIURL,
		Timeout: time.Duration(c.Wiki.Timeout) * time.Second,
	}
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
