package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/MimeLyc/sales-copilot/internal/agent"
	"github.com/MimeLyc/sales-copilot/internal/config"
	"github.com/MimeLyc/sales-copilot/internal/fetch"
	"github.com/MimeLyc/sales-copilot/internal/llm"
	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/persistence"
	"github.com/MimeLyc/sales-copilot/internal/session"
	"github.com/MimeLyc/sales-copilot/internal/tools"
	"github.com/MimeLyc/sales-copilot/internal/wiki"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

// app holds the wired services of one CLI invocation
type app struct {
	cfg     *config.Config
	store   *persistence.SQLiteStore
	manager *session.Manager
	saver   *tools.SaveTool

	logFile *log.FileLogger
}

func settingsPath(opts *Options) string {
	if opts.Config != "" {
		return opts.Config
	}
	return config.RuntimeSettingsFilePath()
}

// loadConfig reads the dotenv file, then the environment, then the settings file
func loadConfig(opts *Options, extra ...config.Option) (*config.Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	var cfgOpts []config.Option
	path := settingsPath(opts)
	settings, err := config.LoadRuntimeSettingsFile(path)
	switch {
	case err == nil:
		cfgOpts = append(cfgOpts, config.WithRuntimeSettings(settings))
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	cfgOpts = append(cfgOpts, extra...)
	cfgOpts = append(cfgOpts, config.WithModel(opts.Model))

	return config.NewFromEnv(cfgOpts...)
}

func initLogging(cfg *config.Config) (*log.FileLogger, error) {
	level := log.ParseLevel(cfg.Log.Level)
	if cfg.Log.File == "" {
		log.InitLogger(level)
		return nil, nil
	}
	fileLogger, err := log.NewFileLogger(cfg.Log.File, level)
	if err != nil {
		return nil, err
	}
	log.SetLogger(fileLogger.Logger)
	return fileLogger, nil
}

func newApp(opts *Options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logFile, err := initLogging(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	client, err := llm.NewClient(cfg.LLMClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	registry, err := tools.NewDefaultRegistry(tools.Dependencies{
		Fetcher:      fetch.NewFetcher(cfg.FetcherConfig()),
		Generator:    client,
		Wiki:         wiki.NewClient(cfg.WikiClientConfig()),
		SearchAPIKey: cfg.Search.APIKey,
		SearchAPIURL: cfg.Search.APIURL,
		SaveDir:      cfg.System.SaveDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	log.Info("Registered %d tools for model %s", registry.Count(), client.Model())

	store, err := persistence.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	agentOpts := agent.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		RunTimeout:    cfg.RunTimeout(),
	}
	factory := func(mem *memory.Log) *agent.Agent {
		return agent.NewLLMAgent(client, registry, mem, agentOpts)
	}

	return &app{
		cfg:     cfg,
		store:   store,
		manager: session.NewManager(store, factory, cfg.LLM.Model),
		saver:   tools.NewSaveTool(cfg.System.SaveDir),
		logFile: logFile,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Warn("Close session store: %v", err)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
