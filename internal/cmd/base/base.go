// Package base holds what every CLI command shares: output, logging, and
// loading configuration into a ready task service.
package base

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/notion-relay/internal/config"
	"github.com/hashicorp-forge/notion-relay/internal/services"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks/adapters/mock"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks/adapters/notion"
)

// ProviderFactory builds the task provider for a configuration.
type ProviderFactory func(cfg *config.Config, logger hclog.Logger) (tasks.Provider, error)

// Command is embedded by every command.
type Command struct {
	Context context.Context
	Log     hclog.Logger
	UI      cli.Ui

	// Fs is where configuration and input files are read from.
	Fs afero.Fs

	// Getenv looks up environment variables.
	Getenv func(string) string

	// NewProvider overrides how the task provider is built.
	NewProvider ProviderFactory
}

// NewCommand returns a command backed by the OS filesystem and environment.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Context: context.Background(),
		Log:     log,
		UI:      ui,
		Fs:      afero.NewOsFs(),
		Getenv:  os.Getenv,
	}
}

// LoadConfig loads and validates configuration. devMode forces the in-memory
// provider.
func (c *Command) LoadConfig(flags ConfigFlags, devMode bool) (*config.Config, error) {
	l := &config.Loader{
		Fs:      c.Fs,
		Getenv:  c.Getenv,
		DevMode: devMode,
	}
	return l.Load(flags.Config, flags.EnvFile)
}

// Logger returns a logger configured by cfg. It replaces c.Log so later
// output from the command follows the configured level and format.
func (c *Command) Logger(cfg *config.Config) hclog.Logger {
	opts := cfg.LoggerOptions(c.Log.Name())
	if opts.Name == "" {
		opts.Name = "notion-relay"
	}
	c.Log = hclog.New(opts)
	return c.Log
}

// TaskService builds the task service for cfg along with the provider behind
// it.
func (c *Command) TaskService(cfg *config.Config, logger hclog.Logger) (*services.TaskService, tasks.Provider, error) {
	factory := c.NewProvider
	if factory == nil {
		factory = DefaultProvider
	}

	provider, err := factory(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating task provider: %w", err)
	}

	svc := services.NewTaskService(provider, cfg.Notion.DatabaseID,
		services.WithLogger(logger.Named("tasks")),
		services.WithLocation(cfg.Location()),
	)
	return svc, provider, nil
}

// DefaultProvider returns the Notion provider, or an empty in-memory
// provider in dev mode.
func DefaultProvider(cfg *config.Config, logger hclog.Logger) (tasks.Provider, error) {
	if cfg.DevMode {
		logger.Warn("dev mode enabled, tasks are kept in memory")
		return mock.NewFakeProvider(), nil
	}
	return notion.NewProvider(cfg.ProviderConfig(), logger.Named("notion"))
}
