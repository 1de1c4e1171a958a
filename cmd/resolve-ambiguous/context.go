package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/config"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

type storeFactory func(cfg *config.Config, logger *slog.Logger) (calibre.Store, error)

func defaultStoreFactory(cfg *config.Config, logger *slog.Logger) (calibre.Store, error) {
	client, err := calibre.New(cfg.Calibre.Binary, cfg.Calibre.Library, cfg.Calibre.TimeoutSeconds, calibre.WithLogger(logger))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "calibre", "init", "", err)
	}
	return client, nil
}

type commandContext struct {
	configFlag *string
	newStore   storeFactory

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, factory storeFactory) *commandContext {
	if factory == nil {
		factory = defaultStoreFactory
	}
	return &commandContext{
		configFlag: configFlag,
		newStore:   factory,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	}
	if cfg.Logging.File != "" {
		opts.OutputPaths = []string{cfg.Logging.File}
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "logging", "init", "", err)
	}
	return logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
