package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/logging"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

// ensureConfig loads the configuration once. Without --config a missing
// default file falls back to built-in defaults.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		explicit := c.configFlag != nil && strings.TrimSpace(*c.configFlag) != ""
		path := config.DefaultPath()
		if explicit {
			path = strings.TrimSpace(*c.configFlag)
		}
		expanded, err := config.ExpandPath(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.configPath = expanded

		cfg, err := config.Load(expanded)
		if err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				c.configErr = err
				return
			}
			if cfg, err = config.Parse(nil, "yaml"); err != nil {
				c.configErr = err
				return
			}
			c.configPath = ""
		}

		opts := logging.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level}
		if c.verbose != nil && *c.verbose {
			opts.Level = "debug"
		}
		logger, err := logging.New(cmd.ErrOrStderr(), opts)
		if err != nil {
			c.configErr = fmt.Errorf("configure logging: %w", err)
			return
		}
		slog.SetDefault(logger)
		c.logger = logger
		c.config = cfg

		if c.configPath == "" {
			logger.Debug("no configuration file found, using defaults", "path", expanded)
		} else {
			logger.Debug("configuration loaded", "path", c.configPath)
		}
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerValue() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}
