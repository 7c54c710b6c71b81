package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/journal"
	"github.com/marco/multiclass/internal/notifications"
	"github.com/marco/multiclass/internal/plugin"
	"github.com/marco/multiclass/internal/scanner"
)

const configReloadDelay = 500 * time.Millisecond

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch source directories and organize new files as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateLibrary(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := ctx.loggerValue()
			lock, err := journal.AcquireLock(lockPath(cfg))
			if err != nil {
				return err
			}
			defer lock.Release()

			store, err := openJournal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := newPipeline(cfg, pipelineOptions{
				notifier: notifications.NewService(cfg.Notifications),
				journal:  store,
				out:      cmd.OutOrStdout(),
				logger:   logger,
			})
			if err != nil {
				return err
			}

			w, err := scanner.NewWatcher(scanner.WatcherConfig{
				Directories:   cfg.Library.SourceDirs,
				Extensions:    cfg.Library.Extensions,
				ExcludeDirs:   cfg.Library.ExcludeDirs,
				DebounceDelay: time.Duration(cfg.Watch.DebounceSeconds) * time.Second,
				Recursive:     cfg.Watch.Recursive,
				Logger:        logger,
			}, func(ctx context.Context, file scanner.FileInfo) error {
				_, _, err := p.process(ctx, file)
				return err
			})
			if err != nil {
				return err
			}
			if err := w.Start(runCtx); err != nil {
				return err
			}
			defer w.Stop()

			if ctx.configPath != "" {
				go watchConfigFile(runCtx, ctx.configPath, p.plugin, logger)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d source directories (Ctrl+C to stop)\n", len(cfg.Library.SourceDirs))
			<-runCtx.Done()
			logger.Info("shutting down watcher")
			return nil
		},
	}
}

// watchConfigFile reloads the plugin settings whenever the configuration
// file changes. Library and notification settings need a restart.
func watchConfigFile(ctx context.Context, path string, p *plugin.Plugin, logger *slog.Logger) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config reload disabled", "error", err)
		return
	}
	defer fsWatcher.Close()

	// Editors replace files on save, so watch the directory
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("config reload disabled", "path", path, "error", err)
		return
	}

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				reload = time.After(configReloadDelay)
			}
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)
		case <-reload:
			reload = nil
			cfg, err := config.Load(path)
			if err != nil {
				logger.Warn("config reload failed; keeping current settings", "path", path, "error", err)
				continue
			}
			p.Reload(cfg.Plugin)
		}
	}
}
