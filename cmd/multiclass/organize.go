package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/journal"
	"github.com/marco/multiclass/internal/notifications"
	"github.com/marco/multiclass/internal/scanner"
)

// organizeResults holds the outcome of an organize run
type organizeResults struct {
	TotalFiles    int
	SuccessCount  int
	ErrorCount    int
	NFOCount      int
	FilenameCount int
	MixedCount    int
	Duration      time.Duration
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Move source files into the library, reclassifying their destinations",
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
			var store journal.Journal = journal.Nop{}
			if !dryRun {
				lock, err := journal.AcquireLock(lockPath(cfg))
				if err != nil {
					return err
				}
				defer lock.Release()

				if store, err = openJournal(cfg); err != nil {
					return err
				}
				defer store.Close()
			}

			p, err := newPipeline(cfg, pipelineOptions{
				notifier: notifications.NewService(cfg.Notifications),
				journal:  store,
				dryRun:   dryRun,
				out:      cmd.OutOrStdout(),
				logger:   logger,
			})
			if err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if !dryRun && isTerminal(cmd.ErrOrStderr()) {
				bar = progressbar.NewOptions64(-1,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("organizing"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			results := runOrganize(runCtx, cfg, p, logger, bar)
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d files: %d ok, %d failed (%s)\n",
				results.TotalFiles, results.SuccessCount, results.ErrorCount, results.Duration.Round(time.Millisecond))
			if results.ErrorCount > 0 {
				return fmt.Errorf("%d of %d files failed", results.ErrorCount, results.TotalFiles)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the destinations without moving anything")
	return cmd
}

// runOrganize scans the source directories and processes every file
// concurrently. Progress goes to bar when one is given, to the log otherwise.
func runOrganize(ctx context.Context, cfg *config.Config, p *pipeline, logger *slog.Logger, bar *progressbar.ProgressBar) *organizeResults {
	startTime := time.Now()
	results := &organizeResults{}

	s := scanner.New(cfg.Library.Extensions, cfg.Library.ExcludeDirs, logger)

	logger.Info("scanning directories for video files", "count", len(cfg.Library.SourceDirs))
	files, err := s.ScanAll(cfg.Library.SourceDirs)
	if err != nil {
		logger.Error("failed to scan directories", "error", err)
		results.ErrorCount++
		return results
	}
	results.TotalFiles = len(files)

	if len(files) == 0 {
		logger.Info("no files to process")
		results.Duration = time.Since(startTime)
		return results
	}
	logger.Info("processing files", "count", len(files), "workers", cfg.Library.Workers)

	// Progress reporter
	var processedCount int64
	totalFiles := int64(len(files))
	interval := 2 * time.Second
	if bar != nil {
		bar.ChangeMax64(totalFiles)
		interval = 200 * time.Millisecond
	}
	progressCtx, stopProgress := context.WithCancel(ctx)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				current := atomic.LoadInt64(&processedCount)
				if bar != nil {
					_ = bar.Set64(current)
				} else if current > 0 && current < totalFiles {
					logger.Info("progress", "processed", current, "total", totalFiles,
						"percent", fmt.Sprintf("%.0f%%", float64(current)/float64(totalFiles)*100))
				}
			case <-progressCtx.Done():
				return
			}
		}
	}()

	processResults := scanner.ProcessFilesConcurrently(ctx, files, p.process, cfg.Library.Workers, &processedCount)

	stopProgress()
	<-progressDone
	if bar != nil {
		_ = bar.Set64(atomic.LoadInt64(&processedCount))
		_ = bar.Finish()
	}

	for _, r := range processResults {
		if r.Err != nil {
			logger.Error("failed to process file", "filename", r.File.FileName, "error", r.Err)
			results.ErrorCount++
			continue
		}
		results.SuccessCount++
		switch r.MetadataSource {
		case sourceNFO:
			results.NFOCount++
		case sourceFilename:
			results.FilenameCount++
		case sourceMixed:
			results.MixedCount++
		}
	}

	results.Duration = time.Since(startTime)
	logger.Info("organize complete",
		"total_files", results.TotalFiles,
		"successful", results.SuccessCount,
		"errors", results.ErrorCount,
		"nfo_count", results.NFOCount,
		"filename_count", results.FilenameCount,
		"mixed_count", results.MixedCount,
		"duration_sec", results.Duration.Seconds(),
	)
	return results
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return journal.Nop{}, nil
	}
	store, err := journal.OpenSQLite(cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func lockPath(cfg *config.Config) string {
	if cfg.Journal.Path != "" {
		return journal.LockPath(cfg.Journal.Path)
	}
	return filepath.Join(cfg.Library.TargetDir, ".multiclass.lock")
}
