package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/events"
	"github.com/marco/multiclass/internal/journal"
	"github.com/marco/multiclass/internal/media"
	"github.com/marco/multiclass/internal/metadata/nfo"
	"github.com/marco/multiclass/internal/notifications"
	"github.com/marco/multiclass/internal/plugin"
	"github.com/marco/multiclass/internal/scanner"
	"github.com/marco/multiclass/internal/transfer"
)

const (
	sourceNFO      = "NFO"
	sourceFilename = "filename"
	sourceMixed    = "NFO+filename"
)

// pipeline runs one source file through metadata resolution, the transfer
// event, the file operation and the journal.
type pipeline struct {
	library  config.Library
	mode     transfer.Mode
	plugin   *plugin.Plugin
	registry *events.Registry
	journal  journal.Journal
	parser   *nfo.Parser
	guard    *scanner.PathGuard
	dryRun   bool
	out      io.Writer
	logger   *slog.Logger

	outcomes sync.Map // event ID -> plugin.Outcome
}

type pipelineOptions struct {
	notifier notifications.Service
	journal  journal.Journal
	dryRun   bool
	out      io.Writer
	logger   *slog.Logger
}

func newPipeline(cfg *config.Config, opts pipelineOptions) (*pipeline, error) {
	mode, err := transfer.ParseMode(cfg.Library.TransferMode)
	if err != nil {
		return nil, err
	}
	if opts.journal == nil {
		opts.journal = journal.Nop{}
	}
	if opts.out == nil {
		opts.out = io.Discard
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.dryRun {
		// Nothing is transferred, so nothing is announced
		opts.notifier = nil
	}

	p := &pipeline{
		library:  cfg.Library,
		mode:     mode,
		registry: events.NewRegistry(),
		journal:  opts.journal,
		parser:   nfo.NewParser(),
		guard:    scanner.NewPathGuard(),
		dryRun:   opts.dryRun,
		out:      opts.out,
		logger:   opts.logger.With("component", "pipeline"),
	}
	p.plugin = plugin.New(cfg.Plugin,
		plugin.WithNotifier(opts.notifier),
		plugin.WithLogger(opts.logger),
		plugin.WithObserver(func(evt *events.TransferRenameEvent, outcome plugin.Outcome) {
			p.outcomes.Store(evt.ID, outcome)
		}),
	)
	p.plugin.Register(p.registry)
	return p, nil
}

// process implements scanner.ProcessFunc.
func (p *pipeline) process(ctx context.Context, file scanner.FileInfo) (string, string, error) {
	item, source := p.resolve(file)
	proposed := filepath.Join(p.library.TargetDir, file.FileName)

	evt := events.NewTransferRename(item, proposed)
	p.registry.Dispatch(ctx, evt)

	var outcome plugin.Outcome
	if v, ok := p.outcomes.LoadAndDelete(evt.ID); ok {
		outcome = v.(plugin.Outcome)
	}

	finalPath := evt.Path
	if !p.guard.TryClaim(finalPath) {
		return source, finalPath, fmt.Errorf("%s: destination %s already claimed by another file in this run", file.FileName, finalPath)
	}

	if p.dryRun {
		fmt.Fprintf(p.out, "%s -> %s [%s]\n", file.Path, finalPath, describeOutcome(outcome))
		return source, finalPath, nil
	}

	entry := journal.Entry{
		ID:           evt.ID,
		SourcePath:   file.Path,
		OriginalPath: proposed,
		FinalPath:    finalPath,
		Title:        item.DisplayTitle(),
		State:        string(plugin.StateSkipped),
		Reason:       outcome.Reason,
		Rewritten:    outcome.Rewritten(),
	}

	if outcome.Rewritten() {
		entry.State = string(plugin.StateRewritten)
	}

	transferErr := transfer.Transfer(p.mode, file.Path, finalPath)
	if transferErr != nil {
		entry.State = "failed"
		entry.Reason = transferErr.Error()
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		p.logger.Warn("failed to record journal entry", "file", file.FileName, "error", err)
	}
	if transferErr != nil {
		p.guard.Release(finalPath)
		return source, finalPath, fmt.Errorf("transfer %s: %w", file.FileName, transferErr)
	}

	p.logger.Info("file transferred",
		"file", file.FileName,
		"mode", string(p.mode),
		"destination", finalPath,
		"reclassified", outcome.Rewritten(),
	)
	return source, finalPath, nil
}

// resolve prefers the .nfo sidecar and fills its gaps from the filename.
func (p *pipeline) resolve(file scanner.FileInfo) (*media.Item, string) {
	fromName := &media.Item{
		Type:  media.TypeMovie,
		Title: file.Title,
		Year:  file.Year,
	}
	if !p.library.UseNFO {
		return fromName, sourceFilename
	}

	item, err := p.parser.GetItemFromNFO(file.Path)
	if err != nil {
		if !errors.Is(err, nfo.ErrNotFound) {
			p.logger.Warn("unreadable nfo, using filename", "file", file.FileName, "error", err)
		} else {
			p.logger.Debug("metadata lookup", "file", file.FileName, "nfo_status", "not_found")
		}
		return fromName, sourceFilename
	}

	source := sourceNFO
	if item.Title == "" && item.OriginalTitle == "" {
		item.Title = file.Title
		source = sourceMixed
	}
	if item.Year == 0 && file.Year > 0 {
		item.Year = file.Year
		source = sourceMixed
	}
	p.logger.Debug("metadata lookup",
		"file", file.FileName,
		"source", source,
		"title", item.Title,
		"year", item.Year,
		"rating", item.Rating,
		"collection", item.Collection,
	)
	return item, source
}

func describeOutcome(o plugin.Outcome) string {
	if o.Rewritten() {
		return "reclassified"
	}
	if o.Reason != "" {
		return "unchanged: " + o.Reason
	}
	return "unchanged"
}
