package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/marco/multiclass/internal/classify"
	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/events"
	"github.com/marco/multiclass/internal/logging"
	"github.com/marco/multiclass/internal/notifications"
)

// SourceName is written to TransferRenameEvent.Source on rewrite.
const SourceName = "MultiClass"

// ObserverFunc receives every handled event together with its outcome.
type ObserverFunc func(evt *events.TransferRenameEvent, outcome Outcome)

// Option configures a Plugin.
type Option func(*Plugin)

// WithNotifier sets the notification service. The default is a no-op.
func WithNotifier(n notifications.Service) Option {
	return func(p *Plugin) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) {
		p.logger = logging.Component(logger, "multiclass")
	}
}

// WithObserver registers a callback invoked after each event reaches Done.
func WithObserver(fn ObserverFunc) Option {
	return func(p *Plugin) {
		p.observer = fn
	}
}

// Plugin is the transfer event adapter.
type Plugin struct {
	settings atomic.Pointer[config.Plugin]
	notifier notifications.Service
	logger   *slog.Logger
	observer ObserverFunc
	classify func(classify.Attributes, classify.Config, string) classify.Result
}

// New creates a plugin with an initial settings snapshot.
func New(settings config.Plugin, opts ...Option) *Plugin {
	p := &Plugin{
		notifier: notifications.NewService(config.Notifications{}),
		logger:   logging.Component(nil, "multiclass"),
		classify: classify.Classify,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reload(settings)
	return p
}

// Reload swaps in a new settings snapshot. Events already in flight keep
// the snapshot they started with.
func (p *Plugin) Reload(settings config.Plugin) {
	snapshot := settings
	p.settings.Store(&snapshot)
	p.logger.Info("plugin settings loaded",
		"enabled", settings.Enabled,
		"notify", settings.Notify,
		"year_class", settings.YearClass,
		"score_class", settings.ScoreClass,
		"series_class", settings.SeriesClass,
	)
}

// Settings returns the current snapshot.
func (p *Plugin) Settings() config.Plugin {
	return *p.settings.Load()
}

// Enabled reports whether the current snapshot is enabled.
func (p *Plugin) Enabled() bool {
	return p.settings.Load().Enabled
}

// Register subscribes the plugin to transfer rename events.
func (p *Plugin) Register(r *events.Registry) {
	events.On(r, events.TransferRename, func(ctx context.Context, evt *events.TransferRenameEvent) {
		p.HandleTransferRename(ctx, evt)
	})
}

// HandleTransferRename runs one event through the state machine. It never
// fails: every error leaves the event untouched and is reported only in
// logs and in the returned Outcome.
func (p *Plugin) HandleTransferRename(ctx context.Context, evt *events.TransferRenameEvent) (outcome Outcome) {
	settings := p.settings.Load()
	outcome.enter(StateReceived)
	defer func() {
		outcome.enter(StateDone)
		if p.observer != nil && evt != nil {
			p.observer(evt, outcome)
		}
	}()

	logger := p.logger
	if evt != nil {
		logger = logger.With("event_id", evt.ID, "path", evt.Path)
		outcome.Original = evt.Path
		outcome.Path = evt.Path
	}
	logger.Debug("multi-class classification triggered")

	if reason := validate(settings, evt); reason != "" {
		outcome.skip(reason)
		if reason == ReasonDisabled {
			logger.Debug("reclassification skipped", "reason", reason)
		} else {
			logger.Warn("reclassification skipped", "reason", reason)
		}
		return outcome
	}
	outcome.enter(StateValidated)

	attrs, ok := classify.Extract(evt.Item)
	if !ok {
		outcome.skip(ReasonNotApplicable)
		logger.Debug("reclassification skipped", "reason", ReasonNotApplicable, "media_type", string(evt.Item.Type))
		return outcome
	}

	result, err := p.safeClassify(attrs, settings.Rules(), evt.Path)
	if err != nil {
		outcome.skip(ReasonUnexpectedFailure)
		logger.Error("reclassification failed; keeping original path",
			"error", err,
			"title", evt.Item.Title,
			"year", attrs.Year,
			"score", attrs.Score,
			"series", attrs.SeriesName,
		)
		return outcome
	}
	outcome.enter(StateClassified)
	outcome.Segments = result.Segments

	if !result.Changed() {
		outcome.skip(ReasonNoSegments)
		logger.Debug("reclassification skipped", "reason", ReasonNoSegments)
		return outcome
	}

	evt.Path = result.Path
	evt.Updated = true
	evt.Source = SourceName
	outcome.Path = result.Path
	outcome.enter(StateRewritten)
	logger.Info("path reclassified",
		"title", evt.Item.Title,
		"segments", segmentNames(result.Segments),
		"final_path", result.Path,
	)

	if settings.Notify {
		if err := p.notify(ctx, evt); err != nil {
			logger.Warn("reclassification notifier failed", "error", err)
		} else {
			outcome.enter(StateNotified)
		}
	}
	return outcome
}

func validate(settings *config.Plugin, evt *events.TransferRenameEvent) string {
	if settings == nil || !settings.Enabled {
		return ReasonDisabled
	}
	if evt == nil || evt.Item == nil {
		return ReasonMalformedEvent
	}
	if !usablePath(evt.Path) {
		return ReasonMissingPath
	}
	return ""
}

func usablePath(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	if strings.HasSuffix(path, string(os.PathSeparator)) || strings.HasSuffix(path, "/") {
		return false
	}
	switch filepath.Base(path) {
	case ".", "..", string(os.PathSeparator):
		return false
	}
	return true
}

func (p *Plugin) safeClassify(attrs classify.Attributes, cfg classify.Config, path string) (result classify.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classification panicked: %v", r)
		}
	}()
	return p.classify(attrs, cfg, path), nil
}

func (p *Plugin) notify(ctx context.Context, evt *events.TransferRenameEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return p.notifier.NotifyReclassified(ctx, evt.Item.DisplayTitle(), evt.Path)
}

func segmentNames(segments []classify.Segment) []string {
	names := make([]string, len(segments))
	for i, seg := range segments {
		names[i] = seg.String()
	}
	return names
}
