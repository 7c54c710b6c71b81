package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marco/multiclass/internal/classify"
	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/events"
	"github.com/marco/multiclass/internal/media"
	"github.com/marco/multiclass/internal/notifications"
	"github.com/marco/multiclass/internal/plugin"
)

type classifyOptions struct {
	path    string
	title   string
	year    int
	score   float64
	series  string
	kind    string
	rules   []string
	explain bool
	notify  bool
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var opts classifyOptions

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the reclassified destination for one media item",
		Example: `  multiclass classify --path "/library/Movie (2015).mkv" --year 2015 --score 8.2 --rules year,score
  multiclass classify --path "/library/The Matrix.mkv" --series Matrix --score 8 --rules series,score`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			settings, err := classifySettings(cfg.Plugin, opts.rules)
			if err != nil {
				return err
			}
			settings.Notify = settings.Notify && opts.notify

			var outcome plugin.Outcome
			p := plugin.New(settings,
				plugin.WithNotifier(notifications.NewService(cfg.Notifications)),
				plugin.WithLogger(ctx.loggerValue()),
				plugin.WithObserver(func(_ *events.TransferRenameEvent, o plugin.Outcome) { outcome = o }),
			)
			registry := events.NewRegistry()
			p.Register(registry)

			evt := events.NewTransferRename(opts.item(), opts.path)
			registry.Dispatch(cmd.Context(), evt)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, evt.Path)
			if opts.explain {
				fmt.Fprintf(out, "trace:    %s\n", outcome)
				if outcome.Reason != "" {
					fmt.Fprintf(out, "reason:   %s\n", outcome.Reason)
				}
				for _, seg := range outcome.Segments {
					fmt.Fprintf(out, "segment:  %s=%s\n", seg.Axis, seg)
				}
				fmt.Fprintf(out, "updated:  %v\n", evt.Updated)
				if evt.Source != "" {
					fmt.Fprintf(out, "source:   %s\n", evt.Source)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "", "Proposed destination path")
	cmd.Flags().StringVar(&opts.title, "title", "", "Media title")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Release year (0 = unknown)")
	cmd.Flags().Float64Var(&opts.score, "score", 0, "Aggregate rating 0-10 (0 = unknown)")
	cmd.Flags().StringVar(&opts.series, "series", "", "Series or collection name")
	cmd.Flags().StringVar(&opts.kind, "type", string(media.TypeMovie), "Media type (movie or tv)")
	cmd.Flags().StringSliceVar(&opts.rules, "rules", nil, "Enable the plugin with only these axes (year, score, series)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Print the state trace and produced segments")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "Send the completion notification when plugin.notify is on")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (o classifyOptions) item() *media.Item {
	return &media.Item{
		Type:       media.ParseType(o.kind),
		Title:      o.title,
		Year:       o.year,
		Rating:     o.score,
		Collection: o.series,
	}
}

// classifySettings applies --rules on top of the configured switches.
func classifySettings(base config.Plugin, rules []string) (config.Plugin, error) {
	if len(rules) == 0 {
		return base, nil
	}
	settings := base
	settings.Enabled = true
	settings.YearClass, settings.ScoreClass, settings.SeriesClass = false, false, false
	for _, rule := range rules {
		switch classify.Axis(strings.ToLower(strings.TrimSpace(rule))) {
		case classify.AxisYear:
			settings.YearClass = true
		case classify.AxisScore:
			settings.ScoreClass = true
		case classify.AxisSeries:
			settings.SeriesClass = true
		case "":
		default:
			return settings, fmt.Errorf("unknown rule %q (expected year, score or series)", rule)
		}
	}
	return settings, nil
}
