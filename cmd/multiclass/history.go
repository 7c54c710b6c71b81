package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marco/multiclass/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently handled transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("the journal is disabled (journal.enabled: false)")
			}

			store, err := journal.OpenSQLite(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "table":
			case "csv":
			case "", "auto":
				format = "csv"
				if isTerminal(out) {
					format = "table"
				}
			default:
				return fmt.Errorf("unknown format %q (expected auto, table or csv)", format)
			}

			if len(entries) == 0 && format == "table" {
				fmt.Fprintln(out, "No transfers recorded yet")
				return nil
			}

			headers, rows := historyRows(entries)
			if format == "table" {
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
			} else {
				fmt.Fprintln(out, renderCSV(headers, rows))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 = all)")
	cmd.Flags().StringVar(&format, "format", "auto", "Output format: auto, table or csv")
	return cmd
}

func historyRows(entries []journal.Entry) ([]string, [][]string) {
	headers := []string{"Time", "Title", "State", "Reason", "Destination"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		reason := e.Reason
		if reason == "" && e.Rewritten {
			reason = "reclassified"
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Title,
			e.State,
			reason,
			e.FinalPath,
		})
	}
	return headers, rows
}
