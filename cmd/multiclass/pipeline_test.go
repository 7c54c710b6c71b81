package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/journal"
	"github.com/marco/multiclass/internal/logging"
)

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) NotifyReclassified(context.Context, string, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}

func (n *countingNotifier) TestNotification(context.Context) error { return nil }

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Plugin = config.Plugin{Enabled: true, YearClass: true, ScoreClass: true, SeriesClass: true}
	cfg.Library.SourceDirs = []string{filepath.Join(dir, "incoming")}
	cfg.Library.TargetDir = filepath.Join(dir, "library")
	cfg.Library.TransferMode = "copy"
	cfg.Library.Workers = 2
	cfg.Journal.Path = filepath.Join(dir, "state", "journal.db")
	return &cfg
}

func seedSources(t *testing.T, dir string) {
	t.Helper()
	incoming := filepath.Join(dir, "incoming")
	writeFile(t, filepath.Join(incoming, "Movie (2015).mkv"), "a")
	writeFile(t, filepath.Join(incoming, "Movie (2015).nfo"),
		`<movie><title>Movie</title><year>2015</year><rating>8.2</rating></movie>`)
	writeFile(t, filepath.Join(incoming, "matrix", "The.Matrix.1999.1080p.mkv"), "b")
	writeFile(t, filepath.Join(incoming, "matrix", "movie.nfo"),
		`<movie><title>The Matrix</title><rating>8.7</rating><set><name>Matrix</name></set></movie>`)
	writeFile(t, filepath.Join(incoming, "plain.mkv"), "c")
	writeFile(t, filepath.Join(incoming, "show", "Dark.S01E01.mkv"), "d")
	writeFile(t, filepath.Join(incoming, "show", "Dark.S01E01.nfo"),
		`<episodedetails><title>Secrets</title><aired>2017-12-01</aired><rating>8.8</rating></episodedetails>`)
}

func TestRunOrganizeReclassifiesAndJournals(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	seedSources(t, dir)

	store, err := journal.OpenSQLite(cfg.Journal.Path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	p, err := newPipeline(cfg, pipelineOptions{journal: store, logger: logging.Discard()})
	if err != nil {
		t.Fatalf("newPipeline: %v", err)
	}

	results := runOrganize(context.Background(), cfg, p, logging.Discard(), nil)
	if results.TotalFiles != 4 || results.ErrorCount != 0 || results.SuccessCount != 4 {
		t.Fatalf("unexpected results %+v", results)
	}
	if results.NFOCount != 2 || results.MixedCount != 1 || results.FilenameCount != 1 {
		t.Errorf("unexpected metadata source counts %+v", results)
	}

	library := cfg.Library.TargetDir
	expected := []string{
		filepath.Join(library, "2010s", "高分", "Movie (2015).mkv"),
		filepath.Join(library, "series", "Matrix", "1990s", "The.Matrix.1999.1080p.mkv"),
		filepath.Join(library, "plain.mkv"),
		filepath.Join(library, "Dark.S01E01.mkv"),
	}
	for _, path := range expected {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	}

	entries, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("journal has %d entries, want 4", len(entries))
	}
	rewritten := 0
	for _, e := range entries {
		if e.Rewritten {
			rewritten++
			if e.State != "rewritten" {
				t.Errorf("rewritten entry state = %q", e.State)
			}
		}
		if strings.Contains(e.FinalPath, "Dark.S01E01") && e.Reason != "not_applicable" {
			t.Errorf("tv entry reason = %q", e.Reason)
		}
	}
	if rewritten != 2 {
		t.Errorf("rewritten entries = %d, want 2", rewritten)
	}
}

func TestRunOrganizeDryRunLeavesFilesAlone(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	seedSources(t, dir)

	var out bytes.Buffer
	p, err := newPipeline(cfg, pipelineOptions{dryRun: true, out: &out, logger: logging.Discard()})
	if err != nil {
		t.Fatalf("newPipeline: %v", err)
	}

	results := runOrganize(context.Background(), cfg, p, logging.Discard(), nil)
	if results.ErrorCount != 0 {
		t.Fatalf("unexpected errors %+v", results)
	}
	if _, err := os.Stat(cfg.Library.TargetDir); !os.IsNotExist(err) {
		t.Errorf("dry run created the library: %v", err)
	}
	want := filepath.Join(cfg.Library.TargetDir, "2010s", "高分", "Movie (2015).mkv") + " [reclassified]"
	if !strings.Contains(out.String(), want) {
		t.Errorf("dry run output missing %q:\n%s", want, out.String())
	}
}

func TestRunOrganizeDryRunSendsNoNotifications(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Plugin.Notify = true
	seedSources(t, dir)

	notifier := &countingNotifier{}
	p, err := newPipeline(cfg, pipelineOptions{notifier: notifier, dryRun: true, logger: logging.Discard()})
	if err != nil {
		t.Fatalf("newPipeline: %v", err)
	}

	results := runOrganize(context.Background(), cfg, p, logging.Discard(), nil)
	if results.ErrorCount != 0 {
		t.Fatalf("unexpected errors %+v", results)
	}
	if got := notifier.count(); got != 0 {
		t.Errorf("dry run sent %d notifications, want 0", got)
	}
}

func TestRunOrganizeNotifiesReclassifiedFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Plugin.Notify = true
	seedSources(t, dir)

	notifier := &countingNotifier{}
	p, err := newPipeline(cfg, pipelineOptions{notifier: notifier, logger: logging.Discard()})
	if err != nil {
		t.Fatalf("newPipeline: %v", err)
	}

	results := runOrganize(context.Background(), cfg, p, logging.Discard(), nil)
	if results.ErrorCount != 0 {
		t.Fatalf("unexpected errors %+v", results)
	}
	if got := notifier.count(); got != 2 {
		t.Errorf("notifications = %d, want 2", got)
	}
}

func TestPipelineRejectsDuplicateDestinations(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Library.SourceDirs = []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}
	writeFile(t, filepath.Join(dir, "a", "Heat.1995.mkv"), "a")
	writeFile(t, filepath.Join(dir, "b", "Heat.1995.mkv"), "b")

	p, err := newPipeline(cfg, pipelineOptions{logger: logging.Discard()})
	if err != nil {
		t.Fatalf("newPipeline: %v", err)
	}
	results := runOrganize(context.Background(), cfg, p, logging.Discard(), nil)
	if results.SuccessCount != 1 || results.ErrorCount != 1 {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestClassifySettings(t *testing.T) {
	base := config.Plugin{Enabled: false, Notify: true, YearClass: true}

	got, err := classifySettings(base, nil)
	if err != nil || got != base {
		t.Fatalf("classifySettings without rules = %+v, %v", got, err)
	}

	got, err = classifySettings(base, []string{"Score", " series "})
	if err != nil {
		t.Fatalf("classifySettings: %v", err)
	}
	want := config.Plugin{Enabled: true, Notify: true, ScoreClass: true, SeriesClass: true}
	if got != want {
		t.Errorf("classifySettings = %+v, want %+v", got, want)
	}

	if _, err := classifySettings(base, []string{"genre"}); err == nil {
		t.Error("expected error for unknown rule")
	}
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, "plugin:\n  enabled: false\nlogging:\n  level: error\n")

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "year and score",
			args: []string{"classify", "--path", "/library/Movie (2015).mkv", "--year", "2015", "--score", "8.2", "--rules", "year,score"},
			want: "/library/2010s/高分/Movie (2015).mkv",
		},
		{
			name: "series suppresses score",
			args: []string{"classify", "--path", "/library/The Matrix.mkv", "--series", "Matrix", "--score", "8", "--rules", "series,score"},
			want: "/library/series/Matrix/The Matrix.mkv",
		},
		{
			name: "disabled plugin keeps path",
			args: []string{"classify", "--path", "/library/Movie (2015).mkv", "--year", "2015"},
			want: "/library/Movie (2015).mkv",
		},
		{
			name: "tv passes through",
			args: []string{"classify", "--path", "/tv/Dark.mkv", "--year", "2017", "--type", "tv", "--rules", "year"},
			want: "/tv/Dark.mkv",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := newRootCommand()
			var out, errOut bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&errOut)
			cmd.SetArgs(append([]string{"--config", configPath}, tc.args...))

			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v (stderr: %s)", err, errOut.String())
			}
			if got := strings.TrimSpace(out.String()); got != tc.want {
				t.Errorf("output = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyCommandNotifiesOnlyWhenAsked(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, "plugin:\n  notify: true\nnotifications:\n  ntfy_topic: "+server.URL+"\nlogging:\n  level: error\n")

	testCases := []struct {
		name  string
		extra []string
		want  int32
	}{
		{"preview only", nil, 0},
		{"explicit notify", []string{"--notify"}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			atomic.StoreInt32(&requests, 0)
			cmd := newRootCommand()
			var out, errOut bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&errOut)
			args := []string{"--config", configPath, "classify", "--path", "/library/Heat.mkv", "--year", "1995", "--rules", "year"}
			cmd.SetArgs(append(args, tc.extra...))

			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v (stderr: %s)", err, errOut.String())
			}
			if got := strings.TrimSpace(out.String()); got != "/library/1990s/Heat.mkv" {
				t.Errorf("output = %q", got)
			}
			if got := atomic.LoadInt32(&requests); got != tc.want {
				t.Errorf("ntfy requests = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestConfigSchemaCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "schema"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"model: enabled", "启用插件", "按照年代分类", "note:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("schema output missing %q:\n%s", want, out.String())
		}
	}
}

func TestHistoryRows(t *testing.T) {
	headers, rows := historyRows([]journal.Entry{
		{Title: "Movie (2015)", State: "rewritten", Rewritten: true, FinalPath: "/library/2010s/高分/Movie (2015).mkv"},
		{Title: "Plain", State: "skipped", Reason: "no_segments", FinalPath: "/library/plain.mkv"},
	})
	if len(headers) != 5 || len(rows) != 2 {
		t.Fatalf("unexpected shape %v %v", headers, rows)
	}
	if rows[0][3] != "reclassified" || rows[1][3] != "no_segments" {
		t.Errorf("unexpected reasons %q %q", rows[0][3], rows[1][3])
	}
	csv := renderCSV(headers, rows)
	if !strings.HasPrefix(strings.ToLower(csv), "time,title,state,reason,destination") {
		t.Errorf("unexpected csv header:\n%s", csv)
	}
}
