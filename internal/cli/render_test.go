package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dopingplot/pkg/config"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,json,png", []string{"svg", "json", "png"}},
		{"spaces trimmed", "svg, html", []string{"svg", "html"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid html", []string{"html"}, false},
		{"valid all", []string{"svg", "html", "json", "png", "pdf"}, false},
		{"invalid format", []string{"invalid"}, true},
		{"mixed valid invalid", []string{"svg", "invalid"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.ValidateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output string
		format string
		count  int
		want   string
	}{
		{"", "svg", 1, "dopingplot.svg"},
		{"", "json", 2, "dopingplot.json"},
		{"chart.svg", "svg", 1, "chart.svg"},
		{"chart.svg", "json", 2, "chart.json"},
		{"out/chart", "png", 2, "out/chart.png"},
		{"out/chart", "svg", 1, "out/chart.svg"},
		{"chart.v2", "svg", 2, "chart.v2.svg"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.format, tt.count); got != tt.want {
			t.Errorf("outputPath(%q, %q, %d) = %q, want %q", tt.output, tt.format, tt.count, got, tt.want)
		}
	}
}

func TestRenderOptsApply(t *testing.T) {
	cfg := config.Default()
	opts := renderOpts{source: "data.json", width: 1000, visibleFrom: "35:00", onInvalid: "skip"}
	if err := opts.apply(&cfg); err != nil {
		t.Fatalf("apply() error: %v", err)
	}
	if cfg.Source.URL != "data.json" || cfg.Chart.Width != 1000 || cfg.Chart.VisibleFrom != "35:00" || cfg.Chart.OnInvalid != "skip" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Chart.Height != config.Default().Chart.Height {
		t.Error("unset flags should keep configured values")
	}

	bad := renderOpts{visibleTo: "30:00"}
	if err := bad.apply(&cfg); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("inverted window error = %v", err)
	}
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cyclist.json")
	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	if err := dataset.Encode(f, exploreRecords); err != nil {
		t.Fatal(err)
	}
	f.Close()

	c := &CLI{Logger: log.NewWithOptions(io.Discard, log.Options{})}
	cfg := config.Default()
	cfg.Source.URL = input
	cfg.Cache.Backend = config.BackendNone

	opts := &renderOpts{output: filepath.Join(dir, "out", "chart"), formats: []string{"svg", "json"}}
	if err := c.runRender(withLogger(context.Background(), c.Logger), cfg, opts); err != nil {
		t.Fatalf("runRender() error: %v", err)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "out", "chart.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`class="dot doping"`)) {
		t.Error("svg should contain doping marks")
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "chart.json")); err != nil {
		t.Errorf("json layout not written: %v", err)
	}
}

func TestRunRenderFetchFailureWritesErrorState(t *testing.T) {
	dir := t.TempDir()
	c := &CLI{Logger: log.NewWithOptions(io.Discard, log.Options{})}
	cfg := config.Default()
	cfg.Source.URL = filepath.Join(dir, "missing.json")
	cfg.Cache.Backend = config.BackendNone

	output := filepath.Join(dir, "chart.svg")
	err := c.runRender(context.Background(), cfg, &renderOpts{output: output, formats: []string{"svg"}})
	if !errors.Is(err, errors.ErrCodeFetchFailed) {
		t.Fatalf("error = %v, want FETCH_FAILED", err)
	}
	svg, rerr := os.ReadFile(output)
	if rerr != nil {
		t.Fatalf("error state not written: %v", rerr)
	}
	if !bytes.Contains(svg, []byte(`id="error-state"`)) {
		t.Error("written chart should show the error state")
	}
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := map[string]bool{"render": false, "serve": false, "explore": false, "config": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %s command", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}
