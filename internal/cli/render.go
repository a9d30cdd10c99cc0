package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dopingplot/pkg/chart/mark"
	"github.com/matzehuels/dopingplot/pkg/config"
	"github.com/matzehuels/dopingplot/pkg/pipeline"
)

// defaultOutput is the base output path when -o is not given.
const defaultOutput = "dopingplot"

// renderOpts holds the command-line flags for the render command.
// Zero values leave the configured setting in place.
type renderOpts struct {
	output      string   // output file (single format) or base path (multiple)
	formats     []string // output formats: svg, html, json, png, pdf
	source      string   // dataset URL or file path
	width       float64  // frame width in pixels
	height      float64  // frame height in pixels
	visibleFrom string   // visible time range lower bound, "m:ss"
	visibleTo   string   // visible time range upper bound, "m:ss"
	title       string   // chart title
	onInvalid   string   // abort or skip unparseable records
	refresh     bool     // bypass the cache
	noCache     bool     // disable caching entirely
}

// renderCommand creates the render command for writing the chart to files.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the chart to SVG, HTML, JSON, PNG or PDF",
		Example: `  dopingplot render
  dopingplot render -f svg,json -o out/chart
  dopingplot render --source data/cyclist.json --on-invalid skip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(&cfg); err != nil {
				return err
			}
			return c.runRender(withLogger(cmd.Context(), c.Logger), cfg, &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	flags.StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), html, json, png, pdf (comma-separated)")
	flags.StringVarP(&opts.source, "source", "s", "", "dataset URL or file path")
	flags.Float64Var(&opts.width, "width", 0, "frame width")
	flags.Float64Var(&opts.height, "height", 0, "frame height")
	flags.StringVar(&opts.visibleFrom, "from", "", "lowest visible time, m:ss")
	flags.StringVar(&opts.visibleTo, "to", "", "highest visible time, m:ss")
	flags.StringVar(&opts.title, "title", "", "chart title")
	flags.StringVar(&opts.onInvalid, "on-invalid", "", "invalid record policy: abort (default), skip")
	flags.BoolVar(&opts.refresh, "refresh", false, "re-fetch the dataset and re-render, ignoring cached entries")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	formats := []string{pipeline.FormatSVG, pipeline.FormatHTML, pipeline.FormatJSON, pipeline.FormatPNG, pipeline.FormatPDF}
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(formats, cobra.ShellCompDirectiveNoFileComp))
	policies := []string{string(mark.PolicyAbort), string(mark.PolicySkip)}
	_ = cmd.RegisterFlagCompletionFunc("on-invalid", cobra.FixedCompletions(policies, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// apply overlays the flags that were set onto cfg and re-validates it.
func (o *renderOpts) apply(cfg *config.Config) error {
	if o.source != "" {
		cfg.Source.URL = o.source
	}
	if o.width > 0 {
		cfg.Chart.Width = o.width
	}
	if o.height > 0 {
		cfg.Chart.Height = o.height
	}
	if o.visibleFrom != "" {
		cfg.Chart.VisibleFrom = o.visibleFrom
	}
	if o.visibleTo != "" {
		cfg.Chart.VisibleTo = o.visibleTo
	}
	if o.title != "" {
		cfg.Chart.Title = o.title
	}
	if o.onInvalid != "" {
		cfg.Chart.OnInvalid = o.onInvalid
	}
	return cfg.Validate()
}

// runRender executes the pipeline and writes one file per format. On a fetch
// failure the error-state chart is still written before the error is returned.
func (c *CLI) runRender(ctx context.Context, cfg config.Config, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	chartCfg, err := cfg.ChartConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Fetching "+cfg.Source.URL+"...")
	spinner.Start()
	prog := newProgress(logger)
	result, runErr := runner.Execute(ctx, pipeline.Options{
		Source:  cfg.Source.URL,
		Formats: opts.formats,
		Chart:   chartCfg,
		Refresh: opts.refresh,
		Logger:  logger,
	})
	if runErr != nil && result != nil {
		spinner.StopWithError("Could not load race data, writing the error chart")
	} else {
		spinner.Stop()
	}
	if result == nil {
		return runErr
	}

	if runErr == nil {
		prog.done(fmt.Sprintf("Rendered %d records", result.Stats.Records))
		printSuccess("Rendered %d records", result.Stats.Records)
		printStats(result.Stats, result.CacheInfo.FetchHit)
		if result.Stats.Skipped > 0 && chartCfg.Policy == mark.PolicySkip {
			printWarning("Skipped %d invalid records", result.Stats.Skipped)
		}
	}

	paths, err := writeArtifacts(result.Artifacts, opts.formats, opts.output)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	return runErr
}

// writeArtifacts writes each artifact and returns the written paths in
// format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, output string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := outputPath(output, format, len(formats))
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, err
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath derives the file for format. A single format uses output as
// given when it has an extension; otherwise the format is appended to the
// base path.
func outputPath(output, format string, count int) string {
	if output == "" {
		return defaultOutput + "." + format
	}
	if count == 1 && filepath.Ext(output) != "" {
		return output
	}
	return basePath(output) + "." + format
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
