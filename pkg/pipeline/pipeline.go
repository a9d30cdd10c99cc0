// Package pipeline runs the complete fetch → draw → export pipeline.
//
// The CLI and the HTTP server both go through a [Runner] so that caching,
// logging and observability behave the same everywhere.
//
// # Stages
//
//  1. Fetch: load the race records from a URL or a local file
//  2. Draw: build scales, axes, marks and annotations on a fresh surface
//  3. Export: serialize the surface (SVG, HTML, PNG, PDF) or its layout (JSON)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  source.DefaultURL,
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatJSON},
//	})
//	if err != nil {
//	    // FETCH_FAILED still carries error-state artifacts
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Stages can also run on their own:
//
//	records, hit, err := runner.Fetch(ctx, opts)
//	artifacts, res, hit, err := runner.Render(ctx, records, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dopingplot/pkg/cache"
	"github.com/matzehuels/dopingplot/pkg/chart"
	"github.com/matzehuels/dopingplot/pkg/chart/mark"
	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/chart/tooltip"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/source"
)

// DefaultPNGScale is the resolution multiplier for PNG exports.
const DefaultPNGScale = 2.0

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatHTML: true,
	FormatJSON: true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, html, json, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures one pipeline run.
type Options struct {
	// Source is a URL or file path. Empty means [source.DefaultURL].
	Source string `json:"source,omitempty"`

	// Formats to export. Empty means SVG only.
	Formats []string `json:"formats,omitempty"`

	// Chart controls layout and styling. Zero fields take chart defaults.
	Chart chart.Config `json:"-"`

	// PNGScale multiplies the PNG resolution. Zero means DefaultPNGScale.
	PNGScale float64 `json:"png_scale,omitempty"`

	// Refresh bypasses the dataset and artifact caches.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	DataSource source.DataSource  `json:"-"` // overrides Source
	Tooltip    tooltip.Controller `json:"-"`
	Logger     *log.Logger        `json:"-"`
}

// SetDefaults fills in zero values.
func (o *Options) SetDefaults() {
	if o.Source == "" {
		o.Source = source.DefaultURL
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	switch o.Chart.Policy {
	case "", mark.PolicyAbort, mark.PolicySkip:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid record policy %q", o.Chart.Policy)
	}
	return nil
}

// chartKey is the hashable part of a chart configuration.
type chartKey struct {
	Frame    scale.Frame  `json:"frame"`
	Window   scale.Window `json:"window"`
	Ticks    int          `json:"ticks"`
	Style    mark.Style   `json:"style"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	YLabel   string       `json:"ylabel"`
	Policy   mark.Policy  `json:"policy"`
	PNGScale float64      `json:"png_scale,omitempty"`
}

// ArtifactKeyOpts returns cache key options for one exported format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	c := o.Chart
	k := chartKey{
		Frame:    c.Frame,
		Window:   c.Window,
		Ticks:    c.Ticks,
		Style:    c.Style,
		Title:    c.Title,
		Subtitle: c.Subtitle,
		YLabel:   c.YLabel,
		Policy:   c.Policy,
	}
	if format == FormatPNG {
		k.PNGScale = o.PNGScale
	}
	return cache.ArtifactKeyOpts{Format: format, Chart: k}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and response headers.
	RunID string

	// Records is the fetched dataset.
	Records []dataset.Record

	// DatasetHash is the content hash of the dataset.
	DatasetHash string

	// Chart describes what was drawn. Zero when the draw failed.
	Chart chart.Result

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Records    int
	Doping     int
	Clean      int
	Skipped    int
	FetchTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FetchHit  bool // dataset came from cache
	RenderHit bool // every artifact came from cache
}
