package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dopingplot/pkg/cache"
	"github.com/matzehuels/dopingplot/pkg/chart"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/observability"
	"github.com/matzehuels/dopingplot/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options; every
// render draws onto its own surface.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// HTTPOptions are applied to every HTTP source the runner creates.
	HTTPOptions []source.HTTPOption

	// DatasetTTL bounds how long fetched records stay cached.
	// Zero means cache.TTLDataset.
	DatasetTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs fetch → draw → export.
//
// When the fetch fails, the chart's error state is exported instead and the
// FETCH_FAILED error is returned together with the result, so callers can
// still serve or write the artifacts.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID)
	opts.Logger = logger

	// Stage 1: Fetch
	fetchStart := time.Now()
	records, fetchHit, err := r.Fetch(ctx, opts)
	result.Stats.FetchTime = time.Since(fetchStart)
	result.CacheInfo.FetchHit = fetchHit
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, errors.ErrCodeFetchFailed) {
			err = errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch %s", opts.Source)
		}
		logger.Error("fetch failed", "source", opts.Source, "err", err)
		result.Artifacts = r.RenderError(ctx, err, opts)
		return result, err
	}
	result.Records = records
	result.DatasetHash = datasetHash(records)

	logger.Info("fetched dataset",
		"records", len(records),
		"cached", fetchHit,
		"duration", result.Stats.FetchTime)

	// Stage 2+3: Draw and export
	renderStart := time.Now()
	artifacts, res, renderHit, err := r.Render(ctx, records, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	result.Artifacts = artifacts
	result.Chart = res
	result.CacheInfo.RenderHit = renderHit
	result.Stats.Records = len(records)
	result.Stats.Skipped = len(res.Skipped)
	for _, m := range res.Marks {
		if m.Record.HasAllegation() {
			result.Stats.Doping++
		} else {
			result.Stats.Clean++
		}
	}
	if err != nil {
		return result, err
	}

	logger.Info("rendered chart",
		"marks", len(res.Marks),
		"skipped", len(res.Skipped),
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Fetch loads the dataset and reports whether it came from the cache.
func (r *Runner) Fetch(ctx context.Context, opts Options) ([]dataset.Record, bool, error) {
	opts.SetDefaults()
	src := r.source(opts)

	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, src.Location())
	start := time.Now()

	var (
		records []dataset.Record
		hit     bool
		err     error
	)
	if cr, ok := src.(source.CacheReporter); ok {
		records, hit, err = cr.FetchWithCacheInfo(ctx)
	} else {
		records, err = src.Fetch(ctx)
	}
	hooks.OnFetchComplete(ctx, src.Location(), len(records), time.Since(start), err)
	return records, hit, err
}

func (r *Runner) source(opts Options) source.DataSource {
	if opts.DataSource != nil {
		return opts.DataSource
	}
	httpOpts := append([]source.HTTPOption{
		source.WithCache(r.Cache, r.datasetTTL()),
		source.WithKeyer(r.Keyer),
	}, r.HTTPOptions...)
	httpOpts = append(httpOpts, source.WithRefresh(opts.Refresh))
	return source.New(opts.Source, httpOpts...)
}

// Render draws records and exports the requested formats.
//
// Each artifact is cached under the dataset hash and the chart options, and
// is served from the cache on the next identical render. The draw always
// runs, so the returned chart result is complete on cache hits too. An empty
// dataset exports the empty-state chart and returns EMPTY_DATASET.
func (r *Runner) Render(ctx context.Context, records []dataset.Record, opts Options) (map[string][]byte, chart.Result, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, chart.Result{}, false, err
	}
	r.applyLogger(&opts)
	if opts.Chart.OnSkip == nil {
		logger := opts.Logger
		opts.Chart.OnSkip = func(is dataset.Issue) {
			logger.Warn("skipping record", "index", is.Index, "name", is.Record.Name, "err", is.Err)
		}
	}

	hooks := observability.Pipeline()
	hooks.OnDrawStart(ctx, len(records))
	start := time.Now()
	s := newSurface(opts.Chart)
	res, drawErr := chart.Draw(s, records, opts.Chart, opts.Tooltip)
	hooks.OnDrawComplete(ctx, len(res.Marks), time.Since(start), drawErr)
	if drawErr != nil && !errors.Is(drawErr, errors.ErrCodeEmptyDataset) {
		return nil, chart.Result{}, false, drawErr
	}

	hash := datasetHash(records)
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true

	hooks.OnExportStart(ctx, opts.Formats)
	exportStart := time.Now()
	var exportErr error
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := export(s, res, opts, format)
		if err != nil {
			exportErr = err
			break
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	hooks.OnExportComplete(ctx, opts.Formats, time.Since(exportStart), exportErr)

	if exportErr != nil {
		return nil, res, false, exportErr
	}
	return artifacts, res, allCached, drawErr
}

// RenderError exports the chart's error state for err in every requested
// format that can be produced. Formats that fail are logged and omitted.
func (r *Runner) RenderError(ctx context.Context, err error, opts Options) map[string][]byte {
	opts.SetDefaults()
	r.applyLogger(&opts)

	s := newSurface(opts.Chart)
	chart.DrawError(s, opts.Chart, err)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, xerr := exportError(s, opts, format, err)
		if xerr != nil {
			opts.Logger.Warn("cannot export error state", "format", format, "err", xerr)
			continue
		}
		artifacts[format] = data
	}
	return artifacts
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func newSurface(cfg chart.Config) *surface.Surface {
	frame := cfg.Frame
	if frame.Width == 0 && frame.Height == 0 {
		frame = chart.DefaultConfig().Frame
	}
	return surface.NewSurface(frame.Width, frame.Height)
}

// datasetHash is the content hash of the canonical encoding of records.
func datasetHash(records []dataset.Record) string {
	var buf bytes.Buffer
	_ = dataset.Encode(&buf, records)
	return cache.Hash(buf.Bytes())
}

func (r *Runner) datasetTTL() time.Duration {
	if r.DatasetTTL > 0 {
		return r.DatasetTTL
	}
	return cache.TTLDataset
}
