// Package source supplies the race records the chart is drawn from.
//
// A [DataSource] resolves once per call to the complete, ordered record
// sequence or to an error. Nothing is drawn before Fetch returns.
//
//	src := source.NewHTTP(source.DefaultURL, source.WithCache(c, cache.TTLDataset))
//	records, err := src.Fetch(ctx)
//
// [HTTPSource] fetches the dataset over HTTP with a timeout, bounded retry
// on transient failures and an optional response cache. [FileSource] reads
// a local JSON file. [Static] serves an in-memory slice.
package source

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/matzehuels/dopingplot/pkg/dataset"
)

// DefaultURL is the published cyclist dataset.
const DefaultURL = "https://raw.githubusercontent.com/freeCodeCamp/ProjectReferenceData/master/cyclist-data.json"

var (
	// ErrNotFound is returned when the dataset does not exist at its location.
	ErrNotFound = stderrors.New("dataset not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = stderrors.New("network error")
)

// DataSource supplies the record sequence.
type DataSource interface {
	// Fetch returns every record in dataset order.
	Fetch(ctx context.Context) ([]dataset.Record, error)

	// Location describes where records come from (a URL or a path).
	Location() string
}

// CacheReporter is implemented by sources that can report whether the last
// answer was served from their cache.
type CacheReporter interface {
	FetchWithCacheInfo(ctx context.Context) ([]dataset.Record, bool, error)
}

// New returns an HTTP source for http(s) locations and a file source for
// everything else. Options only apply to HTTP sources.
func New(location string, opts ...HTTPOption) DataSource {
	if location == "" {
		location = DefaultURL
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTP(location, opts...)
	}
	return NewFile(strings.TrimPrefix(location, "file://"))
}

// Static is a DataSource over a fixed slice.
type Static []dataset.Record

// Fetch returns a copy of the records.
func (s Static) Fetch(ctx context.Context) ([]dataset.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]dataset.Record{}, s...), nil
}

// Location implements [DataSource].
func (Static) Location() string { return "memory" }
