package source

import (
	"context"

	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
)

// FileSource reads records from a local JSON file.
type FileSource struct {
	path string
}

// NewFile creates a file source.
func NewFile(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch implements [DataSource].
func (s *FileSource) Fetch(ctx context.Context) ([]dataset.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := dataset.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, err, "read dataset")
	}
	return records, nil
}

// Location implements [DataSource].
func (s *FileSource) Location() string { return s.path }
