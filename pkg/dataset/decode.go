package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/dopingplot/pkg/errors"
)

// Decode reads a JSON array of records from r.
// A JSON null decodes to an empty, non-nil slice.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode records")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// ReadFile decodes the records stored at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes records as an indented JSON array.
func Encode(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Issue describes a problem with a single record.
type Issue struct {
	Index  int    // position in the input slice
	Record Record // the offending record
	Err    error  // coded error describing the problem
}

func (i Issue) Error() string {
	return fmt.Sprintf("record %d (%s, %d): %v", i.Index, i.Record.Name, i.Record.Year, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// Validate checks every record and returns one Issue per invalid record.
//
// A record is invalid when its Time does not parse, when its Year is not
// positive, or when a non-zero Seconds field disagrees with the parsed Time.
func Validate(records []Record) []Issue {
	var issues []Issue
	for i, r := range records {
		if err := check(r); err != nil {
			issues = append(issues, Issue{Index: i, Record: r, Err: err})
		}
	}
	return issues
}

func check(r Record) error {
	secs, err := ParseSeconds(r.Time)
	if err != nil {
		return err
	}
	if r.Year <= 0 {
		return errors.New(errors.ErrCodeInvalidRecord, "year %d is not a calendar year", r.Year)
	}
	if r.Seconds != 0 && r.Seconds != secs {
		return errors.New(errors.ErrCodeInvalidRecord, "seconds %d disagree with time %q", r.Seconds, r.Time)
	}
	return nil
}
