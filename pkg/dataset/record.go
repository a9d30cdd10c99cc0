// Package dataset defines the race record model plotted by dopingplot.
//
// A [Record] is one rider/year/time observation from the cyclist dataset,
// with an optional doping allegation. The package owns the two conversions
// the chart relies on: [ParseSeconds] turns the dataset's "m:ss" strings into
// elapsed seconds, and [FormatSeconds] turns seconds back into the canonical
// "m:ss" label used on the y-axis. The two are inverses for canonical input:
//
//	s, _ := dataset.ParseSeconds("36:05") // 2165
//	dataset.FormatSeconds(s)              // "36:05"
//
// Records are decoded with [Decode] or [ReadFile] and checked with
// [Validate]; none of these functions mutate the input slice.
package dataset

import (
	"strings"
	"time"
)

// Category tags a record by whether a doping allegation exists for it.
type Category string

const (
	// CategoryDoping marks records with a non-empty doping allegation.
	CategoryDoping Category = "doping"
	// CategoryClean marks records without an allegation.
	CategoryClean Category = "not-doping"
)

// Record is one rider/attempt from the dataset.
// Field names follow the upstream JSON document.
type Record struct {
	Year        int    `json:"Year"`
	Time        string `json:"Time"`
	Name        string `json:"Name"`
	Nationality string `json:"Nationality"`
	Doping      string `json:"Doping"`
	Place       int    `json:"Place,omitempty"`
	Seconds     int    `json:"Seconds,omitempty"`
	URL         string `json:"URL,omitempty"`
}

// Category returns [CategoryDoping] iff the record carries an allegation.
func (r Record) Category() Category {
	if r.HasAllegation() {
		return CategoryDoping
	}
	return CategoryClean
}

// HasAllegation reports whether the Doping field is non-blank.
func (r Record) HasAllegation() bool {
	return strings.TrimSpace(r.Doping) != ""
}

// Duration returns the parsed race time.
func (r Record) Duration() (time.Duration, error) {
	s, err := ParseSeconds(r.Time)
	if err != nil {
		return 0, err
	}
	return time.Duration(s) * time.Second, nil
}

// Stats summarizes a record set.
type Stats struct {
	Records int `json:"records"`
	Doping  int `json:"doping"`
	Clean   int `json:"clean"`
	MinYear int `json:"min_year,omitempty"`
	MaxYear int `json:"max_year,omitempty"`
}

// Summarize counts categories and the year extent of records.
func Summarize(records []Record) Stats {
	s := Stats{Records: len(records)}
	for i, r := range records {
		if r.HasAllegation() {
			s.Doping++
		} else {
			s.Clean++
		}
		if i == 0 || r.Year < s.MinYear {
			s.MinYear = r.Year
		}
		if i == 0 || r.Year > s.MaxYear {
			s.MaxYear = r.Year
		}
	}
	return s
}
