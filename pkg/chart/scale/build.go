package scale

import (
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
)

// Margin is the space between the frame edge and the plot area, in pixels.
type Margin struct {
	Top    float64 `toml:"top" json:"top"`
	Right  float64 `toml:"right" json:"right"`
	Bottom float64 `toml:"bottom" json:"bottom"`
	Left   float64 `toml:"left" json:"left"`
}

// Frame is the fixed drawing area.
type Frame struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	Margin Margin  `toml:"margin" json:"margin"`
}

// PlotLeft is the x coordinate of the plot area's left edge.
func (f Frame) PlotLeft() float64 { return f.Margin.Left }

// PlotRight is the x coordinate of the plot area's right edge.
func (f Frame) PlotRight() float64 { return f.Width - f.Margin.Right }

// PlotTop is the y coordinate of the plot area's top edge.
func (f Frame) PlotTop() float64 { return f.Margin.Top }

// PlotBottom is the y coordinate of the plot area's bottom edge.
func (f Frame) PlotBottom() float64 { return f.Height - f.Margin.Bottom }

// Validate rejects frames whose plot area has no extent.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "frame %gx%g must be positive", f.Width, f.Height)
	}
	if f.PlotRight() <= f.PlotLeft() || f.PlotBottom() <= f.PlotTop() {
		return errors.New(errors.ErrCodeInvalidConfig, "margins leave no room for the plot area")
	}
	return nil
}

// Window is the visible y interval in elapsed seconds.
type Window struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// Validate rejects empty or inverted windows.
func (w Window) Validate() error {
	if w.Lower < 0 || w.Upper <= w.Lower {
		return errors.New(errors.ErrCodeInvalidConfig, "visible time range [%s, %s] is empty",
			dataset.FormatSeconds(w.Lower), dataset.FormatSeconds(w.Upper))
	}
	return nil
}

// Set holds the x and y scales of one chart.
type Set struct {
	X Time
	Y Linear
}

// Build derives the chart scales for records.
//
// X spans January 1st of the year before the earliest record through January
// 1st of the year after the latest one, so no mark sits on the axis. Y maps
// the window's lower bound to the top of the plot area and the upper bound
// to the bottom. Records are not parsed here; an empty slice returns an
// EMPTY_DATASET error instead of a degenerate scale.
func Build(records []dataset.Record, frame Frame, window Window) (Set, error) {
	if len(records) == 0 {
		return Set{}, errors.New(errors.ErrCodeEmptyDataset, "no records to plot")
	}
	if err := frame.Validate(); err != nil {
		return Set{}, err
	}
	if err := window.Validate(); err != nil {
		return Set{}, err
	}

	minYear, maxYear := records[0].Year, records[0].Year
	for _, r := range records[1:] {
		minYear = min(minYear, r.Year)
		maxYear = max(maxYear, r.Year)
	}

	return Set{
		X: NewTime(
			dataset.YearStart(minYear-1),
			dataset.YearStart(maxYear+1),
			frame.PlotLeft(), frame.PlotRight(),
		),
		Y: NewLinear(
			float64(window.Lower), float64(window.Upper),
			frame.PlotTop(), frame.PlotBottom(),
		),
	}, nil
}
