// Package chart draws the doping scatter plot onto a surface.
//
// [Draw] is the single entry point of the rendering pipeline. Given the
// complete record set it builds the scales, then draws the axes, the marks
// and the annotations in that order. Every step replaces the surface region
// it owns, so drawing twice onto the same surface yields the same document
// as drawing once.
//
//	s := surface.NewSurface(900, 550)
//	res, err := chart.Draw(s, records, chart.DefaultConfig(), nil)
//	if err != nil {
//	    // EMPTY_DATASET, INVALID_TIME or INVALID_CONFIG
//	}
//	s.WriteSVG(w)
//
// Sub-packages hold the pieces: [scale], [axis], [mark], [annotation],
// [tooltip] and [surface].
package chart

import (
	"time"

	"github.com/matzehuels/dopingplot/pkg/chart/annotation"
	"github.com/matzehuels/dopingplot/pkg/chart/axis"
	"github.com/matzehuels/dopingplot/pkg/chart/mark"
	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/chart/tooltip"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
)

// Config controls the layout and look of a chart.
type Config struct {
	Frame    scale.Frame
	Window   scale.Window
	Ticks    int
	Style    mark.Style
	Title    string
	Subtitle string // defaults to a count of the plotted records
	YLabel   string
	Policy   mark.Policy
	OnSkip   func(dataset.Issue)
}

// DefaultConfig returns the standard 900x550 chart with a 36:00 to 40:00
// visible time window.
func DefaultConfig() Config {
	return Config{
		Frame: scale.Frame{
			Width:  900,
			Height: 550,
			Margin: scale.Margin{Top: 100, Right: 40, Bottom: 40, Left: 60},
		},
		Window: scale.Window{Lower: 36 * 60, Upper: 40 * 60},
		Ticks:  axis.DefaultTicks,
		Style:  mark.DefaultStyle,
		Title:  annotation.DefaultTitle,
		YLabel: annotation.DefaultYLabel,
		Policy: mark.PolicyAbort,
	}
}

// Result describes what a successful draw put on the surface.
type Result struct {
	Scales  scale.Set
	XAxis   axis.Axis
	YAxis   axis.Axis
	Marks   []mark.Mark
	Skipped []dataset.Issue
}

// Draw renders records onto s.
//
// An empty record set clears the data regions, shows the empty-state message
// and returns an EMPTY_DATASET error. When a record fails to parse under
// [mark.PolicyAbort], Draw returns the error and leaves s untouched. The
// optional tip receives hover events from the returned marks.
func Draw(s *surface.Surface, records []dataset.Record, cfg Config, tip tooltip.Controller) (Result, error) {
	cfg = withDefaults(cfg)

	set, err := scale.Build(records, cfg.Frame, cfg.Window)
	if err != nil {
		if errors.Is(err, errors.ErrCodeEmptyDataset) {
			drawEmpty(s, cfg)
		}
		return Result{}, err
	}

	res := Result{
		Scales: set,
		XAxis:  axis.NewBottom(set.X, cfg.Frame, cfg.Ticks),
		YAxis:  axis.NewLeft(set.Y, cfg.Frame, cfg.Ticks),
	}

	renderer := mark.New(set,
		mark.WithStyle(cfg.Style),
		mark.WithTooltip(tip),
		mark.WithPolicy(cfg.Policy),
		mark.WithSkipHandler(func(is dataset.Issue) {
			res.Skipped = append(res.Skipped, is)
			if cfg.OnSkip != nil {
				cfg.OnSkip(is)
			}
		}),
	)
	if res.Marks, err = renderer.Build(records); err != nil {
		return Result{}, err
	}

	s.Clear(surface.RegionState)
	s.Replace(surface.RegionXAxis, res.XAxis.Elements())
	s.Replace(surface.RegionYAxis, res.YAxis.Elements())
	s.Replace(surface.RegionMarks, renderer.Group(res.Marks))
	annotation.Draw(s, cfg.Frame, annotation.Options{
		Title:    cfg.Title,
		Subtitle: subtitle(cfg, len(res.Marks)),
		YLabel:   cfg.YLabel,
		Legend:   legend(cfg.Style),
	})
	tooltip.Install(s)
	return res, nil
}

// DrawError replaces the chart with a visible error message for err.
// The title stays so the page is still recognizable.
func DrawError(s *surface.Surface, cfg Config, err error) {
	cfg = withDefaults(cfg)
	clearData(s)
	annotation.Draw(s, cfg.Frame, annotation.Options{Title: cfg.Title, YLabel: cfg.YLabel})
	s.Replace(surface.RegionState, annotation.ErrorState(cfg.Frame, errors.UserMessage(err)))
}

func drawEmpty(s *surface.Surface, cfg Config) {
	clearData(s)
	annotation.Draw(s, cfg.Frame, annotation.Options{Title: cfg.Title, YLabel: cfg.YLabel})
	s.Replace(surface.RegionState, annotation.EmptyState(cfg.Frame))
}

func clearData(s *surface.Surface) {
	s.Clear(surface.RegionXAxis)
	s.Clear(surface.RegionYAxis)
	s.Clear(surface.RegionMarks)
	s.Clear(surface.RegionLegend)
}

func subtitle(cfg Config, n int) string {
	if cfg.Subtitle != "" {
		return cfg.Subtitle
	}
	return annotation.Subtitle(n)
}

func legend(st mark.Style) []annotation.Entry {
	return []annotation.Entry{
		{Class: string(dataset.CategoryDoping), Color: st.DopingColor, Label: annotation.LabelDoping},
		{Class: string(dataset.CategoryClean), Color: st.CleanColor, Label: annotation.LabelClean},
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Frame.Width == 0 && cfg.Frame.Height == 0 {
		cfg.Frame = def.Frame
	}
	if cfg.Window == (scale.Window{}) {
		cfg.Window = def.Window
	}
	if cfg.Ticks <= 0 {
		cfg.Ticks = def.Ticks
	}
	if cfg.Style.Radius <= 0 {
		cfg.Style.Radius = def.Style.Radius
	}
	if cfg.Style.DopingColor == "" {
		cfg.Style.DopingColor = def.Style.DopingColor
	}
	if cfg.Style.CleanColor == "" {
		cfg.Style.CleanColor = def.Style.CleanColor
	}
	if cfg.Style.Stroke == "" {
		cfg.Style.Stroke = def.Style.Stroke
	}
	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}
	return cfg
}

// Layout is the machine-readable description of a drawn chart.
type Layout struct {
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Margin  scale.Margin    `json:"margin"`
	XDomain [2]time.Time    `json:"x_domain"`
	YDomain [2]float64      `json:"y_domain"`
	XAxis   axis.Axis       `json:"x_axis"`
	YAxis   axis.Axis       `json:"y_axis"`
	Marks   []mark.Mark     `json:"marks"`
	Skipped []int           `json:"skipped,omitempty"`
	Stats   dataset.Stats   `json:"stats"`
	Tooltip tooltipMetadata `json:"tooltip"`
}

type tooltipMetadata struct {
	Opacity      float64 `json:"opacity"`
	TransitionMS int64   `json:"transition_ms"`
	OffsetX      float64 `json:"offset_x"`
	OffsetY      float64 `json:"offset_y"`
}

// Layout describes r for export. Stats are computed over the plotted marks.
func (r Result) Layout(cfg Config) Layout {
	cfg = withDefaults(cfg)
	x0, x1 := r.Scales.X.Domain()
	y0, y1 := r.Scales.Y.Domain()

	plotted := make([]dataset.Record, len(r.Marks))
	for i, m := range r.Marks {
		plotted[i] = m.Record
	}
	var skipped []int
	for _, is := range r.Skipped {
		skipped = append(skipped, is.Index)
	}
	return Layout{
		Width:   cfg.Frame.Width,
		Height:  cfg.Frame.Height,
		Margin:  cfg.Frame.Margin,
		XDomain: [2]time.Time{x0, x1},
		YDomain: [2]float64{y0, y1},
		XAxis:   r.XAxis,
		YAxis:   r.YAxis,
		Marks:   r.Marks,
		Skipped: skipped,
		Stats:   dataset.Summarize(plotted),
		Tooltip: tooltipMetadata{
			Opacity:      tooltip.Opacity,
			TransitionMS: tooltip.Transition.Milliseconds(),
			OffsetX:      tooltip.OffsetX,
			OffsetY:      tooltip.OffsetY,
		},
	}
}
