// Package annotation draws the non-data parts of the chart: titles, the
// y-axis caption, the legend and the empty and error state messages.
package annotation

import (
	"fmt"

	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
)

const (
	DefaultTitle  = "Doping in Professional Bicycle Racing"
	DefaultYLabel = "Time in Minutes"

	LabelDoping = "Riders with doping allegations"
	LabelClean  = "No doping allegations"
)

// legend geometry
const (
	legendOffsetX = 20
	legendOffsetY = 20
	legendWidth   = 210
	legendRow     = 20
	swatchSize    = 12
)

// Subtitle returns the default subtitle for n records.
func Subtitle(n int) string {
	return fmt.Sprintf("%d Fastest times up Alpe d'Huez", n)
}

// Entry is one legend row.
type Entry struct {
	Class string // category class of the marks it explains
	Color string
	Label string
}

// Options controls annotation text and legend content.
type Options struct {
	Title    string
	Subtitle string
	YLabel   string
	Legend   []Entry
}

// Draw replaces the annotation and legend regions of s.
func Draw(s *surface.Surface, frame scale.Frame, opts Options) {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	ylabel := opts.YLabel
	if ylabel == "" {
		ylabel = DefaultYLabel
	}

	els := Titles(frame, title, opts.Subtitle)
	els = append(els, YCaption(frame, ylabel))
	s.Replace(surface.RegionAnnotations, els...)

	if len(opts.Legend) == 0 {
		s.Clear(surface.RegionLegend)
		return
	}
	s.Replace(surface.RegionLegend, Legend(frame, opts.Legend))
}

// Titles returns the centered title and, if set, the subtitle below it.
func Titles(frame scale.Frame, title, subtitle string) []*surface.Element {
	cx := frame.Width / 2
	els := []*surface.Element{
		surface.New("text").
			Set("id", "title").
			SetNum("x", cx).
			SetNum("y", frame.PlotTop()*0.4).
			Set("text-anchor", "middle").
			Set("font-size", "24").
			Set("font-family", "sans-serif").
			Text(title),
	}
	if subtitle != "" {
		els = append(els, surface.New("text").
			Set("id", "subtitle").
			SetNum("x", cx).
			SetNum("y", frame.PlotTop()*0.7).
			Set("text-anchor", "middle").
			Set("font-size", "16").
			Set("font-family", "sans-serif").
			Text(subtitle))
	}
	return els
}

// YCaption returns the y-axis caption rotated to read bottom to top,
// centered on the plot area and set against the left margin.
func YCaption(frame scale.Frame, text string) *surface.Element {
	mid := (frame.PlotTop() + frame.PlotBottom()) / 2
	return surface.New("text").
		Set("id", "y-axis-label").
		Set("transform", "rotate(-90)").
		SetNum("x", -mid).
		SetNum("y", frame.PlotLeft()/4).
		Set("dy", "0.71em").
		Set("text-anchor", "middle").
		Set("font-size", "14").
		Set("font-family", "sans-serif").
		Text(text)
}

// Legend returns a bordered box with one swatch and label per entry,
// anchored at a fixed offset inside the top-right corner of the plot area.
func Legend(frame scale.Frame, entries []Entry) *surface.Element {
	x := frame.PlotRight() - legendOffsetX - legendWidth
	y := frame.PlotTop() + legendOffsetY
	height := float64(len(entries)*legendRow + 10)

	g := surface.New("g").
		Set("id", "legend").
		Set("transform", fmt.Sprintf("translate(%s,%s)", surface.Num(x), surface.Num(y))).
		Set("font-size", "12").
		Set("font-family", "sans-serif")
	g.Append(surface.New("rect").
		Set("class", "legend-box").
		Set("width", surface.Num(legendWidth)).
		Set("height", surface.Num(height)).
		Set("fill", "#fff").
		Set("stroke", "#333"))

	for i, e := range entries {
		row := float64(5 + i*legendRow)
		g.Append(surface.New("g").
			Set("class", "legend-item "+e.Class).
			Set("transform", fmt.Sprintf("translate(8,%s)", surface.Num(row))).
			Append(
				surface.New("rect").
					Set("class", "swatch").
					Set("width", surface.Num(swatchSize)).
					Set("height", surface.Num(swatchSize)).
					Set("y", "2").
					Set("fill", e.Color),
				surface.New("text").
					Set("x", surface.Num(swatchSize+8)).
					Set("y", "8").
					Set("dy", "0.32em").
					Text(e.Label),
			))
	}
	return g
}

// EmptyState returns the message shown when there is nothing to plot.
func EmptyState(frame scale.Frame) *surface.Element {
	return state(frame, "empty-state", "No race records to display", "#555")
}

// ErrorState returns a visible error message for a failed draw.
func ErrorState(frame scale.Frame, msg string) *surface.Element {
	return state(frame, "error-state", "Could not load race data: "+msg, "#b00020")
}

func state(frame scale.Frame, id, msg, color string) *surface.Element {
	return surface.New("text").
		Set("id", id).
		Set("class", "state").
		SetNum("x", frame.Width/2).
		SetNum("y", frame.Height/2).
		Set("text-anchor", "middle").
		Set("font-size", "16").
		Set("font-family", "sans-serif").
		Set("fill", color).
		Text(msg)
}
