// Package axis builds tick generators bound to chart scales.
//
// An [Axis] is a pure value: its orientation, the translation of its group,
// the line it spans and its ticks with formatted labels. Building an axis has
// no side effects; [Axis.Elements] turns it into surface elements.
package axis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/dataset"
)

// DefaultTicks is the target tick count for both axes.
const DefaultTicks = 10

// tickSize is the length of tick marks in pixels.
const tickSize = 6

// Orient is the side of the plot an axis is drawn on.
type Orient string

const (
	Bottom Orient = "bottom"
	Left   Orient = "left"
)

// Tick is a single labeled position along an axis.
type Tick struct {
	Value float64 `json:"value"` // domain value (unix seconds for time axes)
	Pos   float64 `json:"pos"`   // pixel offset along the axis
	Label string  `json:"label"`
}

// Axis is a renderable axis group.
type Axis struct {
	ID         string  `json:"id"`
	Orient     Orient  `json:"orient"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Start      float64 `json:"start"` // range start along the axis
	End        float64 `json:"end"`   // range end along the axis
	Ticks      []Tick  `json:"ticks"`
}

// NewBottom builds the x-axis: ticks at round years labeled as 4-digit years,
// translated to the bottom edge of the plot area.
func NewBottom(x scale.Time, frame scale.Frame, count int) Axis {
	r0, r1 := x.Range()
	a := Axis{
		ID:         "x-axis",
		Orient:     Bottom,
		TranslateY: frame.PlotBottom(),
		Start:      r0,
		End:        r1,
	}
	for _, t := range x.Ticks(count) {
		a.Ticks = append(a.Ticks, Tick{
			Value: float64(t.Unix()),
			Pos:   x.Map(t),
			Label: FormatYear(t),
		})
	}
	return a
}

// NewLeft builds the y-axis: ticks at round seconds labeled "m:ss",
// translated to the left edge of the plot area.
func NewLeft(y scale.Linear, frame scale.Frame, count int) Axis {
	r0, r1 := y.Range()
	a := Axis{
		ID:         "y-axis",
		Orient:     Left,
		TranslateX: frame.PlotLeft(),
		Start:      r0,
		End:        r1,
	}
	for _, v := range y.Ticks(count) {
		a.Ticks = append(a.Ticks, Tick{
			Value: v,
			Pos:   y.Map(v),
			Label: dataset.FormatSeconds(int(v)),
		})
	}
	return a
}

// FormatYear formats t as a 4-digit year.
func FormatYear(t time.Time) string {
	return fmt.Sprintf("%04d", t.Year())
}

// Elements returns the axis as a surface group: the domain path, then one
// group per tick with its line and label.
func (a Axis) Elements() *surface.Element {
	g := surface.New("g").
		Set("id", a.ID).
		Set("class", "axis axis-"+string(a.Orient)).
		Set("transform", fmt.Sprintf("translate(%s,%s)", surface.Num(a.TranslateX), surface.Num(a.TranslateY))).
		Set("fill", "none").
		Set("font-size", "10").
		Set("font-family", "sans-serif")

	switch a.Orient {
	case Bottom:
		g.Set("text-anchor", "middle")
		g.Append(surface.New("path").
			Set("class", "domain").
			Set("stroke", "currentColor").
			Set("d", fmt.Sprintf("M%s,%dV0H%sV%d", surface.Num(a.Start), tickSize, surface.Num(a.End), tickSize)))
	case Left:
		g.Set("text-anchor", "end")
		g.Append(surface.New("path").
			Set("class", "domain").
			Set("stroke", "currentColor").
			Set("d", fmt.Sprintf("M-%d,%sH0V%sH-%d", tickSize, surface.Num(a.Start), surface.Num(a.End), tickSize)))
	}

	for _, t := range a.Ticks {
		g.Append(a.tick(t))
	}
	return g
}

func (a Axis) tick(t Tick) *surface.Element {
	line := surface.New("line").Set("stroke", "currentColor")
	text := surface.New("text").Set("fill", "currentColor").Text(t.Label)
	tg := surface.New("g").Set("class", "tick").Set("opacity", "1")

	if a.Orient == Bottom {
		tg.Set("transform", fmt.Sprintf("translate(%s,0)", surface.Num(t.Pos)))
		line.Set("y2", strconv.Itoa(tickSize))
		text.Set("y", strconv.Itoa(tickSize+3)).Set("dy", "0.71em")
	} else {
		tg.Set("transform", fmt.Sprintf("translate(0,%s)", surface.Num(t.Pos)))
		line.Set("x2", strconv.Itoa(-tickSize))
		text.Set("x", strconv.Itoa(-(tickSize+3))).Set("dy", "0.32em")
	}
	return tg.Append(line, text)
}
