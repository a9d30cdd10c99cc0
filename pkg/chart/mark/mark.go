// Package mark projects race records onto the chart as circular marks.
package mark

import (
	"fmt"
	"strconv"
	"time"

	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/chart/tooltip"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
)

// Policy decides what happens to a record whose time does not parse.
type Policy string

const (
	// PolicyAbort stops the draw on the first malformed record.
	PolicyAbort Policy = "abort"
	// PolicySkip drops malformed records and reports them to the skip handler.
	PolicySkip Policy = "skip"
)

// Style controls how marks look.
type Style struct {
	Radius      float64 `toml:"radius"`
	DopingColor string  `toml:"doping_color"`
	CleanColor  string  `toml:"clean_color"`
	Stroke      string  `toml:"stroke"`
}

// DefaultStyle is a 5px marker with orange/blue fills.
var DefaultStyle = Style{
	Radius:      5,
	DopingColor: "#e4572e",
	CleanColor:  "#2e86ab",
	Stroke:      "#222",
}

// Fill returns the fill color for category c.
func (s Style) Fill(c dataset.Category) string {
	if c == dataset.CategoryDoping {
		return s.DopingColor
	}
	return s.CleanColor
}

// Mark is one plotted record. Marks are values; a redraw builds new ones.
type Mark struct {
	Index    int              `json:"index"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	Category dataset.Category `json:"category"`
	Year     int              `json:"year"`
	Seconds  int              `json:"seconds"`
	Record   dataset.Record   `json:"record"`

	tip tooltip.Controller
}

// XValue is the machine-readable x value (the year).
func (m Mark) XValue() string { return strconv.Itoa(m.Year) }

// YValue is the machine-readable y value: the race time as a timestamp.
func (m Mark) YValue() string { return dataset.Timestamp(m.Seconds).Format(time.RFC3339) }

// Tooltip returns the text shown while the mark is hovered.
func (m Mark) Tooltip() string { return tooltip.Content(m.Record) }

// Enter reports the pointer entering the mark at p.
func (m Mark) Enter(p tooltip.Point) {
	if m.tip != nil {
		m.tip.Show(m.Tooltip(), p)
	}
}

// Over reports the pointer moving over the mark.
func (m Mark) Over(p tooltip.Point) {
	if m.tip != nil {
		m.tip.Move(p)
	}
}

// Leave reports the pointer leaving the mark.
func (m Mark) Leave() {
	if m.tip != nil {
		m.tip.Hide()
	}
}

// Element renders m as a circle. Records with a URL are wrapped in a link.
func (m Mark) Element(style Style) *surface.Element {
	c := surface.New("circle").
		Set("class", "dot "+string(m.Category)).
		SetNum("cx", m.X).
		SetNum("cy", m.Y).
		SetNum("r", style.Radius).
		Set("fill", style.Fill(m.Category)).
		Set("stroke", style.Stroke).
		Set("data-xvalue", m.XValue()).
		Set("data-yvalue", m.YValue()).
		Set(tooltip.DataAttr, m.Tooltip())
	if m.Record.URL == "" {
		return c
	}
	return surface.New("a").
		Set("href", m.Record.URL).
		Set("target", "_blank").
		Set("rel", "noopener").
		Append(c)
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithStyle sets the mark style.
func WithStyle(s Style) Option { return func(r *Renderer) { r.style = s } }

// WithTooltip injects the controller marks report hover events to.
func WithTooltip(c tooltip.Controller) Option { return func(r *Renderer) { r.tip = c } }

// WithPolicy sets the malformed-record policy.
func WithPolicy(p Policy) Option { return func(r *Renderer) { r.policy = p } }

// WithSkipHandler is called for every record dropped under [PolicySkip].
func WithSkipHandler(fn func(dataset.Issue)) Option { return func(r *Renderer) { r.onSkip = fn } }

// Renderer builds marks for a scale set.
type Renderer struct {
	scales scale.Set
	style  Style
	tip    tooltip.Controller
	policy Policy
	onSkip func(dataset.Issue)
}

// New creates a renderer bound to scales.
func New(scales scale.Set, opts ...Option) *Renderer {
	r := &Renderer{scales: scales, style: DefaultStyle, policy: PolicyAbort}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build projects records into marks, preserving input order.
//
// Under [PolicyAbort] the first record whose time fails to parse aborts the
// build with an INVALID_TIME error naming the record. Under [PolicySkip]
// such records are left out and passed to the skip handler.
func (r *Renderer) Build(records []dataset.Record) ([]Mark, error) {
	marks := make([]Mark, 0, len(records))
	for i, rec := range records {
		secs, err := dataset.ParseSeconds(rec.Time)
		if err != nil {
			issue := dataset.Issue{Index: i, Record: rec, Err: err}
			if r.policy == PolicySkip {
				if r.onSkip != nil {
					r.onSkip(issue)
				}
				continue
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidTime, issue, "cannot plot record %d", i)
		}
		marks = append(marks, Mark{
			Index:    i,
			X:        r.scales.X.MapYear(rec.Year),
			Y:        r.scales.Y.Map(float64(secs)),
			Category: rec.Category(),
			Year:     rec.Year,
			Seconds:  secs,
			Record:   rec,
			tip:      r.tip,
		})
	}
	return marks, nil
}

// Elements renders marks with the renderer's style.
func (r *Renderer) Elements(marks []Mark) []*surface.Element {
	els := make([]*surface.Element, len(marks))
	for i, m := range marks {
		els[i] = m.Element(r.style)
	}
	return els
}

// Group wraps rendered marks in the group that owns them.
func (r *Renderer) Group(marks []Mark) *surface.Element {
	return surface.New("g").
		Set("id", "marks").
		Set("class", "marks").
		Append(r.Elements(marks)...)
}

// At returns the mark nearest to (x, y) within the marker radius.
func At(marks []Mark, x, y, radius float64) (Mark, bool) {
	best, found := Mark{}, false
	bestD := radius * radius
	for _, m := range marks {
		dx, dy := m.X-x, m.Y-y
		if d := dx*dx + dy*dy; d <= bestD {
			best, bestD, found = m, d, true
		}
	}
	return best, found
}

// String implements fmt.Stringer for debug logging.
func (m Mark) String() string {
	return fmt.Sprintf("%s %d %s (%.1f,%.1f)", m.Record.Name, m.Year, dataset.FormatSeconds(m.Seconds), m.X, m.Y)
}
