package surface

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Region identifies a part of the surface owned by one renderer.
type Region string

const (
	RegionStyle       Region = "style"
	RegionXAxis       Region = "x-axis"
	RegionYAxis       Region = "y-axis"
	RegionMarks       Region = "marks"
	RegionAnnotations Region = "annotations"
	RegionLegend      Region = "legend"
	RegionState       Region = "state"
	RegionTooltip     Region = "tooltip"
	RegionScript      Region = "script"
)

// regionOrder is the paint order. Later regions draw on top.
var regionOrder = []Region{
	RegionStyle,
	RegionXAxis,
	RegionYAxis,
	RegionMarks,
	RegionAnnotations,
	RegionLegend,
	RegionState,
	RegionTooltip,
	RegionScript,
}

// Surface is a fixed-size drawing canvas. The zero value is an empty 0x0
// surface ready to draw on.
//
// A Surface is not safe for concurrent use; render each request onto its own
// Surface.
type Surface struct {
	Width  float64
	Height float64

	regions map[Region][]*Element

	tooltipOnce sync.Once
	tooltip     *Element
}

// NewSurface creates an empty surface of the given pixel size.
func NewSurface(width, height float64) *Surface {
	return &Surface{
		Width:   width,
		Height:  height,
		regions: make(map[Region][]*Element),
	}
}

// Clear removes everything drawn in region r.
func (s *Surface) Clear(r Region) {
	if r == RegionTooltip {
		// The tooltip outlives redraws; see EnsureTooltip.
		return
	}
	delete(s.regions, r)
}

// ClearAll removes every region except the tooltip.
func (s *Surface) ClearAll() {
	for _, r := range regionOrder {
		s.Clear(r)
	}
}

// Append adds elements to region r.
func (s *Surface) Append(r Region, els ...*Element) {
	s.init()
	s.regions[r] = append(s.regions[r], els...)
}

func (s *Surface) init() {
	if s.regions == nil {
		s.regions = make(map[Region][]*Element)
	}
}

// Replace clears region r and draws els into it.
func (s *Surface) Replace(r Region, els ...*Element) {
	s.Clear(r)
	s.Append(r, els...)
}

// Elements returns the top-level elements of region r.
func (s *Surface) Elements(r Region) []*Element {
	return s.regions[r]
}

// Empty reports whether region r has no elements.
func (s *Surface) Empty(r Region) bool {
	return len(s.regions[r]) == 0
}

// EnsureTooltip returns the single tooltip element of the surface, calling
// create the first time only. Later calls return the same element no matter
// how many times the chart is redrawn.
func (s *Surface) EnsureTooltip(create func() *Element) *Element {
	s.tooltipOnce.Do(func() {
		s.tooltip = create()
		s.init()
		s.regions[RegionTooltip] = []*Element{s.tooltip}
	})
	return s.tooltip
}

// Find returns every element, in paint order, for which match is true.
func (s *Surface) Find(match func(*Element) bool) []*Element {
	var found []*Element
	for _, r := range regionOrder {
		for _, e := range s.regions[r] {
			e.Walk(func(el *Element) bool {
				if match(el) {
					found = append(found, el)
				}
				return true
			})
		}
	}
	return found
}

// ByID returns the first element with the given id attribute.
func (s *Surface) ByID(id string) (*Element, bool) {
	found := s.Find(func(e *Element) bool {
		v, ok := e.Get("id")
		return ok && v == id
	})
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// ByClass returns every element carrying class.
func (s *Surface) ByClass(class string) []*Element {
	return s.Find(func(e *Element) bool { return e.HasClass(class) })
}

// WriteSVG writes the surface as a standalone SVG document.
func (s *Surface) WriteSVG(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %s %s" width="%.0f" height="%.0f" class="chart">`+"\n",
		Num(s.Width), Num(s.Height), s.Width, s.Height)
	for _, r := range regionOrder {
		for _, e := range s.regions[r] {
			e.write(&buf, 1)
		}
	}
	buf.WriteString("</svg>\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// SVG returns the serialized document.
func (s *Surface) SVG() []byte {
	var buf bytes.Buffer
	_ = s.WriteSVG(&buf)
	return buf.Bytes()
}
