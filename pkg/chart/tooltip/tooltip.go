// Package tooltip implements the hover detail surface of the chart.
//
// Marks report pointer events to a [Controller]. Only one tooltip exists per
// chart, so the controller is shared by every mark and the last event wins.
//
// [State] is an in-memory controller that tracks exactly what a viewer
// would see: visibility, target opacity, text and position. The terminal
// explorer drives it directly and tests use it to observe hover behaviour.
// [Install] draws the browser realization of the same contract onto a
// surface: a single hidden group plus the script that fades it in and out.
package tooltip

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/dopingplot/pkg/dataset"
)

const (
	// Opacity is the opacity of a visible tooltip.
	Opacity = 0.9

	// Transition is the fade duration for both showing and hiding.
	Transition = 200 * time.Millisecond

	// OffsetX and OffsetY place the tooltip relative to the pointer.
	OffsetX = 10.0
	OffsetY = -28.0
)

// Point is a pointer position in surface coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Controller receives hover events from marks.
type Controller interface {
	// Show makes the tooltip visible with content near the pointer at p.
	Show(content string, p Point)
	// Move tracks the pointer while the tooltip is visible.
	Move(p Point)
	// Hide fades the tooltip out.
	Hide()
}

// Content formats the tooltip text for r.
//
// The first line names the rider and nationality, the second the year and
// time. A doping allegation, when present, follows after a blank line.
func Content(r dataset.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\nYear: %d, Time: %s", r.Name, r.Nationality, r.Year, canonicalTime(r.Time))
	if r.HasAllegation() {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(r.Doping))
	}
	return b.String()
}

func canonicalTime(raw string) string {
	if s, err := dataset.ParseSeconds(raw); err == nil {
		return dataset.FormatSeconds(s)
	}
	return raw
}

// Snapshot is the observable tooltip state at one instant.
type Snapshot struct {
	Visible    bool          `json:"visible"`
	Opacity    float64       `json:"opacity"`
	Text       string        `json:"text"`
	Position   Point         `json:"position"`
	Transition time.Duration `json:"transition"`
}

// State is a [Controller] that records the tooltip state in memory.
// It is safe for concurrent use.
type State struct {
	mu   sync.Mutex
	snap Snapshot
	seq  int
}

// NewState returns a hidden tooltip.
func NewState() *State {
	return &State{snap: Snapshot{Transition: Transition}}
}

// Show implements [Controller].
func (s *State) Show(content string, p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Visible = true
	s.snap.Opacity = Opacity
	s.snap.Text = content
	s.snap.Position = offset(p)
	s.seq++
}

// Move implements [Controller]. It is ignored while the tooltip is hidden.
func (s *State) Move(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Visible {
		s.snap.Position = offset(p)
	}
}

// Hide implements [Controller]. The last text is kept, as the browser keeps
// it while fading out.
func (s *State) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Visible = false
	s.snap.Opacity = 0
	s.seq++
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Events returns the number of show and hide transitions so far.
func (s *State) Events() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func offset(p Point) Point {
	return Point{X: p.X + OffsetX, Y: p.Y + OffsetY}
}

// Ensure State implements Controller.
var _ Controller = (*State)(nil)
