package tooltip

import (
	"strings"
	"testing"

	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/dataset"
)

func TestContent(t *testing.T) {
	tests := []struct {
		name   string
		record dataset.Record
		want   string
	}{
		{
			name:   "clean",
			record: dataset.Record{Name: "A", Nationality: "B", Year: 1994, Time: "36:55"},
			want:   "A: B\nYear: 1994, Time: 36:55",
		},
		{
			name:   "allegation after blank line",
			record: dataset.Record{Name: "A", Nationality: "B", Year: 1994, Time: "36:55", Doping: "Admitted use"},
			want:   "A: B\nYear: 1994, Time: 36:55\n\nAdmitted use",
		},
		{
			name:   "time canonicalized",
			record: dataset.Record{Name: "C", Nationality: "D", Year: 2001, Time: "38:5"},
			want:   "C: D\nYear: 2001, Time: 38:05",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Content(tt.record); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateTransitions(t *testing.T) {
	s := NewState()

	snap := s.Snapshot()
	if snap.Visible || snap.Opacity != 0 {
		t.Fatalf("new state should be hidden: %+v", snap)
	}
	if snap.Transition != Transition {
		t.Errorf("Transition = %v, want %v", snap.Transition, Transition)
	}

	s.Show("hello", Point{X: 100, Y: 200})
	snap = s.Snapshot()
	if !snap.Visible || snap.Opacity != Opacity || snap.Text != "hello" {
		t.Errorf("after Show: %+v", snap)
	}
	if snap.Position != (Point{X: 110, Y: 172}) {
		t.Errorf("Position = %+v, want pointer plus offset", snap.Position)
	}

	s.Move(Point{X: 0, Y: 0})
	if got := s.Snapshot().Position; got != (Point{X: 10, Y: -28}) {
		t.Errorf("Move() position = %+v", got)
	}

	s.Hide()
	snap = s.Snapshot()
	if snap.Visible || snap.Opacity != 0 {
		t.Errorf("after Hide: %+v", snap)
	}
	if snap.Text != "hello" {
		t.Errorf("Hide() should keep the last text during fade-out, got %q", snap.Text)
	}

	s.Move(Point{X: 500, Y: 500})
	if got := s.Snapshot().Position; got != (Point{X: 10, Y: -28}) {
		t.Errorf("Move() while hidden changed position to %+v", got)
	}
	if s.Events() != 2 {
		t.Errorf("Events() = %d, want 2", s.Events())
	}
}

func TestStateLastEventWins(t *testing.T) {
	s := NewState()
	s.Show("first", Point{})
	s.Show("second", Point{X: 1})
	if got := s.Snapshot().Text; got != "second" {
		t.Errorf("Text = %q, want second", got)
	}
}

func TestInstall(t *testing.T) {
	s := surface.NewSurface(900, 550)
	first := Install(s)
	second := Install(s)

	if first != second {
		t.Error("Install() created a second tooltip")
	}
	if got := len(s.Elements(surface.RegionScript)); got != 1 {
		t.Errorf("script region has %d elements, want 1", got)
	}
	if got := len(s.Elements(surface.RegionStyle)); got != 1 {
		t.Errorf("style region has %d elements, want 1", got)
	}

	out := string(s.SVG())
	for _, want := range []string{
		`id="tooltip"`,
		`style="opacity: 0"`,
		`transition: opacity 200ms`,
		`mouseenter`,
		`mouseleave`,
		`data-tooltip`,
		`tip.style.opacity = 0.9`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("installed tooltip missing %q", want)
		}
	}
}
