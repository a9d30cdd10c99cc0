package axis

import (
	"strings"
	"testing"

	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/dataset"
)

var frame = scale.Frame{Width: 900, Height: 550, Margin: scale.Margin{Top: 100, Right: 40, Bottom: 40, Left: 60}}

func scales(t *testing.T) scale.Set {
	t.Helper()
	records := []dataset.Record{{Year: 1994, Time: "36:55"}, {Year: 2015, Time: "39:12"}}
	set, err := scale.Build(records, frame, scale.Window{Lower: 2160, Upper: 2400})
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestNewBottom(t *testing.T) {
	set := scales(t)
	a := NewBottom(set.X, frame, DefaultTicks)

	if a.ID != "x-axis" || a.Orient != Bottom {
		t.Errorf("unexpected axis identity: %s %s", a.ID, a.Orient)
	}
	if a.TranslateY != frame.PlotBottom() || a.TranslateX != 0 {
		t.Errorf("translate = (%v,%v), want (0,%v)", a.TranslateX, a.TranslateY, frame.PlotBottom())
	}
	if len(a.Ticks) == 0 {
		t.Fatal("no ticks")
	}
	for _, tk := range a.Ticks {
		if len(tk.Label) != 4 {
			t.Errorf("label %q is not a 4-digit year", tk.Label)
		}
		if tk.Pos < a.Start || tk.Pos > a.End {
			t.Errorf("tick %s at %v outside [%v,%v]", tk.Label, tk.Pos, a.Start, a.End)
		}
	}
	if a.Ticks[0].Label != "1994" {
		t.Errorf("first tick = %s, want 1994", a.Ticks[0].Label)
	}
}

func TestNewLeft(t *testing.T) {
	set := scales(t)
	a := NewLeft(set.Y, frame, DefaultTicks)

	if a.ID != "y-axis" || a.TranslateX != frame.PlotLeft() {
		t.Errorf("unexpected axis: %+v", a)
	}
	want := []string{"36:00", "36:20", "36:40", "37:00"}
	for i, w := range want {
		if a.Ticks[i].Label != w {
			t.Errorf("tick %d = %q, want %q", i, a.Ticks[i].Label, w)
		}
	}
	last := a.Ticks[len(a.Ticks)-1]
	if last.Label != "40:00" || last.Pos != frame.PlotBottom() {
		t.Errorf("last tick = %+v, want 40:00 at the bottom edge", last)
	}
	for i := 1; i < len(a.Ticks); i++ {
		if a.Ticks[i].Pos <= a.Ticks[i-1].Pos {
			t.Errorf("larger times must be drawn lower: %v then %v", a.Ticks[i-1], a.Ticks[i])
		}
	}
}

func TestElements(t *testing.T) {
	set := scales(t)

	x := NewBottom(set.X, frame, DefaultTicks).Elements()
	if id, _ := x.Get("id"); id != "x-axis" {
		t.Errorf("x group id = %q", id)
	}
	if tr, _ := x.Get("transform"); tr != "translate(0.00,510.00)" {
		t.Errorf("x transform = %q", tr)
	}
	y := NewLeft(set.Y, frame, DefaultTicks).Elements()
	if tr, _ := y.Get("transform"); tr != "translate(60.00,0.00)" {
		t.Errorf("y transform = %q", tr)
	}

	var labels []string
	y.Walk(func(e *surface.Element) bool {
		if e.Tag == "text" {
			labels = append(labels, e.Content())
		}
		return true
	})
	if len(labels) == 0 || labels[0] != "36:00" {
		t.Errorf("y labels = %v", labels)
	}
	if got := len(x.Children); got != len(NewBottom(set.X, frame, DefaultTicks).Ticks)+1 {
		t.Errorf("x group has %d children, want domain path plus ticks", got)
	}
	if !strings.Contains(x.Children[0].Tag, "path") {
		t.Errorf("first child = <%s>, want domain path", x.Children[0].Tag)
	}
}
