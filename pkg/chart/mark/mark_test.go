package mark

import (
	"strings"
	"testing"

	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/chart/tooltip"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
)

var (
	frame  = scale.Frame{Width: 900, Height: 550, Margin: scale.Margin{Top: 100, Right: 40, Bottom: 40, Left: 60}}
	window = scale.Window{Lower: 36 * 60, Upper: 40 * 60}
)

func mustScales(t *testing.T, records []dataset.Record) scale.Set {
	t.Helper()
	set, err := scale.Build(records, frame, window)
	if err != nil {
		t.Fatalf("scale.Build() error: %v", err)
	}
	return set
}

func TestBuildSampleRecord(t *testing.T) {
	records := []dataset.Record{{Year: 1994, Time: "36:55", Doping: "", Name: "A", Nationality: "B"}}
	set := mustScales(t, records)

	marks, err := New(set).Build(records)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(marks) != 1 {
		t.Fatalf("Build() = %d marks, want 1", len(marks))
	}
	m := marks[0]
	if m.Category != dataset.CategoryClean {
		t.Errorf("Category = %q, want not-doping", m.Category)
	}
	if want := set.Y.Map(36*60 + 55); m.Y != want {
		t.Errorf("Y = %v, want %v", m.Y, want)
	}
	if want := set.X.MapYear(1994); m.X != want {
		t.Errorf("X = %v, want %v", m.X, want)
	}
	if m.XValue() != "1994" {
		t.Errorf("XValue() = %q", m.XValue())
	}
	if m.YValue() != "1970-01-01T00:36:55Z" {
		t.Errorf("YValue() = %q", m.YValue())
	}
}

func TestCategoryMatchesDoping(t *testing.T) {
	records := []dataset.Record{
		{Year: 1995, Time: "36:50", Doping: "Alleged drug use"},
		{Year: 1997, Time: "36:55"},
		{Year: 1996, Time: "37:15", Doping: " "},
	}
	marks, err := New(mustScales(t, records)).Build(records)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range marks {
		want := dataset.CategoryClean
		if strings.TrimSpace(records[i].Doping) != "" {
			want = dataset.CategoryDoping
		}
		if m.Category != want {
			t.Errorf("mark %d category = %q, want %q", i, m.Category, want)
		}
	}
}

func TestBuildAbortOnMalformedTime(t *testing.T) {
	records := []dataset.Record{
		{Year: 1995, Time: "36:50", Name: "Good"},
		{Year: 1996, Time: "3x:10", Name: "Bad"},
	}
	_, err := New(mustScales(t, records)).Build(records)
	if err == nil {
		t.Fatal("Build() expected error for malformed time")
	}
	if !errors.Is(err, errors.ErrCodeInvalidTime) {
		t.Errorf("error code = %v, want INVALID_TIME", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "Bad") {
		t.Errorf("error should name the record: %v", err)
	}
}

func TestBuildSkipPolicy(t *testing.T) {
	records := []dataset.Record{
		{Year: 1995, Time: "36:50", Name: "Good"},
		{Year: 1996, Time: "nope", Name: "Bad"},
		{Year: 1997, Time: "37:00", Name: "Also good"},
	}
	var skipped []dataset.Issue
	marks, err := New(mustScales(t, records),
		WithPolicy(PolicySkip),
		WithSkipHandler(func(is dataset.Issue) { skipped = append(skipped, is) }),
	).Build(records)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(marks) != 2 || marks[0].Index != 0 || marks[1].Index != 2 {
		t.Errorf("unexpected marks: %v", marks)
	}
	if len(skipped) != 1 || skipped[0].Index != 1 {
		t.Errorf("skipped = %v, want record 1", skipped)
	}
}

func TestHoverDrivesTooltip(t *testing.T) {
	records := []dataset.Record{{Year: 2000, Time: "37:30", Name: "Rider", Nationality: "FRA", Doping: "Admitted use"}}
	state := tooltip.NewState()
	marks, err := New(mustScales(t, records), WithTooltip(state)).Build(records)
	if err != nil {
		t.Fatal(err)
	}

	marks[0].Enter(tooltip.Point{X: marks[0].X, Y: marks[0].Y})
	snap := state.Snapshot()
	if !snap.Visible {
		t.Fatal("tooltip should be visible after Enter")
	}
	if !strings.Contains(snap.Text, "\n\nAdmitted use") {
		t.Errorf("tooltip text %q should contain the allegation after a blank line", snap.Text)
	}

	marks[0].Over(tooltip.Point{X: 1, Y: 1})
	if got := state.Snapshot().Position; got != (tooltip.Point{X: 1 + tooltip.OffsetX, Y: 1 + tooltip.OffsetY}) {
		t.Errorf("tooltip did not track pointer: %+v", got)
	}

	marks[0].Leave()
	if state.Snapshot().Visible {
		t.Error("tooltip should be hidden after Leave")
	}
}

func TestHoverWithoutTooltip(t *testing.T) {
	records := []dataset.Record{{Year: 2000, Time: "37:30"}}
	marks, _ := New(mustScales(t, records)).Build(records)
	// No controller injected: events are no-ops.
	marks[0].Enter(tooltip.Point{})
	marks[0].Leave()
}

func TestElement(t *testing.T) {
	records := []dataset.Record{
		{Year: 1995, Time: "36:50", Name: "P", Nationality: "ITA", Doping: "x", URL: "https://example.com/p"},
		{Year: 1997, Time: "36:55", Name: "Q", Nationality: "ITA"},
	}
	r := New(mustScales(t, records), WithStyle(Style{Radius: 6, DopingColor: "red", CleanColor: "blue", Stroke: "black"}))
	marks, err := r.Build(records)
	if err != nil {
		t.Fatal(err)
	}
	els := r.Elements(marks)

	link := els[0]
	if link.Tag != "a" {
		t.Fatalf("record with URL should render a link, got <%s>", link.Tag)
	}
	if href, _ := link.Get("href"); href != "https://example.com/p" {
		t.Errorf("href = %q", href)
	}
	dot := link.Children[0]
	checks := map[string]string{
		"class":       "dot doping",
		"r":           "6.00",
		"fill":        "red",
		"data-xvalue": "1995",
		"data-yvalue": "1970-01-01T00:36:50Z",
	}
	for k, want := range checks {
		if got, _ := dot.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}

	plain := els[1]
	if plain.Tag != "circle" {
		t.Errorf("record without URL should render a bare circle, got <%s>", plain.Tag)
	}
	if c, _ := plain.Get("class"); c != "dot not-doping" {
		t.Errorf("class = %q", c)
	}
	if f, _ := plain.Get("fill"); f != "blue" {
		t.Errorf("fill = %q", f)
	}

	if g := r.Group(marks); len(g.Children) != 2 {
		t.Errorf("Group() children = %d, want 2", len(g.Children))
	}
}

func TestAt(t *testing.T) {
	marks := []Mark{{Index: 0, X: 10, Y: 10}, {Index: 1, X: 20, Y: 20}}
	if m, ok := At(marks, 11, 11, 5); !ok || m.Index != 0 {
		t.Errorf("At(11,11) = %v, %v", m, ok)
	}
	if m, ok := At(marks, 19, 21, 5); !ok || m.Index != 1 {
		t.Errorf("At(19,21) = %v, %v", m, ok)
	}
	if _, ok := At(marks, 100, 100, 5); ok {
		t.Error("At(100,100) should miss")
	}
}
