package surface

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
)

func TestElementSet(t *testing.T) {
	e := New("circle").Set("r", "5").Set("class", "dot").Set("r", "6")

	if len(e.Attrs) != 2 {
		t.Fatalf("Attrs = %v, want 2 entries", e.Attrs)
	}
	if v, _ := e.Get("r"); v != "6" {
		t.Errorf("Get(r) = %q, want 6", v)
	}
	if _, ok := e.Get("missing"); ok {
		t.Error("Get(missing) reported ok")
	}
}

func TestHasClass(t *testing.T) {
	e := New("circle").Set("class", "dot doping")
	if !e.HasClass("dot") || !e.HasClass("doping") {
		t.Error("HasClass() missed a class")
	}
	if e.HasClass("dop") || e.HasClass("not-doping") {
		t.Error("HasClass() matched a partial class")
	}
}

func TestWriteSVGEscapes(t *testing.T) {
	s := NewSurface(100, 50)
	s.Append(RegionMarks,
		New("circle").Set("data-tooltip", "A: B\n\n<Admitted> & \"use\""),
		New("text").Text("36 < 40"),
	)

	out := string(s.SVG())
	for _, want := range []string{
		`viewBox="0 0 100.00 50.00"`,
		`width="100" height="50"`,
		`data-tooltip="A: B&#xA;&#xA;&lt;Admitted&gt; &amp; &#34;use&#34;"`,
		`<text>36 &lt; 40</text>`,
		`</svg>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q\nGot: %s", want, out)
		}
	}
}

func TestWriteSVGWellFormed(t *testing.T) {
	s := NewSurface(100, 50)
	s.Append(RegionScript, New("script").Set("type", "text/javascript").Raw("if (a < b && c) { x = ']]>'; }"))
	s.Append(RegionAnnotations, New("g").Append(New("text").Text("title"), New("rect")))

	dec := xml.NewDecoder(strings.NewReader(string(s.SVG())))
	for {
		_, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("SVG not well-formed: %v", err)
		}
	}
}

func TestReplaceIsIdempotent(t *testing.T) {
	s := NewSurface(100, 50)
	draw := func() {
		s.Replace(RegionMarks, New("circle").Set("class", "dot"), New("circle").Set("class", "dot"))
	}
	draw()
	draw()
	draw()

	if got := len(s.ByClass("dot")); got != 2 {
		t.Errorf("after three draws found %d dots, want 2", got)
	}
}

func TestAppendAccumulates(t *testing.T) {
	s := NewSurface(100, 50)
	s.Append(RegionMarks, New("circle").Set("class", "dot"))
	s.Append(RegionMarks, New("circle").Set("class", "dot"))
	if got := len(s.Elements(RegionMarks)); got != 2 {
		t.Errorf("Append twice = %d elements, want 2", got)
	}
	s.Clear(RegionMarks)
	if !s.Empty(RegionMarks) {
		t.Error("Clear() left elements behind")
	}
}

func TestZeroSurface(t *testing.T) {
	var s Surface
	s.Append(RegionMarks, New("circle").Set("id", "dot"))
	s.EnsureTooltip(func() *Element { return New("g").Set("id", "tooltip") })

	if _, ok := s.ByID("dot"); !ok {
		t.Error("zero Surface dropped an appended element")
	}
	if _, ok := s.ByID("tooltip"); !ok {
		t.Error("zero Surface dropped the tooltip")
	}
	if out := string(s.SVG()); !strings.Contains(out, `id="dot"`) {
		t.Errorf("SVG() = %q, want the appended mark", out)
	}
}

func TestEnsureTooltipSingleton(t *testing.T) {
	s := NewSurface(100, 50)
	calls := 0
	create := func() *Element {
		calls++
		return New("g").Set("id", "tooltip")
	}

	first := s.EnsureTooltip(create)
	second := s.EnsureTooltip(create)
	s.ClearAll()
	third := s.EnsureTooltip(create)

	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	if first != second || second != third {
		t.Error("EnsureTooltip returned different elements")
	}
	if got := len(s.Find(func(e *Element) bool { v, _ := e.Get("id"); return v == "tooltip" })); got != 1 {
		t.Errorf("found %d tooltips, want 1", got)
	}
}

func TestPaintOrder(t *testing.T) {
	s := NewSurface(100, 50)
	s.Append(RegionTooltip, New("g").Set("id", "tip"))
	s.Append(RegionMarks, New("g").Set("id", "marks"))
	s.Append(RegionXAxis, New("g").Set("id", "axis"))

	out := string(s.SVG())
	a, m, tip := strings.Index(out, `id="axis"`), strings.Index(out, `id="marks"`), strings.Index(out, `id="tip"`)
	if !(a < m && m < tip) {
		t.Errorf("unexpected paint order: axis=%d marks=%d tooltip=%d", a, m, tip)
	}
}

func TestByID(t *testing.T) {
	s := NewSurface(10, 10)
	s.Append(RegionAnnotations, New("g").Append(New("text").Set("id", "title").Text("hello")))

	el, ok := s.ByID("title")
	if !ok || el.Content() != "hello" {
		t.Errorf("ByID(title) = %v, %v", el, ok)
	}
	if _, ok := s.ByID("nope"); ok {
		t.Error("ByID(nope) reported ok")
	}
}
