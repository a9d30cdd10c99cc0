// Package surface is the drawable canvas charts are rendered onto.
//
// A [Surface] holds a tree of [Element] values partitioned into owned
// regions. Every renderer writes into its own region, and replaces that
// region wholesale when it draws, so drawing the same data twice never
// duplicates output:
//
//	s := surface.NewSurface(900, 550)
//	s.Replace(surface.RegionMarks, marks...)
//	s.Replace(surface.RegionMarks, marks...) // still one copy
//
// The surface serializes to a standalone SVG document with [Surface.WriteSVG].
// Regions are written in a fixed order so output is deterministic.
package surface

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
)

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a node in the SVG tree.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []*Element

	text string
	raw  string
}

// New creates an element with the given tag.
func New(tag string) *Element {
	return &Element{Tag: tag}
}

// Set assigns attribute name, replacing an existing value.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// SetNum assigns a numeric attribute with two decimals.
func (e *Element) SetNum(name string, v float64) *Element {
	return e.Set(name, Num(v))
}

// Get returns the value of attribute name.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasClass reports whether the class attribute contains class.
func (e *Element) HasClass(class string) bool {
	v, _ := e.Get("class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Text sets the escaped character content of the element.
func (e *Element) Text(s string) *Element {
	e.text = s
	return e
}

// Content returns the character content set with [Element.Text].
func (e *Element) Content() string { return e.text }

// Raw sets content written inside a CDATA section (scripts, styles).
func (e *Element) Raw(s string) *Element {
	e.raw = s
	return e
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Walk visits e and its descendants depth-first.
// Returning false from fn skips the children of that element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// write serializes e at the given depth.
func (e *Element) write(buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(e.Tag)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		escape(buf, a.Value)
		buf.WriteByte('"')
	}

	switch {
	case e.raw != "":
		buf.WriteString("><![CDATA[")
		buf.WriteString(strings.ReplaceAll(e.raw, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></")
	case len(e.Children) == 0 && e.text == "":
		buf.WriteString("/>\n")
		return
	case len(e.Children) == 0:
		buf.WriteByte('>')
		escape(buf, e.text)
		buf.WriteString("</")
	default:
		buf.WriteString(">")
		escape(buf, e.text)
		buf.WriteByte('\n')
		for _, c := range e.Children {
			c.write(buf, depth+1)
		}
		buf.WriteString(indent)
		buf.WriteString("</")
	}
	buf.WriteString(e.Tag)
	buf.WriteString(">\n")
}

// escape writes s with XML escaping. Newlines become character references
// so attribute values keep them through XML attribute normalization.
func escape(buf *bytes.Buffer, s string) {
	_ = xml.EscapeText(buf, []byte(s))
}

// Num formats v with two decimals, the precision used for all coordinates.
func Num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
