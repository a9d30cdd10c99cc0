package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/dopingplot/pkg/errors"
)

const tinySVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><circle cx="5" cy="5" r="4"/></svg>`

func TestHTML(t *testing.T) {
	page := string(HTML([]byte(tinySVG), "Doping <in> cycling"))
	if !strings.HasPrefix(page, "<!DOCTYPE html>") {
		t.Error("page should start with a doctype")
	}
	if !strings.Contains(page, "<title>Doping &lt;in&gt; cycling</title>") {
		t.Error("title should be escaped")
	}
	if !strings.Contains(page, tinySVG) {
		t.Error("page should embed the svg verbatim")
	}
}

func TestToPNG(t *testing.T) {
	if !Available() {
		t.Skip("rsvg-convert not installed")
	}
	png, err := ToPNG([]byte(tinySVG), 2)
	if err != nil {
		t.Fatalf("ToPNG() error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestToPDF(t *testing.T) {
	if !Available() {
		t.Skip("rsvg-convert not installed")
	}
	pdf, err := ToPDF([]byte(tinySVG))
	if err != nil {
		t.Fatalf("ToPDF() error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestConvertMissingTool(t *testing.T) {
	if Available() {
		t.Skip("rsvg-convert installed")
	}
	_, err := ToPDF([]byte(tinySVG))
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("error = %v, want UNSUPPORTED", err)
	}
}
