// Package render converts chart documents into raster and print formats.
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	svg := s.SVG()
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [HTML] wraps an SVG in a standalone page so the hover tooltip works when
// the file is opened in a browser.
//
// Conversion needs librsvg: brew install librsvg (macOS), apt install
// librsvg2-bin (Linux). [Available] reports whether it is on PATH.
package render
