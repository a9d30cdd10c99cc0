package tooltip

import (
	"fmt"

	"github.com/matzehuels/dopingplot/pkg/chart/surface"
)

// ID is the element id of the browser tooltip.
const ID = "tooltip"

// DataAttr is the mark attribute holding preformatted tooltip content.
const DataAttr = "data-tooltip"

const tooltipCSS = `
    #tooltip { pointer-events: none; transition: opacity %dms ease; }
    #tooltip rect { fill: #fffbe6; stroke: #333; stroke-width: 1; rx: 4; }
    #tooltip text { font: 12px sans-serif; fill: #111; }
    .dot { cursor: pointer; }`

const tooltipJS = `
    (function () {
      var tip = document.getElementById('tooltip');
      if (!tip) return;
      var svg = tip.ownerSVGElement;
      var box = tip.querySelector('rect');
      var text = tip.querySelector('text');
      var ns = 'http://www.w3.org/2000/svg';
      function toSVG(evt) {
        var pt = svg.createSVGPoint();
        pt.x = evt.clientX; pt.y = evt.clientY;
        return pt.matrixTransform(svg.getScreenCTM().inverse());
      }
      function place(evt) {
        var p = toSVG(evt);
        tip.setAttribute('transform', 'translate(' + (p.x + %g).toFixed(1) + ',' + (p.y + %g).toFixed(1) + ')');
      }
      function fill(content) {
        while (text.firstChild) text.removeChild(text.firstChild);
        content.split('\n').forEach(function (line) {
          var span = document.createElementNS(ns, 'tspan');
          span.setAttribute('x', 8);
          span.setAttribute('dy', '1.2em');
          span.textContent = line || ' ';
          text.appendChild(span);
        });
        var bb = text.getBBox();
        box.setAttribute('width', (bb.width + 16).toFixed(1));
        box.setAttribute('height', (bb.height + 12).toFixed(1));
      }
      document.querySelectorAll('.dot').forEach(function (dot) {
        dot.addEventListener('mouseenter', function (evt) {
          fill(dot.getAttribute('%s') || '');
          tip.setAttribute('data-year', dot.getAttribute('data-xvalue'));
          place(evt);
          tip.style.opacity = %g;
        });
        dot.addEventListener('mousemove', place);
        dot.addEventListener('mouseleave', function () { tip.style.opacity = 0; });
      });
    })();`

// Install draws the browser tooltip onto s.
//
// The tooltip group is created once per surface; the style and script
// regions are replaced, so calling Install on every redraw is safe.
func Install(s *surface.Surface) *surface.Element {
	el := s.EnsureTooltip(newElement)
	s.Replace(surface.RegionStyle, surface.New("style").Raw(fmt.Sprintf(tooltipCSS, Transition.Milliseconds())))
	s.Replace(surface.RegionScript, surface.New("script").
		Set("type", "text/javascript").
		Raw(fmt.Sprintf(tooltipJS, OffsetX, OffsetY, DataAttr, Opacity)))
	return el
}

func newElement() *surface.Element {
	return surface.New("g").
		Set("id", ID).
		Set("class", "tooltip").
		Set("style", "opacity: 0").
		Append(
			surface.New("rect").Set("width", "0").Set("height", "0"),
			surface.New("text").Set("y", "2"),
		)
}
