package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/dopingplot/pkg/chart"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/render"
)

// export serializes a drawn surface in one format.
func export(s *surface.Surface, res chart.Result, opts Options, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(res.Layout(opts.Chart), "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
		}
		return data, nil
	default:
		return exportSurface(s, opts, format)
	}
}

// exportError serializes an error-state surface. The JSON form carries the
// error code and message instead of a layout.
func exportError(s *surface.Surface, opts Options, format string, cause error) ([]byte, error) {
	if format != FormatJSON {
		return exportSurface(s, opts, format)
	}
	var payload errorPayload
	payload.Error.Code = errors.GetCode(cause)
	payload.Error.Message = errors.UserMessage(cause)
	return json.MarshalIndent(payload, "", "  ")
}

type errorPayload struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func exportSurface(s *surface.Surface, opts Options, format string) ([]byte, error) {
	svg := s.SVG()
	switch format {
	case FormatSVG:
		return svg, nil
	case FormatHTML:
		return render.HTML(svg, pageTitle(opts.Chart)), nil
	case FormatPNG:
		return render.ToPNG(svg, opts.PNGScale)
	case FormatPDF:
		return render.ToPDF(svg)
	default:
		return nil, ValidateFormat(format)
	}
}

func pageTitle(cfg chart.Config) string {
	if cfg.Title != "" {
		return cfg.Title
	}
	return chart.DefaultConfig().Title
}
