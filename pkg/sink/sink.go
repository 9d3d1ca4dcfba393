package sink

import (
	"context"
	"strings"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/scene"
)

// Format selects an output encoding for [Render].
type Format string

// Output formats.
const (
	FormatJSON Format = "json"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatDOT  Format = "dot"
	// FormatGraphviz is the DOT view laid out by Graphviz, as SVG.
	FormatGraphviz Format = "graphviz"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatSVG, FormatPNG, FormatDOT, FormatGraphviz}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", s)
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatGraphviz {
		return "svg"
	}
	return string(f)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatSVG, FormatGraphviz:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/octet-stream"
	}
}

// Render encodes a scene in the given format. Every format except DOT and
// Graphviz requires a positioned scene.
func Render(ctx context.Context, sc *scene.Scene, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return RenderJSON(sc, WithIndent("  "))
	case FormatSVG:
		return RenderSVG(sc, WithLabel())
	case FormatPNG:
		return RenderPNG(sc, WithScale(2))
	case FormatDOT:
		return []byte(ToDOT(sc)), nil
	case FormatGraphviz:
		return RenderGraphviz(ctx, ToDOT(sc), GraphvizSVG)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", f)
	}
}
