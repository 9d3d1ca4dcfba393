package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/memviz/pkg/fonts"
	"github.com/matzehuels/memviz/pkg/geometry"
	"github.com/matzehuels/memviz/pkg/scene"
)

const (
	arrowMarkerID = "arrow"

	objectStyle     = "fill:#ffffff;stroke:#333333;stroke-width:2"
	containerStyle  = "fill:#f4f4f8;stroke:#555577;stroke-width:2"
	errorStyle      = "fill:#fff0f0;stroke:#cc3333;stroke-width:2"
	fontStyle       = "font-family:" + fonts.FallbackFontFamily
	headerStyle     = fontStyle + ";font-size:12px;fill:#666666;text-anchor:middle"
	contentStyle    = fontStyle + ";font-size:16px;fill:#111111;text-anchor:middle;dominant-baseline:middle"
	variableStyle   = fontStyle + ";font-size:14px;fill:#224488;text-anchor:middle"
	gridStyle       = "stroke:#eeeeee;stroke-width:1"
	variableDotSize = 4
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	grid      float64
	label     bool
	embedFont bool
}

// WithGrid draws the layout grid with the given cell size under the diagram.
func WithGrid(cellSize float64) SVGOption { return func(r *svgRenderer) { r.grid = cellSize } }

// WithLabel draws the snapshot label in the top-left corner.
func WithLabel() SVGOption { return func(r *svgRenderer) { r.label = true } }

// WithEmbeddedFont inlines the monospace font so text renders the same in
// every viewer, at the cost of a larger file.
func WithEmbeddedFont() SVGOption { return func(r *svgRenderer) { r.embedFont = true } }

// RenderSVG draws a positioned scene as SVG markup: one shape with a header
// and a content label per object, then one arrow per reference, in
// creation order.
func RenderSVG(sc *scene.Scene, opts ...SVGOption) ([]byte, error) {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	if err := sc.Positioned(); err != nil {
		return nil, err
	}

	w, h := sc.Canvas()
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(px(w), px(h))

	canvas.Def()
	if r.embedFont {
		canvas.Style("text/css", fonts.FontFaceCSS())
	}
	canvas.Marker(arrowMarkerID, 10, 5, 10, 10, `orient="auto"`, `markerUnits="strokeWidth"`)
	canvas.Path("M0,0 L10,5 L0,10 z", "fill:#333333")
	canvas.MarkerEnd()
	canvas.DefEnd()

	if r.grid > 0 {
		drawGrid(canvas, w, h, r.grid)
	}
	if r.label && sc.Label() != "" {
		canvas.Text(8, 16, sc.Label(), fontStyle+";font-size:12px;fill:#999999")
	}

	for _, obj := range sc.Objects() {
		drawObject(canvas, obj)
	}

	for _, ref := range sc.References() {
		tx, ty, hx, hy, err := ref.Endpoints()
		if err != nil {
			return nil, err
		}
		canvas.Line(px(tx), px(ty), px(hx), px(hy),
			fmt.Sprintf(`class="edge" stroke="#333333" stroke-width="2" marker-end="url(#%s)"`, arrowMarkerID))
	}

	for _, v := range sc.Variables() {
		x, y, _ := v.Center()
		canvas.Circle(px(x), px(y), variableDotSize, "fill:#224488")
		canvas.Text(px(x), px(y)-8, v.Name(), variableStyle)
	}

	canvas.End()
	return buf.Bytes(), nil
}

func drawObject(canvas *svg.SVG, obj scene.Object) {
	x, y, _ := obj.Position()
	w, h := obj.Size()
	style := objectStyle
	switch obj.(type) {
	case *scene.Container:
		style = containerStyle
	case *scene.Placeholder:
		style = errorStyle
	}

	canvas.Gid("obj-" + html.EscapeString(obj.ID()))
	switch s := obj.Shape().(type) {
	case geometry.Circle:
		canvas.Ellipse(px(x+w/2), px(y+h/2), px(s.W/2), px(s.H/2), style)
	case *geometry.RoundedRect:
		var d geometry.PathData
		geometry.TraceRoundedRect(&d, x, y, w, h, s.R)
		canvas.Path(d.String(), style)
	default:
		canvas.Rect(px(x), px(y), px(w), px(h), style)
	}

	if hdr := obj.Header(); hdr != "" {
		canvas.Text(px(x+w/2), px(y)-4, hdr, headerStyle)
	}
	if content := obj.Content(); content != "" {
		canvas.Text(px(x+w/2), px(y+h/2), content, contentStyle)
	}
	canvas.Gend()
}

func drawGrid(canvas *svg.SVG, w, h, cell float64) {
	for x := 0.0; x <= w; x += cell {
		canvas.Line(px(x), 0, px(x), px(h), gridStyle)
	}
	for y := 0.0; y <= h; y += cell {
		canvas.Line(0, px(y), px(w), px(y), gridStyle)
	}
}

// px rounds a scene coordinate to the integer grid svgo draws on.
func px(v float64) int { return int(math.Round(v)) }
