package sink

import (
	"bytes"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/fonts"
	"github.com/matzehuels/memviz/pkg/geometry"
	"github.com/matzehuels/memviz/pkg/scene"
)

// pngFontPoints is the label size.
const pngFontPoints = 13

// PNGOption configures [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
}

// WithScale sets the raster scale factor (default 1).
func WithScale(s float64) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// RenderPNG rasterizes a positioned scene in-process.
func RenderPNG(sc *scene.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", r.scale)
	}
	if err := sc.Positioned(); err != nil {
		return nil, err
	}

	w, h := sc.Canvas()
	dc := gg.NewContext(max(1, int(math.Ceil(w*r.scale))), max(1, int(math.Ceil(h*r.scale))))
	dc.Scale(r.scale, r.scale)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	face, err := fonts.MonoFace(pngFontPoints)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load font")
	}
	dc.SetFontFace(face)

	for _, obj := range sc.Objects() {
		paintObject(dc, obj)
	}

	dc.SetLineWidth(2)
	for _, ref := range sc.References() {
		tx, ty, hx, hy, err := ref.Endpoints()
		if err != nil {
			return nil, err
		}
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawLine(tx, ty, hx, hy)
		dc.Stroke()
		paintArrowhead(dc, tx, ty, hx, hy)
	}

	for _, v := range sc.Variables() {
		x, y, _ := v.Center()
		dc.SetRGB(0.13, 0.27, 0.53)
		dc.DrawCircle(x, y, variableDotSize)
		dc.Fill()
		dc.DrawStringAnchored(v.Name(), x, y-8, 0.5, 0)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func paintObject(dc *gg.Context, obj scene.Object) {
	x, y, _ := obj.Position()
	w, h := obj.Size()

	switch s := obj.Shape().(type) {
	case geometry.Circle:
		dc.DrawEllipse(x+w/2, y+h/2, s.W/2, s.H/2)
	case *geometry.RoundedRect:
		geometry.TraceRoundedRect(dc, x, y, w, h, s.R)
	default:
		dc.DrawRectangle(x, y, w, h)
	}

	switch obj.(type) {
	case *scene.Container:
		dc.SetRGB(0.96, 0.96, 0.97)
	case *scene.Placeholder:
		dc.SetRGB(1, 0.94, 0.94)
	default:
		dc.SetRGB(1, 1, 1)
	}
	dc.FillPreserve()
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(2)
	dc.Stroke()

	dc.SetRGB(0.4, 0.4, 0.4)
	if hdr := obj.Header(); hdr != "" {
		dc.DrawStringAnchored(hdr, x+w/2, y-4, 0.5, 0)
	}
	dc.SetRGB(0.07, 0.07, 0.07)
	if content := obj.Content(); content != "" {
		dc.DrawStringAnchored(content, x+w/2, y+h/2, 0.5, 0.35)
	}
}

func paintArrowhead(dc *gg.Context, tx, ty, hx, hy float64) {
	const size = 10
	if tx == hx && ty == hy {
		return
	}
	angle := math.Atan2(hy-ty, hx-tx)
	dc.MoveTo(hx, hy)
	dc.LineTo(hx-size*math.Cos(angle-math.Pi/7), hy-size*math.Sin(angle-math.Pi/7))
	dc.LineTo(hx-size*math.Cos(angle+math.Pi/7), hy-size*math.Sin(angle+math.Pi/7))
	dc.ClosePath()
	dc.Fill()
}
