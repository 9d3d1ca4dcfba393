package sink

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/geometry"
	"github.com/matzehuels/memviz/pkg/scene"
)

// Document is the JSON form of a positioned scene.
type Document struct {
	Label     string     `json:"label,omitempty"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Objects   []Object   `json:"objects"`
	Edges     []Edge     `json:"edges"`
	Variables []Variable `json:"variables"`
}

// Object is one drawn shape.
type Object struct {
	ID           string   `json:"id"`
	ShapeKind    string   `json:"shapeKind"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	Header       string   `json:"header"`
	Content      string   `json:"content"`
	CornerRadius *float64 `json:"cornerRadius,omitempty"`
}

// Edge is one reference arrow. The head point lies on the target's outline.
type Edge struct {
	TailX float64 `json:"tailX"`
	TailY float64 `json:"tailY"`
	HeadX float64 `json:"headX"`
	HeadY float64 `json:"headY"`
	Head  string  `json:"head"`
}

// Variable is a named slot or root binding, anchored at its centre.
type Variable struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Frame  string  `json:"frame,omitempty"`
	Owner  string  `json:"owner,omitempty"`
	Head   string  `json:"head,omitempty"`
	Inline *string `json:"inline,omitempty"`
}

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	indent string
}

// WithIndent pretty-prints the document.
func WithIndent(indent string) JSONOption { return func(r *jsonRenderer) { r.indent = indent } }

// ExportJSON builds the document for a positioned scene. Objects, edges, and
// variables keep the scene's creation order. Every numeric field is copied
// from the scene unchanged.
func ExportJSON(sc *scene.Scene) (Document, error) {
	if err := sc.Positioned(); err != nil {
		return Document{}, err
	}

	w, h := sc.Canvas()
	doc := Document{
		Label:     sc.Label(),
		Width:     w,
		Height:    h,
		Objects:   make([]Object, 0, len(sc.Objects())),
		Edges:     make([]Edge, 0, len(sc.References())),
		Variables: []Variable{},
	}

	for _, obj := range sc.Objects() {
		doc.Objects = append(doc.Objects, exportObject(obj))
	}

	for _, ref := range sc.References() {
		tx, ty, hx, hy, err := ref.Endpoints()
		if err != nil {
			return Document{}, err
		}
		doc.Edges = append(doc.Edges, Edge{TailX: tx, TailY: ty, HeadX: hx, HeadY: hy, Head: ref.Head().ID()})
	}

	for _, f := range sc.Frames() {
		for _, v := range f.Variables() {
			ev := exportVariable(v)
			ev.Frame = f.Name()
			doc.Variables = append(doc.Variables, ev)
		}
	}
	for _, obj := range sc.Objects() {
		for _, v := range obj.Children() {
			ev := exportVariable(v)
			ev.Owner = obj.ID()
			doc.Variables = append(doc.Variables, ev)
		}
	}
	return doc, nil
}

// RenderJSON encodes the scene document.
func RenderJSON(sc *scene.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	doc, err := ExportJSON(sc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, doc, r.indent); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode document")
	}
	return buf.Bytes(), nil
}

// ReadDocument decodes a document produced by [RenderJSON].
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode document")
	}
	return doc, nil
}

func writeJSON(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}

func exportObject(obj scene.Object) Object {
	x, y, _ := obj.Position()
	w, h := obj.Size()
	out := Object{
		ID:        obj.ID(),
		ShapeKind: obj.Shape().Kind().String(),
		X:         x,
		Y:         y,
		Width:     w,
		Height:    h,
		Header:    obj.Header(),
		Content:   obj.Content(),
	}
	if rr, ok := obj.Shape().(*geometry.RoundedRect); ok {
		r := rr.R
		out.CornerRadius = &r
	}
	return out
}

func exportVariable(v *scene.Variable) Variable {
	x, y, _ := v.Center()
	out := Variable{Name: v.Name(), X: x, Y: y}
	if head := v.Head(); head != nil {
		out.Head = head.ID()
	}
	if text, ok := v.Inline(); ok {
		out.Inline = &text
	}
	return out
}
