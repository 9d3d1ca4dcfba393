package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/geometry"
	"github.com/matzehuels/memviz/pkg/scene"
)

// ToDOT converts a scene into Graphviz DOT source for a node-link view.
// Objects become nodes and slots become labelled edges; top-level variables
// are drawn as plain-text nodes. Positions are not required.
func ToDOT(sc *scene.Scene) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"monospace\", fontsize=12];\n")
	buf.WriteString("\n")

	for _, f := range sc.Frames() {
		for i, v := range f.Variables() {
			fmt.Fprintf(&buf, "  %q [shape=plaintext, label=%q];\n", varNodeID(f.Name(), i), v.Name())
		}
	}

	for _, obj := range sc.Objects() {
		if obj.Enclosure() != nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", obj.ID(), strings.Join(dotAttrs(obj), ", "))
	}

	buf.WriteString("\n")
	for _, f := range sc.Frames() {
		for i, v := range f.Variables() {
			if v.Head() != nil {
				fmt.Fprintf(&buf, "  %q -> %q;\n", varNodeID(f.Name(), i), v.Head().ID())
			}
		}
	}
	for _, obj := range sc.Objects() {
		from := obj.ID()
		if ct := obj.Enclosure(); ct != nil {
			from = ct.ID()
		}
		for _, v := range obj.Children() {
			if v.Head() != nil {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", from, v.Head().ID(), v.Name())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func varNodeID(frame string, i int) string {
	return fmt.Sprintf("%s:%d", frame, i)
}

func dotAttrs(obj scene.Object) []string {
	label := obj.Header()
	if c := obj.Content(); c != "" {
		label = strings.TrimPrefix(label+"\n"+c, "\n")
	}

	attrs := []string{"shape=box"}
	switch obj.Shape().Kind() {
	case geometry.KindCircle:
		attrs = []string{"shape=ellipse"}
	case geometry.KindRoundedRect:
		attrs = append(attrs, "style=rounded")
	}
	if _, ok := obj.(*scene.Placeholder); ok {
		attrs = append(attrs, "color=red")
	}
	return append(attrs, fmt.Sprintf("label=%q", label))
}

// GraphvizFormat names an output format of [RenderGraphviz].
type GraphvizFormat string

// Graphviz output formats.
const (
	GraphvizSVG GraphvizFormat = "svg"
	GraphvizPNG GraphvizFormat = "png"
)

// RenderGraphviz lays out DOT source with the embedded Graphviz engine.
func RenderGraphviz(ctx context.Context, dot string, format GraphvizFormat) ([]byte, error) {
	var f graphviz.Format
	switch format {
	case GraphvizSVG:
		f = graphviz.SVG
	case GraphvizPNG:
		f = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported graphviz format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, f, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
