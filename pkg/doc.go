// Package pkg provides the core libraries for memviz, which draws snapshots
// of a running program's memory as box-and-arrow diagrams.
//
// # Overview
//
// A debugger adapter describes the values reachable from each frame as a
// tree of nodes. memviz turns that description into a diagram where every
// distinct object is drawn once, and aliasing or cycles show up as arrows
// pointing back at the same box.
//
// # Architecture
//
// The data flow through memviz:
//
//	Snapshot (JSON/YAML/msgpack)
//	         ↓
//	    [node] package (decode the adapter's description)
//	         ↓
//	    [scene] package (build objects, variables, references)
//	         ↓
//	    [gps] package (place everything on a square grid)
//	         ↓
//	    [sink] package (JSON/SVG/PNG/DOT output)
//
// [pipeline] orchestrates these stages with caching ([cache]) and
// instrumentation ([observability]). [config] loads settings from TOML,
// [geometry] holds the shape math shared by the builder and renderers, and
// [errors] defines the coded errors every package returns.
//
// # Quick Start
//
//	trace, _ := node.ReadFile("snapshot.json")
//	sc, _ := scene.Build(trace.Checkpoints[0], scene.DefaultOptions())
//	_ = gps.Layout(sc, gps.DefaultOptions())
//	svg, _ := sink.RenderSVG(sc)
package pkg
