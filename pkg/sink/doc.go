// Package sink serializes positioned scenes.
//
// # Formats
//
//   - JSON ([ExportJSON], [RenderJSON]): objects with their exact positions
//     and sizes, reference arrows with both endpoints, and variables.
//   - SVG ([RenderSVG]): one shape per object with header and content
//     labels, one arrow per reference. Drawn with
//     [github.com/ajstarks/svgo].
//   - PNG ([RenderPNG]): the same drawing rasterized in-process with
//     [github.com/fogleman/gg].
//   - DOT ([ToDOT], [RenderGraphviz]): a node-link view of the object graph
//     for Graphviz, ignoring grid positions.
//
// Objects, edges, and variables are emitted in the scene's creation order,
// so identical scenes give identical output.
//
// # Preconditions
//
// Every format except DOT reads positions. Exporting a scene with an
// unpositioned object or variable fails with EXPORT_PRECONDITION instead of
// drawing it at a default location.
package sink
