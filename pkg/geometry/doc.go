// Package geometry models the boundaries of diagram shapes.
//
// Arrows in a diagram run from a variable's centre to the edge of the object
// it references. [Shape.EdgePoint] answers where a ray from a shape's centre
// leaves its outline. Three shapes are supported:
//
//   - [Square]: an axis-aligned rectangle, split into four angular quadrants
//     by its diagonals.
//   - [Circle]: an ellipse inscribed in the bounding box.
//   - [RoundedRect]: four straight edges joined by quarter-circle corners.
//     The eight angular sectors are computed once by [NewRoundedRect].
//
// Angles are in radians, counter-clockwise, with the y axis pointing down
// as on screen: angle π/2 points up and yields a smaller y.
//
// [TraceRoundedRect] draws a rounded outline on any [Pather], which both
// raster canvases and [PathData] (SVG "d" strings) satisfy.
package geometry
