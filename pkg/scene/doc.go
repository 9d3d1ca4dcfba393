// Package scene builds the diagram model of a program snapshot.
//
// A [Scene] holds drawable [Object]s, the top-level [Variable]s of each
// [Frame], and the [Reference] arrows between them. [Builder.Build] derives
// it from a [node.Snapshot]:
//
//   - primitives become [Value] circles
//   - sequences and mappings become [Collection]s, one slot per element
//   - attribute mappings become [Namespace]s, with blacklisted attributes
//     hidden
//   - nodes flagged as object instances are wrapped in a [Container]
//     headed by their type name
//
// Every node identity maps to exactly one Object within a scene, so aliased
// and self-referencing values share a single shape. The identity map is
// created per Build call; scenes never share objects.
//
// A freshly built scene has no positions. The gps package assigns them;
// sinks then read objects and reference endpoints to draw the diagram.
package scene
