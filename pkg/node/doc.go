// Package node defines the language-agnostic description of a runtime
// object graph, as produced by an external introspection adapter.
//
// # Overview
//
// A [Snapshot] holds two ordered root frames (globals and locals), each a
// list of [Binding]s from a name to a [Node]. Nodes form a tree; aliasing and
// cycles are expressed by repeating an identity, usually as a bare stub:
//
//	{
//	  "globals": [
//	    {"name": "a", "value": {"id": "1", "kind": "ordered", "type": "list",
//	                            "items": [{"id": "1"}]}},
//	    {"name": "b", "value": {"id": "1"}}
//	  ]
//	}
//
// Here a is a list containing itself and b aliases a.
//
// # Formats
//
// Snapshots and traces are read from JSON, YAML, or msgpack. [ReadFile]
// picks the codec from the file extension; [Decode] takes an explicit
// [Format]. A file may hold a single snapshot or a trace with a
// "checkpoints" list; both decode into a [Trace].
package node
