package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/memviz/pkg/errors"
)

// Format identifies a snapshot encoding.
type Format string

// Supported snapshot encodings.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unrecognized snapshot extension %q (want .json, .yaml, .msgpack)", filepath.Ext(path))
	}
}

// file is the on-disk shape: either a trace or a single flattened snapshot.
type file struct {
	Checkpoints []Snapshot `json:"checkpoints,omitempty" yaml:"checkpoints,omitempty" msgpack:"checkpoints,omitempty"`
	Label       string     `json:"label,omitempty" yaml:"label,omitempty" msgpack:"label,omitempty"`
	Globals     []Binding  `json:"globals,omitempty" yaml:"globals,omitempty" msgpack:"globals,omitempty"`
	Locals      []Binding  `json:"locals,omitempty" yaml:"locals,omitempty" msgpack:"locals,omitempty"`
}

// Decode reads a snapshot or trace from r.
// A single snapshot decodes into a one-checkpoint trace.
func Decode(r io.Reader, format Format) (Trace, error) {
	var f file
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&f)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&f)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&f)
	default:
		return Trace{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported snapshot format %q", format)
	}
	if err != nil {
		return Trace{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s snapshot", format)
	}

	if len(f.Checkpoints) > 0 {
		return Trace{Checkpoints: f.Checkpoints}, nil
	}
	return Trace{Checkpoints: []Snapshot{{Label: f.Label, Globals: f.Globals, Locals: f.Locals}}}, nil
}

// DecodeSnapshot reads exactly one snapshot from r.
func DecodeSnapshot(r io.Reader, format Format) (Snapshot, error) {
	t, err := Decode(r, format)
	if err != nil {
		return Snapshot{}, err
	}
	if len(t.Checkpoints) != 1 {
		return Snapshot{}, errors.New(errors.ErrCodeInvalidInput, "expected one snapshot, found %d checkpoints", len(t.Checkpoints))
	}
	return t.Checkpoints[0], nil
}

// ReadFile reads a snapshot or trace file, choosing the codec by extension.
func ReadFile(path string) (Trace, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Trace{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Trace{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, format)
}

// Encode writes a trace in the given format. Single-checkpoint traces are
// written flattened so they round-trip through [DecodeSnapshot].
func Encode(w io.Writer, t Trace, format Format) error {
	var f file
	if len(t.Checkpoints) == 1 {
		s := Canonical(t.Checkpoints[0])
		f = file{Label: s.Label, Globals: s.Globals, Locals: s.Locals}
	} else {
		cps := make([]Snapshot, len(t.Checkpoints))
		for i, s := range t.Checkpoints {
			cps[i] = Canonical(s)
		}
		f = file{Checkpoints: cps}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(f)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(f)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported snapshot format %q", format)
	}
}

// Marshal returns the canonical JSON encoding of a snapshot. It is used as
// the content-hash input for memoization, so it accepts snapshots with
// pointer cycles (see [Canonical]).
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(Canonical(s)); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Canonical returns a copy of s in which every node reached a second time,
// through sharing or a cycle, is replaced by a [Ref] stub. The result is a
// finite tree that describes the same object graph, so it can be encoded.
// The input is not modified.
func Canonical(s Snapshot) Snapshot {
	seen := make(map[*Node]bool)
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		if n == nil {
			return nil
		}
		if seen[n] {
			return Ref(n.ID)
		}
		seen[n] = true

		out := *n
		if n.Items != nil {
			out.Items = make([]*Node, len(n.Items))
			for i, item := range n.Items {
				out.Items[i] = walk(item)
			}
		}
		if n.Entries != nil {
			out.Entries = make([]Entry, len(n.Entries))
			for i, e := range n.Entries {
				out.Entries[i] = Entry{Key: e.Key, Value: walk(e.Value)}
			}
		}
		return &out
	}
	bindings := func(bs []Binding) []Binding {
		if bs == nil {
			return nil
		}
		out := make([]Binding, len(bs))
		for i, b := range bs {
			out[i] = Binding{Name: b.Name, Value: walk(b.Value)}
		}
		return out
	}

	return Snapshot{Label: s.Label, Globals: bindings(s.Globals), Locals: bindings(s.Locals)}
}
