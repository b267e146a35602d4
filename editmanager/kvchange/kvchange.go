// Package kvchange implements a Change Family whose changesets are edits to
// a Noms-backed key/value document, grounded in the teacher's own document
// storage stack (github.com/attic-labs/noms, roci.dev/diff-server/kv). Where
// editmanager/intchange exists to pin down the core's testable properties
// with no external dependencies, kvchange exists to show the core wired to
// the same kind of document the teacher's db package managed.
//
// A changeset here is an ordered list of Ops (Put/Del), the same shape the
// teacher's Transaction accumulated before Commit. Composing changesets
// concatenates their Op lists; inverting one produces the Ops that would
// undo it against the map the change was built against. Two edits to the
// same key aren't reconciled here — later Ops win when applied in order,
// the same last-writer-wins-by-position rule the teacher's kv.MapEditor
// itself applies within a single transaction.
package kvchange

import (
	"bytes"
	"encoding/json"

	"github.com/attic-labs/noms/go/types"
	"github.com/pkg/errors"

	"roci.dev/diff-server/kv"
	nomsjson "roci.dev/diff-server/util/noms/json"

	"roci.dev/edit-manager/editmanager"
)

// OpKind distinguishes a Put from a Del within a Change.
type OpKind int

const (
	// OpPut sets Key to Value (JSON-encoded).
	OpPut OpKind = iota
	// OpDel removes Key.
	OpDel
)

// Op is a single staged mutation, the Go analogue of one Transaction.Put or
// Transaction.Del call in the teacher's db package. Prev carries the
// JSON-encoded value the key held immediately before this Op was staged
// (nil if the key was absent), captured by the Transaction builder at
// stage time so Invert can be total without consulting the store again.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte // JSON, only meaningful when Kind == OpPut
	Prev  []byte // JSON, the prior value (nil if the key was absent)
}

// Change is an ordered list of key/value operations, composed in apply
// order — the changeset type this family hands the core.
type Change []Op

// Delta is the JSON-patch projection of a Change that a host applies to its
// view of the document, mirroring the teacher's nomsjson conversions.
type Delta struct {
	Ops []PatchOp `json:"ops"`
}

// PatchOp is one entry of a Delta: "put" carries Value, "del" does not.
type PatchOp struct {
	Op    string          `json:"op"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Family implements editmanager.Rebaser[Change, Delta] over a single Noms
// store. It needs a types.ValueReadWriter because RebaseAnchors decodes each
// Put's JSON value into a noms.Value before setting it on the anchor
// editor.
type Family struct {
	Noms types.ValueReadWriter
}

var _ editmanager.Rebaser[Change, Delta] = Family{}

// Compose concatenates changes in order.
func (Family) Compose(changes []Change) Change {
	var out Change
	for _, c := range changes {
		out = append(out, c...)
	}
	return out
}

// Invert walks change in reverse, turning each Op into the Op that
// restores Prev: a Put whose Prev is nil inverts to a Del (the key didn't
// exist before), a Put or Del whose Prev is non-nil inverts to a Put of
// Prev, and a Del whose Prev is nil (deleting an absent key, which the
// Transaction builder never stages — see Del below) inverts to nothing.
func (Family) Invert(change Change) Change {
	out := make(Change, 0, len(change))
	for i := len(change) - 1; i >= 0; i-- {
		op := change[i]
		switch {
		case op.Prev != nil:
			out = append(out, Op{Kind: OpPut, Key: op.Key, Value: op.Prev})
		case op.Kind == OpPut:
			out = append(out, Op{Kind: OpDel, Key: op.Key})
		}
	}
	return out
}

// Rebase returns change unchanged: kvchange resolves same-key concurrent
// writes by trunk order (the later commit's Op simply applies after the
// earlier one's, so it wins), not by transposing the Op itself. This
// mirrors the way Transaction.Commit in the teacher never rewrites a
// pending Put against a concurrently landed one — FastForward either
// succeeds or the caller retries with a fresh basis.
func (Family) Rebase(change Change, _ Change) Change {
	return change
}

// RebaseAnchors applies over's Ops, in order, to anchors, which is expected
// to be a *kv.MapEditor the host keeps open across calls — the same editor
// shape Transaction stages Puts/Dels into before Build().
func (f Family) RebaseAnchors(anchors any, over Change) {
	ed, ok := anchors.(*kv.MapEditor)
	if !ok || ed == nil {
		return
	}
	for _, op := range over {
		switch op.Kind {
		case OpPut:
			v, err := nomsjson.FromJSON(op.Value, f.Noms)
			if err != nil {
				continue
			}
			_ = ed.Set(types.String(op.Key), v)
		case OpDel:
			if ed.Has(types.String(op.Key)) {
				_ = ed.Remove(types.String(op.Key))
			}
		}
	}
}

// IntoDelta projects change into the JSON patch a host view applies.
func (f Family) IntoDelta(change Change) Delta {
	d := Delta{Ops: make([]PatchOp, 0, len(change))}
	for _, op := range change {
		switch op.Kind {
		case OpPut:
			d.Ops = append(d.Ops, PatchOp{Op: "put", Key: op.Key, Value: json.RawMessage(op.Value)})
		case OpDel:
			d.Ops = append(d.Ops, PatchOp{Op: "del", Key: op.Key})
		}
	}
	return d
}

// Empty returns the identity changeset, nil.
func (Family) Empty() Change { return nil }

// IsEmpty reports whether change carries no operations.
func (Family) IsEmpty(change Change) bool { return len(change) == 0 }

// EncodeForJSON and DecodeJSON are offered as one possible wire format for a
// host that wants to persist or transmit a Delta; editmanager itself has no
// opinion on snapshot/restore format (SPEC_FULL.md §9 records this as an
// explicitly open question left to the surrounding layer).
func EncodeForJSON(d Delta) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	if err := enc.Encode(d); err != nil {
		return nil, errors.Wrap(err, "kvchange: encoding delta")
	}
	return b.Bytes(), nil
}

// DecodeJSON is the inverse of EncodeForJSON.
func DecodeJSON(data []byte) (Delta, error) {
	var d Delta
	if err := json.Unmarshal(data, &d); err != nil {
		return Delta{}, errors.Wrap(err, "kvchange: decoding delta")
	}
	return d, nil
}
