// Package intchange implements a minimal Change Family over integer
// "intentions", grounded in spec.md §8's worked examples: a changeset is an
// ordered list of integers, compose concatenates, invert negates and
// reverses, and (because the operations are commutative, order-independent
// increments) rebase is the identity on the change being rebased — it
// always preserves the incoming intention regardless of what it's rebased
// over.
//
// This family exists to pin the exact testable properties and worked
// scenarios (S1-S5) down to a concrete, runnable Change Family, the same
// role the teacher's db package played for its own noms-backed document:
// a reference implementation of an external capability the core only ever
// consumes through an interface.
package intchange

import "roci.dev/edit-manager/editmanager"

// Change is an ordered list of integer intentions composed together.
type Change []int

// Delta is the concrete view-mutation a host would apply: here, simply the
// flattened list of intentions the change represents, in apply order.
type Delta []int

// Family implements editmanager.Rebaser[Change, Delta].
type Family struct{}

var _ editmanager.Rebaser[Change, Delta] = Family{}

// Compose concatenates changes in order, skipping empties.
func (Family) Compose(changes []Change) Change {
	var out Change
	for _, c := range changes {
		out = append(out, c...)
	}
	return out
}

// Invert reverses order and negates every intention, so that
// Invert(Compose([a, b])) == Compose([Invert(b), Invert(a)]).
func (Family) Invert(change Change) Change {
	out := make(Change, len(change))
	for i, v := range change {
		out[len(change)-1-i] = -v
	}
	return out
}

// Rebase is the identity on change: these integer intentions commute, so
// transposing one over another never changes it. This is what makes S5 in
// spec.md §8 hold: a commit authored concurrently with several others
// rebases to the very same intention.
func (Family) Rebase(change Change, _ Change) Change {
	return change
}

// RebaseAnchors appends over's intentions, in order, to the anchor set —
// anchors here are simply *[]int accumulating the intentions the
// application has observed, so that Anchor parity (spec.md §8 property 4)
// can be checked by comparing it against the flattened trunk.
func (Family) RebaseAnchors(anchors any, over Change) {
	a, ok := anchors.(*[]int)
	if !ok || a == nil || len(over) == 0 {
		return
	}
	*a = append(*a, over...)
}

// IntoDelta projects change directly into a Delta: for this family the two
// types share a representation.
func (Family) IntoDelta(change Change) Delta {
	out := make(Delta, len(change))
	copy(out, change)
	return out
}

// Empty returns the identity changeset, nil.
func (Family) Empty() Change { return nil }

// IsEmpty reports whether change carries no intentions.
func (Family) IsEmpty(change Change) bool { return len(change) == 0 }
