package editmanager

// Rebaser is the Change Family capability the Edit Manager consumes. It is
// the Go rendering of the "dynamic-dispatch change family" from the source
// system (SPEC_FULL.md §9): a capability record of function pointers rather
// than a hard-coded concrete rebaser, so the core stays policy-free and
// works for any changeset representation a host application chooses.
//
// C is the opaque changeset type. D is the delta type the host's view layer
// consumes. The Edit Manager never constructs a C or a D itself except via
// these methods.
//
// Implementations must satisfy the algebraic laws spec.md §3 assumes:
//
//	Compose(nil)                    is an identity for composition with any change
//	Invert(Compose([a, b]))         == Compose([Invert(b), Invert(a)])
//	Rebase(a, b)                    applied after b preserves a's intention
//	Rebase(x, Empty())              == x
//
// The Edit Manager assumes these laws and does not verify them.
type Rebaser[C any, D any] interface {
	// Compose sequences changes in order into a single change. Compose(nil)
	// and Compose of an all-empty slice must both yield Empty().
	Compose(changes []C) C

	// Invert returns the compositional inverse of change.
	Invert(change C) C

	// Rebase transposes change so that it applies cleanly after over,
	// while preserving change's intention.
	Rebase(change C, over C) C

	// RebaseAnchors mutates anchors in place so that every anchor it holds
	// is transposed over the single change "over". The Edit Manager calls
	// this exactly once per transposed remote change, never over
	// view-correction scaffolding (undo/redo), so that anchors track
	// intentions rather than transient deltas (spec.md §4.2 Step 5).
	//
	// anchors is an opaque, host-owned handle (typically a pointer or
	// reference type); callers must not read it concurrently with this
	// call (SPEC_FULL.md §4, Non-goal: no generic AnchorSet type param).
	RebaseAnchors(anchors any, over C)

	// IntoDelta projects a changeset into the concrete delta the host's
	// view layer applies.
	IntoDelta(change C) D

	// Empty returns the identity changeset for Compose/Rebase.
	Empty() C

	// IsEmpty reports whether change is (observably) the identity change,
	// used to short-circuit the rebase loop per spec.md §4.3 so that
	// identity changes never contribute gratuitous delta noise.
	IsEmpty(change C) bool
}
