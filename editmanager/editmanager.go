package editmanager

import (
	"log"
	"sync"

	"roci.dev/diff-server/util/chk"
)

// DebugAssertions gates the extra bookkeeping invariant checks below (trunk
// contiguity, local-branch emptiness on own-commit ack, and so on). The
// algebraic laws a Rebaser must satisfy (spec.md §3) are never verified
// here regardless of this flag — they are too costly to check on a hot
// path and are the host's responsibility. Off by default; flip it on in
// tests and debug builds, the same way the teacher corpus gates its own
// chk assertions behind explicit calls rather than building them into
// every hot path unconditionally.
var DebugAssertions = false

// EditManager is the single-threaded cooperative core described by
// SPEC_FULL.md. C is the opaque changeset type, D is the delta type the
// host's view layer consumes.
//
// All operations are synchronous and non-blocking. The mutex exists only so
// that a caller that accidentally calls EditManager from two goroutines
// fails via lock contention instead of corrupting the trunk or local
// branch slices; it is not a substitute for the caller's own
// serialization contract (spec.md §5).
type EditManager[C any, D any] struct {
	rebaser Rebaser[C, D]
	anchors any

	mu             sync.Mutex
	localSessionID SessionId
	sessionSet     bool
	trunk          trunk[C]
	local          localBranch[C]
}

// New constructs an EditManager with empty trunk and local branch. anchors
// is the host-owned anchor set handle passed to rebaser.RebaseAnchors; the
// Edit Manager never reads or retains references into its internals beyond
// passing it through.
func New[C any, D any](rebaser Rebaser[C, D], anchors any) *EditManager[C, D] {
	return &EditManager[C, D]{
		rebaser: rebaser,
		anchors: anchors,
	}
}

func (m *EditManager[C, D]) lock() func() {
	m.mu.Lock()
	return m.mu.Unlock
}

// SetLocalSessionId idempotently records the local session identity. Must
// be called before any call to AddLocalChange. Has no effect on existing
// state if called again.
func (m *EditManager[C, D]) SetLocalSessionId(id SessionId) {
	defer m.lock()()
	if m.sessionSet {
		return
	}
	m.localSessionID = id
	m.sessionSet = true
}

// AddLocalChange appends change to the local branch and returns the delta
// for the caller to apply to its own view. change's intended input context
// is the current local tip (trunk tail composed with all prior local
// entries) — the Edit Manager does not verify this; a mismatched input
// context surfaces through the Rebaser's own invariants (spec.md §4.1).
func (m *EditManager[C, D]) AddLocalChange(change C) (D, error) {
	defer m.lock()()

	var zero D
	if !m.sessionSet {
		return zero, ErrNoLocalSessionID
	}

	m.local.push(change, m.trunk.len())
	return m.rebaser.IntoDelta(change), nil
}

// AddSequencedChange is the central ingestion operation. commit must be
// delivered in strictly increasing seqNumber order; a gap is a
// ProtocolViolation. Behaviour splits on authorship per spec.md §4.1.
func (m *EditManager[C, D]) AddSequencedChange(commit Commit[C]) (D, error) {
	defer m.lock()()

	var zero D

	expected := m.trunk.len().Next()
	if commit.SeqNumber != expected {
		err := newProtocolViolation(
			"addSequencedChange: expected seqNumber %s, got %s (session %s)",
			expected, commit.SeqNumber, commit.SessionID)
		logProtocolViolation(err)
		return zero, err
	}

	if m.sessionSet && commit.ownedBy(m.localSessionID) {
		return m.ackOwnCommit(commit)
	}

	if !m.sessionSet && !m.local.empty() {
		// Per spec.md §9 open question: this can only happen if a local
		// change was appended without ever calling SetLocalSessionId,
		// which AddLocalChange already refuses. Kept as a defensive
		// ProtocolViolation rather than a silent guess.
		err := newProtocolViolation("addSequencedChange: non-empty local branch on a manager with no local session id set")
		logProtocolViolation(err)
		return zero, err
	}

	return m.rebasePeerCommit(commit)
}

// ackOwnCommit handles the "own commit" branch of spec.md §4.1: by
// protocol the head of the local branch is exactly the changeset being
// acknowledged. It is popped, the commit is appended to the trunk as-is,
// and the empty delta is returned because the acknowledged edit was
// already applied to the view when it was first produced.
//
// Anchors are still rebased here, over the local branch head's *current*
// form rather than commit.Changeset: AddLocalChange never touches anchors
// (spec.md §5), so this is the first time the acknowledged edit's
// intention reaches the anchor set. The head entry is the form kept
// up-to-date by every intervening peer-commit rebase (spec.md §4.2 Step
// 4), which is what actually applies cleanly to the current document —
// commit.Changeset, the as-authored original stored verbatim in the
// trunk, may not.
func (m *EditManager[C, D]) ackOwnCommit(commit Commit[C]) (D, error) {
	var zero D
	if m.local.empty() {
		err := newProtocolViolation(
			"addSequencedChange: own commit %s/%s arrived with an empty local branch",
			commit.SessionID, commit.SeqNumber)
		logProtocolViolation(err)
		return zero, err
	}

	if DebugAssertions {
		chk.True(!m.local.empty(), "ackOwnCommit precondition")
	}

	head := m.local.popHead()
	m.trunk.append(commit)
	m.rebaser.RebaseAnchors(m.anchors, head.changeset)

	if DebugAssertions {
		chk.True(m.trunk.tailSeq() == commit.SeqNumber, "trunk tail must equal the acked commit's seqNumber")
	}

	return m.rebaser.IntoDelta(m.rebaser.Empty()), nil
}

// GetTrunk returns a read-only view of sequenced commits in order.
func (m *EditManager[C, D]) GetTrunk() []Commit[C] {
	defer m.lock()()
	return m.trunk.view()
}

// GetLocalChanges returns a read-only view of the current local changesets
// in order.
func (m *EditManager[C, D]) GetLocalChanges() []C {
	defer m.lock()()
	return m.local.view()
}

func logProtocolViolation(err error) {
	log.Printf("editmanager: protocol violation: %s", err)
}
