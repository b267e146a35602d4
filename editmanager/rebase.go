package editmanager

// rebasePeerCommit implements the peer-commit rebase algorithm of spec.md
// §4.2, steps 1-6. It is only ever called with commit already known to be
// concurrent with some suffix of the trunk and with all of the local
// branch (i.e. not the local session's own commit).
func (m *EditManager[C, D]) rebasePeerCommit(commit Commit[C]) (D, error) {
	r := m.rebaser

	// Step 1 — transpose the incoming change over the concurrent trunk
	// tail T[k..], where k is the index of the first trunk commit with
	// seqNumber > commit.RefNumber.
	cPrime := commit.Changeset
	for _, t := range m.trunk.concurrentTail(commit.RefNumber) {
		if r.IsEmpty(t.Changeset) {
			continue
		}
		cPrime = r.Rebase(cPrime, t.Changeset)
	}

	// Short-circuit: a transposed change that is the identity can never
	// affect the local branch or the anchor set (rebase(x, identity) == x
	// by the laws in changefamily.go), so there is nothing to undo or
	// redo. Composing it in anyway would still be correct algebraically,
	// but only if Compose/Invert actually simplify adjacent inverses —
	// spec.md §4.3 calls for the short-circuit precisely so the emitted
	// delta doesn't depend on a Change Family doing that simplification.
	if r.IsEmpty(cPrime) {
		m.trunk.append(commit)
		return r.IntoDelta(r.Empty()), nil
	}

	localWasEmpty := m.local.empty()

	// Step 2 — compute the undo prefix that rolls back the currently
	// emitted view (trunkTail ∘ L) to make room for cPrime. Short-circuit
	// when L is empty so empty changes never produce delta noise
	// (spec.md §4.3).
	var undo C
	if localWasEmpty {
		undo = r.Empty()
	} else {
		undo = r.Invert(r.Compose(m.local.changesets()))
	}

	// Step 3 — append commit (verbatim — the trunk stores the
	// as-authored changeset, not its transposed form) to the trunk.
	m.trunk.append(commit)

	// Step 4 — rebase the local branch onto the new trunk tail. The
	// rebase base advances after each entry so every local entry's input
	// context remains the composition of everything before it.
	rebasedEntries := make([]localEntry[C], len(m.local.entries))
	rebaseBase := cPrime
	newTrunkLen := m.trunk.len()
	for i, e := range m.local.entries {
		oldChange := e.changeset
		rebasedEntries[i] = localEntry[C]{
			changeset: r.Rebase(oldChange, rebaseBase),
			refSeq:    newTrunkLen,
		}
		rebaseBase = r.Rebase(rebaseBase, oldChange)
	}
	m.local.entries = rebasedEntries

	// Step 5 — update anchors over the single transposed remote change,
	// never over the undo/redo scaffolding: the anchor set tracks
	// intentions, not transient view-correction deltas.
	r.RebaseAnchors(m.anchors, cPrime)

	// Step 6 — emit the delta that carries the caller's view from
	// trunkTail ∘ L to the new trunkTail ∘ L_rebased.
	if localWasEmpty {
		return r.IntoDelta(cPrime), nil
	}

	redo := r.Compose(changesetsOf(rebasedEntries))
	combined := r.Compose([]C{undo, cPrime, redo})
	return r.IntoDelta(combined), nil
}

func changesetsOf[C any](entries []localEntry[C]) []C {
	out := make([]C, len(entries))
	for i, e := range entries {
		out[i] = e.changeset
	}
	return out
}
