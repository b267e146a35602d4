package editmanager

// localEntry is one not-yet-sequenced local edit, L[i] from spec.md §3:
// { changeset, refSeq } where refSeq is the trunk length at the time the
// entry was created.
type localEntry[C any] struct {
	changeset C
	refSeq    SeqNumber
}

// localBranch is the ordered queue of locally produced, not-yet-sequenced
// changesets, L[0..m-1]. Entries are removed in order as the local
// session's own commits are observed on the trunk.
type localBranch[C any] struct {
	entries []localEntry[C]
}

func (l *localBranch[C]) len() int {
	return len(l.entries)
}

func (l *localBranch[C]) empty() bool {
	return len(l.entries) == 0
}

func (l *localBranch[C]) push(change C, refSeq SeqNumber) {
	l.entries = append(l.entries, localEntry[C]{changeset: change, refSeq: refSeq})
}

// popHead removes and returns the oldest local entry. The caller must
// ensure the branch is non-empty.
func (l *localBranch[C]) popHead() localEntry[C] {
	head := l.entries[0]
	l.entries = l.entries[1:]
	return head
}

// changesets returns the changesets in branch order, for composing an undo
// or redo prefix.
func (l *localBranch[C]) changesets() []C {
	out := make([]C, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.changeset
	}
	return out
}

// view returns a read-only snapshot of the current local changesets in
// order, for getLocalChanges() (spec.md §4.4).
func (l *localBranch[C]) view() []C {
	return l.changesets()
}
