package editmanager

// Commit is an immutable, sequenced edit: the record
// ⟨sessionId, seqNumber, refNumber, changeset⟩ from spec.md §3.
//
// refNumber is the largest seqNumber its author had observed at the time of
// authoring the commit; it defines the concurrency frontier for the
// rebase in rebase.go.
type Commit[C any] struct {
	SessionID  SessionId
	SeqNumber  SeqNumber
	RefNumber  SeqNumber
	Changeset  C
}

// ownedBy reports whether c was authored by session.
func (c Commit[C]) ownedBy(session SessionId) bool {
	return c.SessionID == session
}
