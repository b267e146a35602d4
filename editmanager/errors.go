package editmanager

import "fmt"

// ProtocolViolation signals that a caller broke the contract the sequencer
// guarantees: sequenced commits delivered out of order or with a gap in
// seqNumbers, an own commit arriving while the local branch is empty, or a
// non-empty local branch on a manager with no local session id. An own
// commit is not compared with the head of the local branch; a mismatch
// there is not detected. It is fatal: per spec.md §7 there is no recovery,
// the session must be rebuilt from a fresh snapshot.
type ProtocolViolation struct {
	msg string
}

func (e ProtocolViolation) Error() string { return e.msg }

func newProtocolViolation(format string, args ...interface{}) ProtocolViolation {
	return ProtocolViolation{msg: fmt.Sprintf(format, args...)}
}

// ErrNoLocalSessionID is returned by AddLocalChange when called before
// SetLocalSessionId, per spec.md §4.1 and §7.
var ErrNoLocalSessionID = usageError{"addLocalChange called before setLocalSessionId"}

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }
