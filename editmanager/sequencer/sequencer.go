// Package sequencer describes the transport boundary the Edit Manager
// consumes but never owns (SPEC_FULL.md §6): something that assigns a
// contiguous seqNumber to each submitted local changeset and broadcasts the
// resulting commit to every participant, including the one that authored
// it. The Edit Manager is never handed a Sequencer directly — a host passes
// each locally authored change to both AddLocalChange and Submit, and feeds
// a Sequencer's broadcast stream into AddSequencedChange, the same way the teacher's db package kept Push
// and Pull entirely separate from the commit DAG they fed.
package sequencer

import (
	"context"
	"encoding/json"

	"roci.dev/edit-manager/editmanager"
)

// Envelope is the wire representation of a Commit[json.RawMessage]: the
// sequencer transports an opaque changeset payload, never a typed C, so it
// can front any Change Family a host chooses.
type Envelope struct {
	SessionID editmanager.SessionId `json:"sessionId"`
	SeqNumber editmanager.SeqNumber `json:"seqNumber"`
	RefNumber editmanager.SeqNumber `json:"refNumber"`
	Changeset json.RawMessage       `json:"changeset"`
}

// Sequencer is the capability a host needs to participate in the global
// commit order: submit a locally authored changeset and receive back the
// seqNumber it was assigned, and subscribe to the resulting broadcast
// stream of every participant's commits in assigned order.
type Sequencer interface {
	// Submit assigns the next seqNumber to changeset, authored by session
	// against refNumber (the caller's current trunk tail), and returns the
	// resulting Envelope. The envelope is also delivered through Subscribe
	// to every subscriber, the submitting session included, so the author
	// receives its own commit there for the silent ack (spec.md §4.1).
	Submit(ctx context.Context, session editmanager.SessionId, refNumber editmanager.SeqNumber, changeset json.RawMessage) (Envelope, error)

	// Subscribe returns a channel of every commit in assigned order,
	// starting after afterSeq, including commits authored by session
	// itself (addSequencedChange relies on seeing its own commits to
	// silently ack them, per spec.md §4.1). The channel is closed when ctx
	// is done.
	Subscribe(ctx context.Context, session editmanager.SessionId, afterSeq editmanager.SeqNumber) (<-chan Envelope, error)
}
