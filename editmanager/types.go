// Package editmanager implements the collaborative-editing core: it
// reconciles locally produced edits with a server-sequenced global order of
// edits from all sessions, and emits the corrective delta a host
// application must apply to its in-memory view after each event.
//
// The package is policy-free. It never inspects a changeset's contents; all
// algebra (compose, invert, rebase, rebaseAnchors, intoDelta) is supplied by
// a Rebaser capability at construction time.
package editmanager

import "fmt"

// SessionId identifies a participant. Opaque outside of equality.
type SessionId string

func (s SessionId) String() string { return string(s) }

// SeqNumber is a monotonically increasing, totally ordered sequence number
// assigned by the central sequencer. Zero is the pre-history value used by
// fresh clients with no observed commits.
//
// SeqNumber is also used to represent a commit's refNumber: the largest
// seqNumber its author had observed when authoring it. The two concepts
// share a domain and are always compared against each other, so they are
// not split into separate nominal types (see SPEC_FULL.md §3).
type SeqNumber int64

// NoSeqNumber is the pre-history value: no commits observed yet.
const NoSeqNumber SeqNumber = 0

func (s SeqNumber) String() string { return fmt.Sprintf("%d", int64(s)) }

// Less reports whether s precedes other in the sequencer's total order.
func (s SeqNumber) Less(other SeqNumber) bool { return s < other }

// Next returns the sequence number immediately following s.
func (s SeqNumber) Next() SeqNumber { return s + 1 }
