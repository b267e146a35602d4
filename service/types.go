package service

import "encoding/json"

// SetLocalSessionIdRequest carries the session id a host assigns itself
// once, at startup.
type SetLocalSessionIdRequest struct {
	SessionID string `json:"sessionId"`
}

type SetLocalSessionIdResponse struct{}

// AddLocalChangeRequest carries a host-authored changeset, JSON-encoded by
// the Codec's own wire format.
type AddLocalChangeRequest struct {
	Changeset json.RawMessage `json:"changeset"`
}

type AddLocalChangeResponse struct {
	Delta json.RawMessage `json:"delta"`
}

// AddSequencedChangeRequest mirrors an editmanager.Commit, with Changeset
// left as the Codec's JSON encoding of C.
type AddSequencedChangeRequest struct {
	SessionID string          `json:"sessionId"`
	SeqNumber int64           `json:"seqNumber"`
	RefNumber int64           `json:"refNumber"`
	Changeset json.RawMessage `json:"changeset"`
}

type AddSequencedChangeResponse struct {
	Delta json.RawMessage `json:"delta"`
}

type GetTrunkRequest struct{}

// TrunkCommit is the wire representation of one editmanager.Commit.
type TrunkCommit struct {
	SessionID string          `json:"sessionId"`
	SeqNumber int64           `json:"seqNumber"`
	RefNumber int64           `json:"refNumber"`
	Changeset json.RawMessage `json:"changeset"`
}

type GetTrunkResponse struct {
	Commits []TrunkCommit `json:"commits"`
}

type GetLocalChangesRequest struct{}

type GetLocalChangesResponse struct {
	Changesets []json.RawMessage `json:"changesets"`
}
