package service

import (
	"encoding/json"

	"roci.dev/edit-manager/editmanager"
)

func mustMarshal(thing interface{}) []byte {
	data, err := json.Marshal(thing)
	if err != nil {
		panic(err)
	}
	return data
}

func (s *Service[C, D]) dispatchSetLocalSessionId(reqBytes []byte) ([]byte, error) {
	var req SetLocalSessionIdRequest
	if err := json.Unmarshal(reqBytes, &req); err != nil {
		return nil, err
	}
	s.Manager.SetLocalSessionId(editmanager.SessionId(req.SessionID))
	return mustMarshal(SetLocalSessionIdResponse{}), nil
}

func (s *Service[C, D]) dispatchAddLocalChange(reqBytes []byte) ([]byte, error) {
	var req AddLocalChangeRequest
	if err := json.Unmarshal(reqBytes, &req); err != nil {
		return nil, err
	}
	change, err := s.Codec.DecodeChange(req.Changeset)
	if err != nil {
		return nil, err
	}
	delta, err := s.Manager.AddLocalChange(change)
	if err != nil {
		return nil, err
	}
	encoded, err := s.Codec.EncodeDelta(delta)
	if err != nil {
		return nil, err
	}
	return mustMarshal(AddLocalChangeResponse{Delta: encoded}), nil
}

func (s *Service[C, D]) dispatchAddSequencedChange(reqBytes []byte) ([]byte, error) {
	var req AddSequencedChangeRequest
	if err := json.Unmarshal(reqBytes, &req); err != nil {
		return nil, err
	}
	change, err := s.Codec.DecodeChange(req.Changeset)
	if err != nil {
		return nil, err
	}
	delta, err := s.Manager.AddSequencedChange(editmanager.Commit[C]{
		SessionID: editmanager.SessionId(req.SessionID),
		SeqNumber: editmanager.SeqNumber(req.SeqNumber),
		RefNumber: editmanager.SeqNumber(req.RefNumber),
		Changeset: change,
	})
	if err != nil {
		return nil, err
	}
	encoded, err := s.Codec.EncodeDelta(delta)
	if err != nil {
		return nil, err
	}
	return mustMarshal(AddSequencedChangeResponse{Delta: encoded}), nil
}

func (s *Service[C, D]) dispatchGetTrunk(reqBytes []byte) ([]byte, error) {
	commits := s.Manager.GetTrunk()
	out := make([]TrunkCommit, 0, len(commits))
	for _, c := range commits {
		encoded, err := s.encodeChangeset(c.Changeset)
		if err != nil {
			return nil, err
		}
		out = append(out, TrunkCommit{
			SessionID: string(c.SessionID),
			SeqNumber: int64(c.SeqNumber),
			RefNumber: int64(c.RefNumber),
			Changeset: encoded,
		})
	}
	return mustMarshal(GetTrunkResponse{Commits: out}), nil
}

func (s *Service[C, D]) dispatchGetLocalChanges(reqBytes []byte) ([]byte, error) {
	changes := s.Manager.GetLocalChanges()
	out := make([]json.RawMessage, 0, len(changes))
	for _, c := range changes {
		encoded, err := s.encodeChangeset(c)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return mustMarshal(GetLocalChangesResponse{Changesets: out}), nil
}

// encodeChangeset encodes c back to JSON for introspection endpoints
// (GetTrunk, GetLocalChanges). Codec itself only decodes C, since a
// Dispatch caller that only ever writes changesets has no need to read
// them back; a Codec that also wants these endpoints implements
// ChangeEncoder.
func (s *Service[C, D]) encodeChangeset(c C) (json.RawMessage, error) {
	enc, ok := s.Codec.(ChangeEncoder[C])
	if !ok {
		return json.Marshal(nil)
	}
	return enc.EncodeChange(c)
}

// ChangeEncoder is an optional Codec extension: a Codec that also
// implements it lets GetTrunk/GetLocalChanges echo changesets back as
// JSON (e.g. for a CLI or debug inspector); a Codec with no sensible JSON
// encoding for C (reasonable for a host that only ever writes, never
// reads back its own changesets over this boundary) can skip it.
type ChangeEncoder[C any] interface {
	EncodeChange(change C) (json.RawMessage, error)
}
