package intchange

import "encoding/json"

// Codec implements service.Codec[Change, Delta] (and its optional
// ChangeEncoder extension) by JSON-encoding Change/Delta directly, since
// both are just []int.
type Codec struct{}

func (Codec) DecodeChange(data json.RawMessage) (Change, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func (Codec) EncodeDelta(delta Delta) (json.RawMessage, error) {
	return json.Marshal(delta)
}

func (Codec) EncodeChange(change Change) (json.RawMessage, error) {
	return json.Marshal(change)
}
