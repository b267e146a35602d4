package service_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roci.dev/edit-manager/editmanager"
	"roci.dev/edit-manager/editmanager/intchange"
	"roci.dev/edit-manager/service"
)

func newService() *service.Service[intchange.Change, intchange.Delta] {
	mgr := editmanager.New[intchange.Change, intchange.Delta](intchange.Family{}, &[]int{})
	return service.New[intchange.Change, intchange.Delta](mgr, intchange.Codec{})
}

func TestDispatchUnsupportedRpcIsError(t *testing.T) {
	s := newService()
	_, err := s.Dispatch("bogus", nil)
	assert.Error(t, err)
}

func TestDispatchSetLocalSessionIdThenAddLocalChange(t *testing.T) {
	s := newService()

	_, err := s.Dispatch("setLocalSessionId", mustJSON(t, service.SetLocalSessionIdRequest{SessionID: "A"}))
	require.NoError(t, err)

	respBytes, err := s.Dispatch("addLocalChange", mustJSON(t, service.AddLocalChangeRequest{
		Changeset: mustJSON(t, intchange.Change{1, 2}),
	}))
	require.NoError(t, err)

	var resp service.AddLocalChangeResponse
	require.NoError(t, json.Unmarshal(respBytes, &resp))

	var delta intchange.Delta
	require.NoError(t, json.Unmarshal(resp.Delta, &delta))
	assert.Equal(t, intchange.Delta{1, 2}, delta)
}

func TestDispatchAddLocalChangeBeforeSessionIdIsError(t *testing.T) {
	s := newService()
	_, err := s.Dispatch("addLocalChange", mustJSON(t, service.AddLocalChangeRequest{
		Changeset: mustJSON(t, intchange.Change{1}),
	}))
	assert.Error(t, err)
}

func TestDispatchGetTrunkReflectsSequencedChanges(t *testing.T) {
	s := newService()
	_, err := s.Dispatch("setLocalSessionId", mustJSON(t, service.SetLocalSessionIdRequest{SessionID: "A"}))
	require.NoError(t, err)

	_, err = s.Dispatch("addSequencedChange", mustJSON(t, service.AddSequencedChangeRequest{
		SessionID: "peer",
		SeqNumber: 1,
		RefNumber: 0,
		Changeset: mustJSON(t, intchange.Change{7}),
	}))
	require.NoError(t, err)

	respBytes, err := s.Dispatch("getTrunk", mustJSON(t, service.GetTrunkRequest{}))
	require.NoError(t, err)

	var resp service.GetTrunkResponse
	require.NoError(t, json.Unmarshal(respBytes, &resp))
	require.Len(t, resp.Commits, 1)
	assert.Equal(t, "peer", resp.Commits[0].SessionID)

	var cs intchange.Change
	require.NoError(t, json.Unmarshal(resp.Commits[0].Changeset, &cs))
	assert.Equal(t, intchange.Change{7}, cs)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
