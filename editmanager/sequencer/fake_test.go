package sequencer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roci.dev/edit-manager/editmanager"
	"roci.dev/edit-manager/editmanager/sequencer"
)

func TestFakeSubmitAssignsContiguousSeqNumbers(t *testing.T) {
	f := sequencer.NewFake()
	ctx := context.Background()

	e1, err := f.Submit(ctx, "A", 0, json.RawMessage(`1`))
	require.NoError(t, err)
	assert.Equal(t, editmanager.SeqNumber(1), e1.SeqNumber)

	e2, err := f.Submit(ctx, "B", 0, json.RawMessage(`2`))
	require.NoError(t, err)
	assert.Equal(t, editmanager.SeqNumber(2), e2.SeqNumber)
}

func TestFakeSubscribeDeliversOwnAndPeerCommits(t *testing.T) {
	f := sequencer.NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := f.Subscribe(ctx, "A", 0)
	require.NoError(t, err)

	_, err = f.Submit(ctx, "A", 0, json.RawMessage(`1`))
	require.NoError(t, err)

	select {
	case env := <-sub:
		assert.Equal(t, editmanager.SessionId("A"), env.SessionID, "subscribers see their own commits too, so addSequencedChange can silently ack them")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for own commit delivery")
	}

	_, err = f.Submit(ctx, "B", 1, json.RawMessage(`2`))
	require.NoError(t, err)

	select {
	case env := <-sub:
		assert.Equal(t, editmanager.SessionId("B"), env.SessionID, "subscribers see peer commits")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for peer commit delivery")
	}
}

func TestFakeSubscribeSkipsAlreadySeenCommits(t *testing.T) {
	f := sequencer.NewFake()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := f.Submit(ctx, "A", 0, json.RawMessage(`1`))
	require.NoError(t, err)

	sub, err := f.Subscribe(ctx, "B", 1)
	require.NoError(t, err)

	_, err = f.Submit(ctx, "B", 1, json.RawMessage(`2`))
	require.NoError(t, err)

	select {
	case env := <-sub:
		assert.Equal(t, editmanager.SeqNumber(2), env.SeqNumber, "afterSeq=1 must skip the already-sequenced commit 1")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for commit delivery")
	}
}
