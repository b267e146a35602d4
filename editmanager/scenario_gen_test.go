package editmanager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roci.dev/edit-manager/editmanager"
	"roci.dev/edit-manager/editmanager/intchange"
)

// This file reimplements the teacher corpus's "generator-driven exhaustive
// test" (spec.md §9 design notes) as a backtracking iterator, rather than a
// recursive generator closure: nextInterleaving below enumerates every
// valid action sequence of a fixed length and hands each one to a visitor.
// The core itself has no generators; this lives entirely in test code.

const (
	genClients = 3 // N_CLIENTS
	genSteps   = 5 // N_STEPS
	maxMints   = 2 // per-client cap, keeps the enumeration tractable
)

type genAction struct {
	kind   string // "mint" or "sequence"
	client int    // meaningful only for "mint"
}

// pendingEdit is a local edit a client minted but the sequencer hasn't yet
// assigned a seqNumber to.
type pendingEdit struct {
	client int
	value  int
	ref    editmanager.SeqNumber
}

// nextInterleaving enumerates every action sequence of length genSteps that
// is valid given the constraints (a client can't mint past maxMints, and
// "sequence" requires at least one pending edit), calling visit once per
// sequence found.
func nextInterleaving(visit func(actions []genAction)) {
	var rec func(prefix []genAction, mints [genClients]int, pendingCount int)
	rec = func(prefix []genAction, mints [genClients]int, pendingCount int) {
		if len(prefix) == genSteps {
			cp := make([]genAction, len(prefix))
			copy(cp, prefix)
			visit(cp)
			return
		}
		for c := 0; c < genClients; c++ {
			if mints[c] >= maxMints {
				continue
			}
			mints[c]++
			rec(append(prefix, genAction{kind: "mint", client: c}), mints, pendingCount+1)
			mints[c]--
		}
		if pendingCount > 0 {
			rec(append(prefix, genAction{kind: "sequence"}), mints, pendingCount-1)
		}
	}
	rec(nil, [genClients]int{}, 0)
}

// TestExhaustiveInterleaving is spec.md §8 property 6: for N_CLIENTS=3,
// N_STEPS=5, every valid interleaving of mint/sequence/receive actions must
// leave every client satisfying invariants 1-4 (convergence, silent
// own-ack, local-first locality is exercised per-mint in runInterleaving,
// anchor parity).
func TestExhaustiveInterleaving(t *testing.T) {
	count := 0
	nextInterleaving(func(actions []genAction) {
		count++
		runInterleaving(t, actions)
	})
	require.Greater(t, count, 0, "generator must produce at least one interleaving")
	t.Logf("checked %d interleavings", count)
}

func runInterleaving(t *testing.T, actions []genAction) {
	t.Helper()

	anchors := make([]*[]int, genClients)
	managers := make([]*editmanager.EditManager[intchange.Change, intchange.Delta], genClients)
	sessions := make([]editmanager.SessionId, genClients)
	for i := range managers {
		sessions[i] = editmanager.SessionId(string(rune('A' + i)))
		a := &[]int{}
		anchors[i] = a
		mgr := editmanager.New[intchange.Change, intchange.Delta](intchange.Family{}, a)
		mgr.SetLocalSessionId(sessions[i])
		managers[i] = mgr
	}

	var pending []pendingEdit
	var trunkSeq editmanager.SeqNumber
	nextValue := 1
	var allMinted []int

	for _, a := range actions {
		switch a.kind {
		case "mint":
			v := nextValue
			nextValue++
			allMinted = append(allMinted, v)
			d, err := managers[a.client].AddLocalChange(intchange.Change{v})
			require.NoError(t, err)
			assert.Equal(t, intchange.Delta{v}, d, "local-first locality: addLocalChange must return intoDelta(x) exactly")
			pending = append(pending, pendingEdit{client: a.client, value: v, ref: trunkSeq})
		case "sequence":
			if len(pending) == 0 {
				continue
			}
			next := pending[0]
			pending = pending[1:]
			trunkSeq++
			commit := editmanager.Commit[intchange.Change]{
				SessionID: sessions[next.client],
				SeqNumber: trunkSeq,
				RefNumber: next.ref,
				Changeset: intchange.Change{next.value},
			}
			for i, mgr := range managers {
				d, err := mgr.AddSequencedChange(commit)
				require.NoError(t, err)
				if i == next.client {
					assert.Empty(t, d, "own-ack must be silent")
				}
			}
		}
	}

	// Drain any still-pending edits so every client's trunk reaches the
	// same final state for comparison.
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		trunkSeq++
		commit := editmanager.Commit[intchange.Change]{
			SessionID: sessions[next.client],
			SeqNumber: trunkSeq,
			RefNumber: next.ref,
			Changeset: intchange.Change{next.value},
		}
		for _, mgr := range managers {
			_, err := mgr.AddSequencedChange(commit)
			require.NoError(t, err)
		}
	}

	var want []int
	for _, c := range managers[0].GetTrunk() {
		want = append(want, c.Changeset...)
	}
	for i := 1; i < genClients; i++ {
		var got []int
		for _, c := range managers[i].GetTrunk() {
			got = append(got, c.Changeset...)
		}
		assert.Equal(t, want, got, "convergence: every client's trunk must match")
		assert.Equal(t, want, *anchors[i], "anchor parity: anchors must equal trunk intentions in trunk order")
	}
	assert.Equal(t, want, *anchors[0], "anchor parity: anchors must equal trunk intentions in trunk order")
}
