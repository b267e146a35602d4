package kvchange_test

import (
	"testing"

	"github.com/attic-labs/noms/go/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roci.dev/diff-server/kv"

	"roci.dev/edit-manager/editmanager"
	"roci.dev/edit-manager/editmanager/kvchange"
)

func TestPutDelComposeAndInvert(t *testing.T) {
	sp, err := spec.ForDatabase("mem")
	require.NoError(t, err)
	defer sp.Close()
	noms := sp.GetDatabase()

	fam := kvchange.Family{Noms: noms}
	base := kv.NewMap(noms)

	tx := kvchange.NewTransaction(noms, base)
	require.NoError(t, tx.Put("foo", []byte(`"bar"`)))
	ok, err := tx.Del("missing")
	require.NoError(t, err)
	assert.False(t, ok, "deleting an absent key stages nothing")
	change, err := tx.Build()
	require.NoError(t, err)
	assert.Len(t, change, 1)

	delta := fam.IntoDelta(change)
	require.Len(t, delta.Ops, 1)
	assert.Equal(t, "put", delta.Ops[0].Op)
	assert.Equal(t, "foo", delta.Ops[0].Key)

	inv := fam.Invert(change)
	require.Len(t, inv, 1)
	assert.Equal(t, kvchange.OpDel, inv[0].Kind, "inverting a Put of a previously-absent key must Del it")
	assert.Equal(t, "foo", inv[0].Key)

	// Putting again over an existing value must capture Prev so a later
	// Invert can restore it. The overwrite is staged against a map that
	// already holds foo (base itself is never mutated by a Transaction).
	withFoo := base.Edit()
	fam.RebaseAnchors(withFoo, change)
	tx2 := kvchange.NewTransaction(noms, withFoo.Build())
	require.NoError(t, tx2.Put("foo", []byte(`"baz"`)))
	change2, err := tx2.Build()
	require.NoError(t, err)
	inv2 := fam.Invert(change2)
	require.Len(t, inv2, 1)
	assert.Equal(t, kvchange.OpPut, inv2[0].Kind)
	assert.Equal(t, []byte(`"bar"`), inv2[0].Value, "inverting an overwrite restores the prior value")
}

func TestComposeConcatenatesInOrder(t *testing.T) {
	fam := kvchange.Family{}
	a := kvchange.Change{{Kind: kvchange.OpPut, Key: "a", Value: []byte("1")}}
	b := kvchange.Change{{Kind: kvchange.OpDel, Key: "b"}}
	got := fam.Compose([]kvchange.Change{a, b})
	assert.Equal(t, kvchange.Change{a[0], b[0]}, got)
}

func TestEmpty(t *testing.T) {
	fam := kvchange.Family{}
	assert.True(t, fam.IsEmpty(fam.Empty()))
	assert.False(t, fam.IsEmpty(kvchange.Change{{Kind: kvchange.OpDel, Key: "x"}}))
}

func TestRebaseAnchorsAppliesOpsToEditor(t *testing.T) {
	sp, err := spec.ForDatabase("mem")
	require.NoError(t, err)
	defer sp.Close()
	noms := sp.GetDatabase()

	fam := kvchange.Family{Noms: noms}
	ed := kv.NewMap(noms).Edit()

	fam.RebaseAnchors(ed, kvchange.Change{
		{Kind: kvchange.OpPut, Key: "k", Value: []byte(`42`)},
	})

	built := ed.Build()
	assert.True(t, built.NomsMap().Len() == 1)
}

func TestEncodeDecodeJSONRoundTrips(t *testing.T) {
	d := kvchange.Delta{Ops: []kvchange.PatchOp{{Op: "put", Key: "k", Value: []byte(`1`)}}}
	encoded, err := kvchange.EncodeForJSON(d)
	require.NoError(t, err)

	got, err := kvchange.DecodeJSON(encoded)
	require.NoError(t, err)
	assert.Equal(t, d.Ops[0].Key, got.Ops[0].Key)
}

var _ editmanager.Rebaser[kvchange.Change, kvchange.Delta] = kvchange.Family{}
