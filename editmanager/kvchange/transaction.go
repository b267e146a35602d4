package kvchange

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/attic-labs/noms/go/types"
	"github.com/pkg/errors"

	"roci.dev/diff-server/kv"
	nomsjson "roci.dev/diff-server/util/noms/json"
)

// Transaction stages Put/Del operations against a snapshot of a document
// and, on Build, yields the ordered Change those operations compose to —
// the same staging role db.Transaction played in the teacher, but ending in
// a Change for an Edit Manager's AddLocalChange rather than a noms commit.
//
// Transactions are thread safe, following the teacher's Transaction.
type Transaction struct {
	noms types.ValueReadWriter
	base *kv.MapEditor
	ops  []Op
	done bool

	mutex sync.Mutex
}

// NewTransaction opens a Transaction against base, a read-only snapshot of
// the document's current state. base is never mutated; Put/Del instead
// stage Ops recording the prior value they observed in base, so Build can
// hand back both the Change and an Invert-able history.
func NewTransaction(noms types.ValueReadWriter, base kv.Map) *Transaction {
	return &Transaction{noms: noms, base: base.Edit()}
}

func (tx *Transaction) lock() func() {
	tx.mutex.Lock()
	return func() { tx.mutex.Unlock() }
}

// Put stages an add-or-update of id to the JSON-encoded value json.
func (tx *Transaction) Put(id string, json []byte) error {
	value, err := nomsjson.FromJSON(json, tx.noms)
	if err != nil {
		return errors.Wrapf(err, "kvchange: could not Put %q", id)
	}

	defer tx.lock()()
	if tx.done {
		return ErrBuilt
	}

	k := types.String(id)
	prev, err := tx.prevJSON(k)
	if err != nil {
		return err
	}
	if err := tx.base.Set(k, value); err != nil {
		return errors.Wrapf(err, "kvchange: could not Put %q", id)
	}
	tx.ops = append(tx.ops, Op{Kind: OpPut, Key: id, Value: json, Prev: prev})
	return nil
}

// Del stages a removal of id. It reports whether id was present in base;
// like the teacher's Transaction.Del, a no-op removal of an absent key
// stages nothing (so Invert never has to undo a deletion with no prior
// value, per the note on Family.Invert).
func (tx *Transaction) Del(id string) (bool, error) {
	defer tx.lock()()
	if tx.done {
		return false, ErrBuilt
	}

	k := types.String(id)
	if !tx.base.Has(k) {
		return false, nil
	}
	prev, err := tx.prevJSON(k)
	if err != nil {
		return false, err
	}
	if err := tx.base.Remove(k); err != nil {
		return false, errors.Wrapf(err, "kvchange: could not Del %q", id)
	}
	tx.ops = append(tx.ops, Op{Kind: OpDel, Key: id, Prev: prev})
	return true, nil
}

// prevJSON returns the JSON encoding of the value currently staged at k
// (nil if absent).
func (tx *Transaction) prevJSON(k types.String) ([]byte, error) {
	v := tx.base.Get(k)
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := nomsjson.ToJSON(v, &buf); err != nil {
		return nil, errors.Wrapf(err, "kvchange: could not encode prior value of %q", string(k))
	}
	return buf.Bytes(), nil
}

// Build finalizes the transaction and returns the Change its staged Ops
// compose to. A Transaction may only be built once.
func (tx *Transaction) Build() (Change, error) {
	defer tx.lock()()
	if tx.done {
		return nil, ErrBuilt
	}
	tx.done = true
	out := make(Change, len(tx.ops))
	copy(out, tx.ops)
	return out, nil
}

// ErrBuilt is returned from Put/Del/Build once a Transaction has already
// been built, mirroring the teacher's ErrClosed.
var ErrBuilt = fmt.Errorf("kvchange: transaction already built")
