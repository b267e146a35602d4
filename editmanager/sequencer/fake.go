package sequencer

import (
	"context"
	"encoding/json"
	"sync"

	"roci.dev/edit-manager/editmanager"
)

// Fake is an in-memory Sequencer for tests: a single mutex-guarded log, all
// subscribers fed from the same append-only slice. Grounded in the
// teacher's db/testing.go helpers, which likewise built small in-memory
// stand-ins for the transport rather than standing up a real server in
// unit tests.
type Fake struct {
	mu      sync.Mutex
	log     []Envelope
	notify  []chan struct{}
	nextSeq editmanager.SeqNumber
}

// NewFake returns an empty Fake sequencer.
func NewFake() *Fake {
	return &Fake{}
}

var _ Sequencer = (*Fake)(nil)

func (f *Fake) Submit(_ context.Context, session editmanager.SessionId, refNumber editmanager.SeqNumber, changeset json.RawMessage) (Envelope, error) {
	f.mu.Lock()
	f.nextSeq = f.nextSeq.Next()
	env := Envelope{
		SessionID: session,
		SeqNumber: f.nextSeq,
		RefNumber: refNumber,
		Changeset: changeset,
	}
	f.log = append(f.log, env)
	waiters := f.notify
	f.notify = nil
	f.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
	return env, nil
}

func (f *Fake) Subscribe(ctx context.Context, _ editmanager.SessionId, afterSeq editmanager.SeqNumber) (<-chan Envelope, error) {
	out := make(chan Envelope)
	go f.deliver(ctx, afterSeq, out)
	return out, nil
}

func (f *Fake) deliver(ctx context.Context, afterSeq editmanager.SeqNumber, out chan<- Envelope) {
	defer close(out)
	cursor := afterSeq
	for {
		f.mu.Lock()
		var pending []Envelope
		for _, e := range f.log {
			if cursor.Less(e.SeqNumber) {
				pending = append(pending, e)
			}
		}
		var wake chan struct{}
		if len(pending) == 0 {
			wake = make(chan struct{})
			f.notify = append(f.notify, wake)
		}
		f.mu.Unlock()

		for _, e := range pending {
			select {
			case out <- e:
				cursor = e.SeqNumber
			case <-ctx.Done():
				return
			}
		}
		if len(pending) > 0 {
			continue
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return
		}
	}
}
