// Package service implements a JSON dispatch façade over an EditManager,
// grounded in the teacher's repm package: a single Dispatch(name, req)
// (resp, err) entry point intended for a host binding (mobile, wasm, an
// IPC boundary) that would rather not deal with Go generics directly.
// Dispatch recovers from panics and logs timing the same way repm.Dispatch
// did, and a Service is not itself thread-safe — serialize calls the same
// way repm's package comment requires of its callers.
package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"

	rlog "roci.dev/diff-server/util/log"
	"roci.dev/diff-server/util/time"

	"roci.dev/edit-manager/editmanager"
)

// Logger allows a host to provide a place to send this package's log
// messages, mirroring repm.Logger.
type Logger interface {
	io.Writer
}

// Init redirects this package's log output to logger (stderr if nil), the
// same one-time setup repm.Init performs via rlog.Init before any Service
// is dispatched to.
func Init(logger Logger) {
	if logger == nil {
		logger = os.Stderr
	}
	rlog.Init(logger, rlog.Options{Prefix: true})
}

// Codec converts between a Change Family's opaque C/D types and the JSON
// bytes a Dispatch caller sends and receives. A host wires in the Codec
// matching whichever Change Family its EditManager was built with (e.g.
// intchange or kvchange), the same way repm's jsnoms conversions were
// fixed to the one document format the teacher's db package used.
type Codec[C any, D any] interface {
	DecodeChange(data json.RawMessage) (C, error)
	EncodeDelta(delta D) (json.RawMessage, error)
}

// Service wraps an EditManager and a Codec behind the named-RPC surface
// Dispatch exposes.
type Service[C any, D any] struct {
	Manager *editmanager.EditManager[C, D]
	Codec   Codec[C, D]
}

// New returns a Service wrapping manager, translating request/response
// payloads through codec.
func New[C any, D any](manager *editmanager.EditManager[C, D], codec Codec[C, D]) *Service[C, D] {
	return &Service[C, D]{Manager: manager, Codec: codec}
}

// Dispatch routes rpc to the matching operation, JSON-decoding data into
// the operation's request type and JSON-encoding its response, recovering
// from any panic raised along the way into an error instead — the same
// contract repm.Dispatch made for its mobile callers, who have no
// existing convention for propagating a Go panic across the language
// boundary.
func (s *Service[C, D]) Dispatch(rpc string, data []byte) (ret []byte, err error) {
	t0 := time.Now()
	defer func() {
		t1 := time.Now()
		log.Printf("Dispatch %v %s took %v - returned %v bytes", rpc, string(data), t1.Sub(t0), len(ret))
		if r := recover(); r != nil {
			var msg string
			if e, ok := r.(error); ok {
				msg = e.Error()
			} else {
				msg = fmt.Sprintf("%v", r)
			}
			log.Printf("service panicked with: %s\n%s", msg, string(debug.Stack()))
			ret = nil
			err = fmt.Errorf("service panicked with: %s", msg)
		}
	}()

	switch rpc {
	case "setLocalSessionId":
		return s.dispatchSetLocalSessionId(data)
	case "addLocalChange":
		return s.dispatchAddLocalChange(data)
	case "addSequencedChange":
		return s.dispatchAddSequencedChange(data)
	case "getTrunk":
		return s.dispatchGetTrunk(data)
	case "getLocalChanges":
		return s.dispatchGetLocalChanges(data)
	}
	return nil, fmt.Errorf("service: unsupported rpc name: %s", rpc)
}
