package sequencer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"roci.dev/diff-server/util/countingreader"
	"roci.dev/diff-server/util/verbose"

	"roci.dev/edit-manager/editmanager"
)

// HTTP is a Sequencer implementation backed by a remote endpoint, grounded
// in the teacher's db/push.go and db/pull.go request/response shapes: a
// POST .../submit to assign a seqNumber, and a long-polling GET .../after
// to retrieve everything sequenced since a given point.
type HTTP struct {
	BaseURL string
	Auth    string

	// Progress, if set, is called as response bytes for a poll arrive,
	// mirroring the teacher's Pull Progress callback.
	Progress func(bytesReceived, bytesExpected uint64)

	c *http.Client
}

var _ Sequencer = (*HTTP)(nil)

func (h *HTTP) client() *http.Client {
	if h.c == nil {
		h.c = &http.Client{Timeout: 20 * time.Second}
	}
	return h.c
}

type submitRequest struct {
	SessionID editmanager.SessionId `json:"sessionId"`
	RefNumber editmanager.SeqNumber `json:"refNumber"`
	Changeset json.RawMessage       `json:"changeset"`
}

// Submit POSTs changeset to BaseURL+"/submit" and decodes the assigned
// Envelope from the response body.
func (h *HTTP) Submit(ctx context.Context, session editmanager.SessionId, refNumber editmanager.SeqNumber, changeset json.RawMessage) (Envelope, error) {
	url := h.BaseURL + "/submit"
	body, err := json.Marshal(submitRequest{SessionID: session, RefNumber: refNumber, Changeset: changeset})
	if err != nil {
		return Envelope{}, errors.Wrap(err, "sequencer: encoding submit request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return Envelope{}, errors.Wrap(err, "sequencer: building submit request")
	}
	if h.Auth != "" {
		req.Header.Add("Authorization", h.Auth)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "sequencer: request to %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := ioutil.ReadAll(resp.Body)
		return Envelope{}, fmt.Errorf("sequencer: %s returned %s: %s", url, resp.Status, respBody)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Envelope{}, errors.Wrapf(err, "sequencer: response from %s is not valid JSON", url)
	}
	return env, nil
}

// Subscribe long-polls BaseURL+"/after" for envelopes sequenced after
// afterSeq, re-polling in a loop with the last seen seqNumber as the new
// cursor, until ctx is done.
func (h *HTTP) Subscribe(ctx context.Context, session editmanager.SessionId, afterSeq editmanager.SeqNumber) (<-chan Envelope, error) {
	out := make(chan Envelope)
	go h.poll(ctx, session, afterSeq, out)
	return out, nil
}

func (h *HTTP) poll(ctx context.Context, session editmanager.SessionId, afterSeq editmanager.SeqNumber, out chan<- Envelope) {
	defer close(out)
	cursor := afterSeq
	for {
		envs, err := h.fetchAfter(ctx, session, cursor)
		if err != nil {
			verbose.Log("sequencer: poll error, retrying: %s", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		for _, e := range envs {
			select {
			case out <- e:
				cursor = e.SeqNumber
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (h *HTTP) fetchAfter(ctx context.Context, session editmanager.SessionId, afterSeq editmanager.SeqNumber) ([]Envelope, error) {
	url := fmt.Sprintf("%s/after?session=%s&afterSeq=%s", h.BaseURL, session, afterSeq)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "sequencer: building poll request")
	}
	if h.Auth != "" {
		req.Header.Add("Authorization", h.Auth)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "sequencer: request to %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(resp.Body)
		return nil, fmt.Errorf("sequencer: %s returned %s: %s", url, resp.Status, body)
	}

	cr := &countingreader.Reader{R: resp.Body}
	if h.Progress != nil {
		expected := resp.ContentLength
		cr.Callback = func() {
			rec := cr.Count
			exp := uint64(expected)
			if exp == 0 || rec > exp {
				exp = rec
			}
			h.Progress(rec, exp)
		}
	}

	var envs []Envelope
	if err := json.NewDecoder(cr).Decode(&envs); err != nil {
		return nil, errors.Wrapf(err, "sequencer: response from %s is not valid JSON", url)
	}
	return envs, nil
}
