// Command editsim drives a simulated set of collaborating Edit Manager
// sessions against a toy kv document from a scripted scenario, grounded in
// the teacher's cmd/repl (kingpin command structure, ansi-colored output,
// rlog/version wiring) but replacing "a Replicache database" with "a set
// of simulated collaborating sessions".
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/attic-labs/noms/go/spec"
	"github.com/lithammer/shortuuid"
	"github.com/mgutz/ansi"
	"github.com/robertkrimen/otto"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"roci.dev/diff-server/kv"
	rlog "roci.dev/diff-server/util/log"
	"roci.dev/diff-server/util/version"

	"roci.dev/edit-manager/editmanager"
	"roci.dev/edit-manager/editmanager/kvchange"
	"roci.dev/edit-manager/editmanager/sequencer"
)

func main() {
	impl(os.Args[1:], os.Stdout, os.Stderr, os.Exit)
}

func impl(args []string, out, errs io.Writer, exit func(int)) {
	app := kingpin.New("editsim", "Drives a simulated set of collaborating Edit Manager sessions.")
	app.ErrorWriter(errs)
	app.UsageWriter(errs)
	app.Terminate(exit)

	v := app.Flag("version", "Prints the version of this client.").Short('v').Bool()
	app.PreAction(func(pc *kingpin.ParseContext) error {
		if *v {
			fmt.Fprintln(out, version.Version())
			exit(0)
		}
		return nil
	})

	app.Action(func(pc *kingpin.ParseContext) error {
		rlog.Init(errs, rlog.Options{Prefix: true})
		return nil
	})

	runCmd(app, out, errs)

	if len(args) == 0 {
		app.Usage(args)
		return
	}
	if _, err := app.Parse(args); err != nil {
		fmt.Fprintln(errs, err.Error())
		exit(1)
	}
}

// scenarioStep is one step of a scenario script: a named client authors
// ops in order against its own current view.
type scenarioStep struct {
	Client string       `json:"client"`
	Ops    []scenarioOp `json:"ops"`
}

type scenarioOp struct {
	Type  string `json:"type"` // "put" or "del"
	Key   string `json:"key"`
	Value string `json:"value,omitempty"` // raw JSON, only meaningful for "put"
}

func runCmd(parent *kingpin.Application, out, errs io.Writer) {
	kc := parent.Command("run", "Runs a scripted scenario against a simulated set of sessions.")
	path := kc.Arg("script", "path to a JS scenario script defining a `steps` array").Required().String()

	kc.Action(func(_ *kingpin.ParseContext) error {
		steps, err := loadScenario(*path)
		if err != nil {
			return err
		}
		return runScenario(steps, out)
	})
}

// loadScenario evaluates a JS scenario script with otto and extracts its
// `steps` array via JSON.stringify — the same late-bound-per-mutation-logic
// role the teacher's go.mod reserved otto for (application-defined
// mutators), here repurposed so a scenario file can express "client A does
// X, client B does Y" without a Go recompile.
func loadScenario(path string) ([]scenarioStep, error) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	vm := otto.New()
	if _, err := vm.Run(src); err != nil {
		return nil, fmt.Errorf("editsim: evaluating scenario script: %w", err)
	}
	value, err := vm.Run("JSON.stringify(steps)")
	if err != nil {
		return nil, fmt.Errorf("editsim: scenario script must define a `steps` array: %w", err)
	}
	jsonStr, err := value.ToString()
	if err != nil {
		return nil, err
	}

	var steps []scenarioStep
	if err := json.Unmarshal([]byte(jsonStr), &steps); err != nil {
		return nil, fmt.Errorf("editsim: decoding steps: %w", err)
	}
	return steps, nil
}

// clientState is one simulated session: its own EditManager and the
// *kv.MapEditor serving as its anchor set, which Family.RebaseAnchors
// mutates in place as sequenced commits arrive.
type clientState struct {
	session editmanager.SessionId
	editor  *kv.MapEditor
	manager *editmanager.EditManager[kvchange.Change, kvchange.Delta]
}

func runScenario(steps []scenarioStep, out io.Writer) error {
	sp, err := spec.ForDatabase("mem")
	if err != nil {
		return err
	}
	defer sp.Close()
	noms := sp.GetDatabase()
	fam := kvchange.Family{Noms: noms}

	seq := sequencer.NewFake()
	ctx := context.Background()

	clients := map[editmanager.SessionId]*clientState{}
	var sequenced []editmanager.Commit[kvchange.Change]
	getClient := func(name string) *clientState {
		session := editmanager.SessionId(name)
		if session == "" {
			session = editmanager.SessionId(shortuuid.New())
		}
		if cs, ok := clients[session]; ok {
			return cs
		}
		ed := kv.NewMap(noms).Edit()
		mgr := editmanager.New[kvchange.Change, kvchange.Delta](fam, ed)
		mgr.SetLocalSessionId(session)
		// A client joining mid-scenario first catches up on every commit
		// already sequenced, so the next one it receives is contiguous.
		for _, c := range sequenced {
			_, _ = mgr.AddSequencedChange(c)
		}
		cs := &clientState{session: session, editor: ed, manager: mgr}
		clients[session] = cs
		return cs
	}

	for i, step := range steps {
		author := getClient(step.Client)

		tx := kvchange.NewTransaction(noms, author.editor.Build())
		for _, op := range step.Ops {
			switch op.Type {
			case "put":
				if err := tx.Put(op.Key, []byte(op.Value)); err != nil {
					return fmt.Errorf("editsim: step %d: %w", i, err)
				}
			case "del":
				if _, err := tx.Del(op.Key); err != nil {
					return fmt.Errorf("editsim: step %d: %w", i, err)
				}
			default:
				return fmt.Errorf("editsim: step %d: unknown op type %q", i, op.Type)
			}
		}
		change, err := tx.Build()
		if err != nil {
			return err
		}

		if _, err := author.manager.AddLocalChange(change); err != nil {
			return fmt.Errorf("editsim: step %d: %w", i, err)
		}

		refNumber := editmanager.SeqNumber(len(author.manager.GetTrunk()))
		payload, err := json.Marshal(change)
		if err != nil {
			return err
		}
		env, err := seq.Submit(ctx, author.session, refNumber, payload)
		if err != nil {
			return err
		}

		for name, cs := range clients {
			var decoded kvchange.Change
			if err := json.Unmarshal(env.Changeset, &decoded); err != nil {
				return err
			}
			delta, err := cs.manager.AddSequencedChange(editmanager.Commit[kvchange.Change]{
				SessionID: env.SessionID,
				SeqNumber: env.SeqNumber,
				RefNumber: env.RefNumber,
				Changeset: decoded,
			})
			if err != nil {
				return fmt.Errorf("editsim: step %d delivering to %s: %w", i, name, err)
			}
			printDelta(out, name, step.Client, delta)
		}
		sequenced = append(sequenced, editmanager.Commit[kvchange.Change]{
			SessionID: env.SessionID,
			SeqNumber: env.SeqNumber,
			RefNumber: env.RefNumber,
			Changeset: change,
		})
	}
	return nil
}

func printDelta(out io.Writer, recipient editmanager.SessionId, author string, delta kvchange.Delta) {
	if len(delta.Ops) == 0 {
		return
	}
	label := fmt.Sprintf("[%s <- %s]", recipient, author)
	fmt.Fprintln(out, color(label, "cyan+h"))
	for _, op := range delta.Ops {
		switch op.Op {
		case "put":
			fmt.Fprintln(out, color(fmt.Sprintf("  put %s = %s", op.Key, op.Value), "green"))
		case "del":
			fmt.Fprintln(out, color(fmt.Sprintf("  del %s", op.Key), "red"))
		}
	}
}

func color(text, c string) string {
	return ansi.Color(text, c)
}
