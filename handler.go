package statedesigner

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// maxTransitions bounds the number of transitions one drain may perform. The
// counter tracks completed transitions, so the 201st attempt trips the guard.
const maxTransitions = 200

// evalFlags accumulates what one event's handlers did. didAction and
// didTransition drive subscriber notification; transitioned also covers
// secret transitions and short-circuits propagation.
type evalFlags struct {
	didAction     bool
	didTransition bool
	transitioned  bool
}

type transitionRequest struct {
	path   string
	secret bool
}

// passes evaluates the item's guards: all of if, none of unless, and at
// least one of ifAny when any are declared.
func (item *handlerItem[D]) passes(draft *D, payload any, result any) bool {
	for _, condition := range item.ifAll {
		if !condition(draft, payload, result) {
			return false
		}
	}
	for _, condition := range item.unless {
		if condition(draft, payload, result) {
			return false
		}
	}
	if len(item.ifAny) > 0 {
		for _, condition := range item.ifAny {
			if condition(draft, payload, result) {
				return true
			}
		}
		return false
	}
	return true
}

// evaluateChain runs a handler chain as one transaction over data. The draft
// commits once the chain finishes cleanly, before any transition it issued is
// executed, so exit and enter handlers observe post-action data.
func (m *Machine[D]) evaluateChain(chain handlerChain[D], flags *evalFlags, counter *int) error {
	draft := m.data
	request, err := m.runChain(chain, &draft, flags)
	if err != nil {
		return err
	}
	m.data = draft
	if request == nil {
		return nil
	}
	return m.runTransition(request.path, request.secret, flags, counter)
}

// runChain walks the chain's items in order against the draft. A recovered
// panic from any handler function discards the draft and surfaces as
// ErrHandlerFailure.
func (m *Machine[D]) runChain(chain handlerChain[D], draft *D, flags *evalFlags) (request *transitionRequest, err error) {
	defer func() {
		if r := recover(); r != nil {
			request = nil
			err = fmt.Errorf("%w: %v", ErrHandlerFailure, r)
		}
	}()
	for _, item := range chain {
		for _, get := range item.get {
			m.result = get(draft, m.payload, m.result)
		}
		passed := item.passes(draft, m.payload, m.result)
		if item.wait != nil {
			seconds := item.wait(draft, m.payload, m.result)
			m.clock.Sleep(time.Duration(seconds * float64(time.Second)))
		}
		if passed {
			for _, action := range item.do {
				action(draft, m.payload, m.result)
			}
			if len(item.do) > 0 {
				flags.didAction = true
			}
			for _, action := range item.secretlyDo {
				action(draft, m.payload, m.result)
			}
			if item.send != nil {
				m.queue.Push(item.send(draft, m.payload, m.result))
			}
			if item.to != nil {
				return &transitionRequest{path: item.to(draft, m.payload, m.result)}, nil
			}
			if item.secretlyTo != nil {
				return &transitionRequest{path: item.secretlyTo(draft, m.payload, m.result), secret: true}, nil
			}
		} else {
			for _, action := range item.elseDo {
				action(draft, m.payload, m.result)
			}
			if len(item.elseDo) > 0 {
				flags.didAction = true
			}
			if item.elseSend != nil {
				m.queue.Push(item.elseSend(draft, m.payload, m.result))
			}
			if item.elseTo != nil {
				return &transitionRequest{path: item.elseTo(draft, m.payload, m.result)}, nil
			}
		}
	}
	return nil, nil
}

// runTransition reshapes the active set toward path and runs the exit and
// enter cascades. Suffixes .previous and .restore select history re-entry.
// The flags and counter are only touched once the target resolves: a skipped
// transition must not notify subscribers or stop event propagation.
func (m *Machine[D]) runTransition(path string, secret bool, flags *evalFlags, counter *int) error {
	if *counter >= maxTransitions {
		slog.Error("transition loop detected", "machine", m.id, "target", path)
		return fmt.Errorf("%w: %q after %d transitions", ErrLoopDetected, path, *counter)
	}
	if m.trace != nil {
		defer m.trace(m.ctx, "transition", path)()
	}

	previous := false
	restore := false
	if rest, ok := strings.CutSuffix(path, ".previous"); ok {
		path = rest
		previous = true
	} else if rest, ok := strings.CutSuffix(path, ".restore"); ok {
		path = rest
		previous = true
		restore = true
	}

	targets := findTransitionTargets(m.root, path)
	if len(targets) == 0 {
		// Release behavior: report and skip.
		slog.Error("no state found for transition target", "machine", m.id, "target", path)
		return nil
	}
	*counter++
	flags.transitioned = true
	if !secret {
		flags.didTransition = true
	}
	target := targets[len(targets)-1]
	down := strings.Split(strings.TrimPrefix(target.Path, m.id+"."), ".")[1:]

	before := activeNodes(m.root)
	deactivate(m.root)
	activate(m.root, down, previous, restore)
	after := activeNodes(m.root)
	exited := subtract(before, after)
	entered := subtract(after, before)

	for _, node := range exited {
		node.stopEffects()
	}
	for _, node := range exited {
		if node.onExit == nil {
			continue
		}
		if m.trace != nil {
			m.trace(m.ctx, "exit", node.Path)()
		}
		checkpoint := *counter
		if err := m.evaluateChain(node.onExit, flags, counter); err != nil {
			return err
		}
		if *counter != checkpoint {
			return nil
		}
	}
	for _, node := range entered {
		if m.trace != nil {
			m.trace(m.ctx, "enter", node.Path)()
		}
		if node.repeat != nil {
			m.startRepeat(node)
		}
		if node.onEnter != nil {
			checkpoint := *counter
			if err := m.evaluateChain(node.onEnter, flags, counter); err != nil {
				return err
			}
			if *counter != checkpoint {
				return nil
			}
		}
		if node.async != nil {
			m.startAsync(node)
		}
	}
	m.active = activeNodes(m.root)
	return nil
}
