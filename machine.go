// Package statedesigner is a hierarchical statechart runtime. A declarative
// design of nested states, guarded event handlers, timed repeats and
// asynchronous work compiles into a live machine that processes events
// serially, maintains a tree of active states, runs entry and exit effects,
// and publishes updates to subscribers.
package statedesigner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/izznatsir/state-designer/clock"
	"github.com/izznatsir/state-designer/event"
	"github.com/izznatsir/state-designer/queue"
)

var instances atomic.Uint64

// Trace instruments engine steps. It is called with a step name and details
// and returns a closer invoked when the step completes.
type Trace func(ctx context.Context, step string, details ...any) func(...any)

// Machine is a live instance built from a design. It is not safe for
// concurrent use from multiple goroutines; the engine itself coordinates its
// off-thread effect handlers.
type Machine[D any] struct {
	id      string
	design  Design[D]
	data    D
	payload any
	result  any
	root    *Node[D]
	active  []*Node[D]
	values  map[string]any

	queue       *queue.Queue
	processing  atomic.Bool
	mu          sync.Mutex
	subMu       sync.Mutex
	subscribers map[string]func(*Machine[D])
	clock       clock.Clock
	trace       Trace
	ctx         context.Context
}

// New compiles the design and activates the initial states by issuing a
// root transition through the normal machinery, so root-level onEnter,
// repeat and async effects fire. A design defect or a transition loop during
// initial activation returns an error and no instance.
func New[D any](design Design[D]) (*Machine[D], error) {
	id := fmt.Sprintf("#state_%d", instances.Add(1))
	if design.ID != "" {
		id = "#" + design.ID
	}
	root, err := buildTree(newNormalizer(&design), id, &design)
	if err != nil {
		if !errors.Is(err, ErrInvalidDesign) {
			err = fmt.Errorf("%w: %v", ErrInvalidDesign, err)
		}
		return nil, err
	}
	m := &Machine[D]{
		id:          id,
		design:      design,
		data:        design.Data,
		root:        root,
		values:      map[string]any{},
		queue:       queue.New(),
		subscribers: map[string]func(*Machine[D]){},
		clock:       clock.Make(),
		ctx:         context.Background(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processing.Store(true)
	defer m.processing.Store(false)
	counter := 0
	flags := evalFlags{}
	if err := m.runTransition("root", false, &flags, &counter); err != nil {
		return nil, err
	}
	if err := m.drain(&counter); err != nil {
		return nil, err
	}
	m.payload = nil
	m.active = activeNodes(m.root)
	m.refreshValues()
	return m, nil
}

// WithTrace installs an instrumentation hook on the machine.
func WithTrace[D any](m *Machine[D], trace Trace) *Machine[D] {
	m.trace = trace
	return m
}

// WithClock replaces the machine's clock. Install before the first Send;
// effects already running keep the clock they started with.
func WithClock[D any](m *Machine[D], c clock.Clock) *Machine[D] {
	m.clock = c
	return m
}

func (m *Machine[D]) ID() string {
	return m.id
}

// Data returns the current committed data.
func (m *Machine[D]) Data() D {
	return m.data
}

// Values returns the computed values as of the most recent update.
func (m *Machine[D]) Values() map[string]any {
	return m.values
}

// Active returns the depth-first list of active nodes.
func (m *Machine[D]) Active() []*Node[D] {
	return m.active
}

func (m *Machine[D]) ActivePaths() []string {
	paths := make([]string, len(m.active))
	for i, node := range m.active {
		paths[i] = node.Path
	}
	return paths
}

// Root returns the state tree.
func (m *Machine[D]) Root() *Node[D] {
	return m.root
}

// Send enqueues an event. Called outside a drain it processes the queue to
// completion and returns the drain's error; called from inside a handler or a
// subscriber it enqueues behind the in-flight drain and returns nil.
func (m *Machine[D]) Send(name string, payload ...any) error {
	var data any
	if len(payload) > 0 {
		data = payload[0]
	}
	ev := event.Event{Name: name, Payload: data}
	if m.processing.Load() {
		m.queue.Push(ev)
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processing.Store(true)
	defer m.processing.Store(false)
	m.queue.Push(ev)
	counter := 0
	err := m.drain(&counter)
	if err != nil {
		// The cascade may have been abandoned midway; keep the cached list
		// aligned with the node flags.
		m.active = activeNodes(m.root)
	}
	return err
}

// drain processes queued events one at a time until the queue empties. The
// transition counter spans the whole drain.
func (m *Machine[D]) drain(counter *int) error {
	for {
		ev, ok := m.queue.Pop()
		if !ok {
			return nil
		}
		if err := m.processEvent(ev, counter); err != nil {
			return err
		}
	}
}

func (m *Machine[D]) processEvent(ev event.Event, counter *int) error {
	if m.trace != nil {
		defer m.trace(m.ctx, "dispatch", ev.Name)()
	}
	flags := evalFlags{}
	m.payload = ev.Payload
	m.result = nil
	err := m.handleEventOnState(m.root, ev, &flags, counter)
	m.payload = nil
	if err != nil {
		return err
	}
	if flags.didAction || flags.didTransition {
		m.notify()
	}
	return nil
}

// handleEventOnState propagates one event down the active subtree. A
// transition anywhere stops the walk; deeper states never see the event.
func (m *Machine[D]) handleEventOnState(node *Node[D], ev event.Event, flags *evalFlags, counter *int) error {
	if !node.Active {
		return nil
	}
	if chain, ok := node.on[ev.Name]; ok {
		if err := m.evaluateChain(chain, flags, counter); err != nil {
			return err
		}
		if flags.transitioned {
			return nil
		}
	}
	if node.onEvent != nil {
		if err := m.evaluateChain(node.onEvent, flags, counter); err != nil {
			return err
		}
		if flags.transitioned {
			return nil
		}
	}
	for _, child := range node.Children {
		if !child.Active {
			continue
		}
		if err := m.handleEventOnState(child, ev, flags, counter); err != nil {
			return err
		}
		if flags.transitioned {
			return nil
		}
	}
	return nil
}

func (m *Machine[D]) refreshValues() {
	for key, value := range m.design.Values {
		m.values[key] = value(m.data)
	}
}

// notify recomputes values, refreshes the active list and invokes every
// subscriber with the live instance. Subscribers are snapshotted first so a
// callback may subscribe or cancel without corrupting the iteration.
func (m *Machine[D]) notify() {
	m.active = activeNodes(m.root)
	m.refreshValues()
	m.subMu.Lock()
	subscribers := make([]func(*Machine[D]), 0, len(m.subscribers))
	for _, subscriber := range m.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	m.subMu.Unlock()
	for _, subscriber := range subscribers {
		subscriber(m)
	}
}

// OnUpdate subscribes to updates that performed at least one action or
// transition. The returned function cancels the subscription.
func (m *Machine[D]) OnUpdate(fn func(*Machine[D])) (cancel func()) {
	token := uuid.NewString()
	m.subMu.Lock()
	m.subscribers[token] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subscribers, token)
		m.subMu.Unlock()
	}
}

// GetUpdate invokes fn once, synchronously, with the current instance.
func (m *Machine[D]) GetUpdate(fn func(*Machine[D])) {
	fn(m)
}
