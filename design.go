package statedesigner

import (
	"context"

	"github.com/izznatsir/state-designer/event"
)

// Event is re-exported so designs can produce queue entries without importing
// the event package.
type Event = event.Event

// Function kinds accepted by handler slots. Actions mutate the draft; every
// other callback treats it as read-only.
type (
	// Action mutates the data draft.
	Action[D any] func(data *D, payload any, result any)
	// Condition guards a handler item.
	Condition[D any] func(data *D, payload any, result any) bool
	// Result produces the next scratch result.
	Result[D any] func(data *D, payload any, result any) any
	// Time returns a duration in seconds.
	Time[D any] func(data *D, payload any, result any) float64
	// Target returns a transition target path.
	Target[D any] func(data *D, payload any, result any) string
	// SendFn produces an event to enqueue.
	SendFn[D any] func(data *D, payload any, result any) Event
	// Async runs awaitable work against a data snapshot. The returned value
	// routes to OnResolve, the error to OnReject.
	Async[D any] func(ctx context.Context, data D, payload any, result any) (any, error)
	// Value computes a derived value from committed data.
	Value[D any] func(data D) any
)

// Design describes a statechart. The zero value is a valid (empty) design.
//
// Handler slots (On values, OnEvent, OnEnter, OnExit, Repeat.OnRepeat,
// Async.OnResolve, Async.OnReject) accept shorthand forms that normalization
// expands into handler chains:
//
//   - a function         -> one item with the function in Do
//   - a string           -> one item holding the named library entry in its
//     library's slot: Actions (Do), else Conditions (If), else Results (Get),
//     else Times (Wait)
//   - an Item            -> one item, slot-wise
//   - a slice of the above -> one item per element
//
// Within an Item, a string in Do/If/IfAny/Unless/Get/Wait references the
// Actions/Conditions/Results/Times libraries; a string in To is a literal
// target path and a string in Send is a literal event name.
type Design[D any] struct {
	ID      string
	Data    D
	Initial string
	States  []State
	On      Events
	OnEvent any
	OnEnter any
	OnExit  any
	Repeat  *Repeat
	Async   *Await
	Values  map[string]Value[D]

	// Named libraries referenced by string shorthands.
	Results    map[string]Result[D]
	Conditions map[string]Condition[D]
	Actions    map[string]Action[D]
	Asyncs     map[string]Async[D]
	Times      map[string]Time[D]
}

// State is one node of the declarative tree. Declaration order of States is
// preserved and observable at runtime.
type State struct {
	Name    string
	Initial string
	States  []State
	On      Events
	OnEvent any
	OnEnter any
	OnExit  any
	Repeat  *Repeat
	Async   *Await
}

// Events maps an event name to a handler shorthand.
type Events map[string]any

// Repeat declares a timed loop on a state. With no Delay the loop is
// frame-driven; otherwise Delay yields the interval in seconds.
type Repeat struct {
	Delay    any
	OnRepeat any
}

// Await declares asynchronous work launched on entry.
type Await struct {
	Await     any
	OnResolve any
	OnReject  any
}

// Item is the full form of one handler item. Every slot accepts the shorthand
// grammar described on Design.
type Item struct {
	Get    any
	If     any
	IfAny  any
	Unless any
	Wait   any

	Do         any
	SecretlyDo any
	Send       any
	To         any
	SecretlyTo any

	ElseDo   any
	ElseSend any
	ElseTo   any
}

// RepeatInfo is placed in the scratch result before each repeat tick.
// Interval is the time since the previous tick and Elapsed the time since the
// loop started, both in milliseconds.
type RepeatInfo struct {
	Interval float64
	Elapsed  float64
}
