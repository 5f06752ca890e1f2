package statedesigner

import "errors"

var (
	// ErrInvalidDesign is returned by New when a design references an unknown
	// library entry or a handler slot holds a value outside the shorthand
	// grammar. No instance is created.
	ErrInvalidDesign = errors.New("statedesigner: invalid design")

	// ErrUnknownTarget is reported when a transition target matches no node.
	// The transition is skipped; the drain continues.
	ErrUnknownTarget = errors.New("statedesigner: unknown transition target")

	// ErrLoopDetected is returned when more than maxTransitions transitions
	// run within one drain.
	ErrLoopDetected = errors.New("statedesigner: transition loop detected")

	// ErrHandlerFailure wraps a panic recovered from a handler function. The
	// draft in flight is discarded.
	ErrHandlerFailure = errors.New("statedesigner: handler failure")
)
